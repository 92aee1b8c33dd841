package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/xr-cts/simruntime"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

const (
	testTimeout = 2 * time.Second
	testWindow  = 50 * time.Millisecond
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.StateTimeout = testTimeout
	opts.NegativeWindow = testWindow
	opts.PollInterval = time.Millisecond
	return opts
}

func newVerifier(t *testing.T, faults simruntime.Faults) (*Verifier, *simruntime.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := simruntime.New(simruntime.Options{Faults: faults})
	inst, res, err := rt.CreateInstance(ctx, t.Name())
	require.NoError(t, xr.Check("xrCreateInstance", res, err))
	sess, res, err := rt.CreateSession(ctx, inst, xr.SessionCreateInfo{FormFactor: xr.FormFactorHeadMountedDisplay})
	require.NoError(t, xr.Check("xrCreateSession", res, err))
	return New(rt, inst, sess, testOptions(), log.New()), rt
}

// toReady consumes the IDLE and READY events every new session starts with.
func toReady(t *testing.T, v *Verifier) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, v.ExpectSessionState(ctx, xr.SessionStateIdle, testTimeout))
	require.NoError(t, v.ExpectSessionState(ctx, xr.SessionStateReady, testTimeout))
}

func toFocused(t *testing.T, v *Verifier) {
	t.Helper()
	ctx := context.Background()
	toReady(t, v)
	require.NoError(t, v.BeginSession(ctx, xr.Success))
	for _, s := range []xr.SessionState{xr.SessionStateSynchronized, xr.SessionStateVisible, xr.SessionStateFocused} {
		require.NoError(t, v.SubmitFramesUntilSessionState(ctx, s, testTimeout))
	}
}

func assertAssertion(t *testing.T, err error, expected, actual string) *AssertionError {
	t.Helper()
	var aErr *AssertionError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, expected, aErr.Expected)
	assert.Contains(t, aErr.Actual, actual)
	return aErr
}

func states(h []Transition) []xr.SessionState {
	out := make([]xr.SessionState, 0, len(h))
	for _, tr := range h {
		out = append(out, tr.To)
	}
	return out
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultStateTimeout, opts.StateTimeout)
	assert.Equal(t, DefaultNegativeWindow, opts.NegativeWindow)
	assert.Equal(t, xr.ViewConfigurationTypePrimaryStereo, opts.ViewConfiguration)
	assert.Equal(t, xr.EnvironmentBlendModeOpaque, opts.BlendMode)
}

func TestFullLifecycle(t *testing.T) {
	for name, faults := range map[string]simruntime.Faults{
		"clean":        {},
		"noise events": {NoiseEvents: true},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			v, rt := newVerifier(t, faults)

			toFocused(t, v)
			require.NoError(t, v.EndSession(ctx, xr.ErrorSessionNotStopping))
			require.NoError(t, v.RequestExitSession(ctx, xr.Success))
			for _, s := range []xr.SessionState{xr.SessionStateVisible, xr.SessionStateSynchronized, xr.SessionStateStopping} {
				require.NoError(t, v.SubmitFramesUntilSessionState(ctx, s, testTimeout))
			}
			require.NoError(t, v.ExpectNoSessionState(ctx, testWindow, "premature progression from STOPPING to IDLE"))
			require.NoError(t, v.EndSession(ctx, xr.Success))
			require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateIdle, testTimeout))
			require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateExiting, testTimeout))

			want := append(append([]xr.SessionState{}, xr.ForwardSequence...), xr.ExitSequence...)
			assert.Equal(t, want, states(v.History()))
			assert.Equal(t, v.Frames(), rt.FramesSubmitted(v.Session()))
			assert.False(t, v.Running())

			h := v.History()
			for i := 1; i < len(h); i++ {
				assert.Equal(t, h[i-1].To, h[i].From)
				assert.GreaterOrEqual(t, h[i].Elapsed, h[i-1].Elapsed)
			}
		})
	}
}

func TestSubmitFramesUntilSessionState(t *testing.T) {
	ctx := context.Background()

	t.Run("skipped state fails without retry", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{SkipVisible: true})
		toReady(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.Success))
		require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateSynchronized, testTimeout))

		err := v.SubmitFramesUntilSessionState(ctx, xr.SessionStateVisible, testTimeout)
		assertAssertion(t, err, "VISIBLE", "FOCUSED")
		assert.Equal(t, xr.SessionStateFocused, v.State())
	})

	t.Run("deadline without a match", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{NeverFocus: true})
		toReady(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.Success))
		require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateSynchronized, testTimeout))
		require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateVisible, testTimeout))

		framesBefore := v.Frames()
		err := v.SubmitFramesUntilSessionState(ctx, xr.SessionStateFocused, testWindow)
		aErr := assertAssertion(t, err, "FOCUSED", "could not reach expected state")
		assert.GreaterOrEqual(t, aErr.Elapsed, testWindow)
		assert.Greater(t, v.Frames(), framesBefore, "frames must be submitted while waiting")
	})

	t.Run("frame failure propagates", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		toReady(t, v)
		// Never begun, so the first wait-frame fails.
		err := v.SubmitFramesUntilSessionState(ctx, xr.SessionStateSynchronized, testTimeout)
		res, ok := xr.ResultOf(err)
		require.True(t, ok)
		assert.Equal(t, xr.ErrorSessionNotRunning, res)
	})

	t.Run("zero deadline polls once", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateIdle, 0))
	})

	t.Run("cancelled context stops submission", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{NeverFocus: true})
		toReady(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.Success))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := v.SubmitFramesUntilSessionState(cctx, xr.SessionStateSynchronized, testTimeout)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, v.Frames())
	})
}

func TestNegativeTiming(t *testing.T) {
	ctx := context.Background()

	t.Run("premature idle after stopping", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{PrematureIdle: true})
		toFocused(t, v)
		require.NoError(t, v.RequestExitSession(ctx, xr.Success))
		for _, s := range []xr.SessionState{xr.SessionStateVisible, xr.SessionStateSynchronized, xr.SessionStateStopping} {
			require.NoError(t, v.SubmitFramesUntilSessionState(ctx, s, testTimeout))
		}
		err := v.ExpectNoSessionState(ctx, testWindow, "premature progression from STOPPING to IDLE")
		aErr := assertAssertion(t, err, NoStateChange, "IDLE")
		assert.Less(t, aErr.Elapsed, testWindow)
	})

	t.Run("ready holds without frames", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		toReady(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.Success))
		start := time.Now()
		require.NoError(t, v.ExpectNoSessionState(ctx, testWindow, "premature progression from READY to SYNCHRONIZED"))
		assert.GreaterOrEqual(t, time.Since(start), testWindow)
	})

	t.Run("advance without frames is caught", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{AdvanceWithoutFrames: true})
		toReady(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.Success))
		err := v.ExpectNoSessionState(ctx, testWindow, "premature progression from READY to SYNCHRONIZED")
		assertAssertion(t, err, NoStateChange, "SYNCHRONIZED")
	})
}

func TestContracts(t *testing.T) {
	ctx := context.Background()

	t.Run("conforming runtime", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		require.NoError(t, v.WaitFrame(ctx, xr.ErrorSessionNotRunning))
		require.NoError(t, v.RequestExitSession(ctx, xr.ErrorSessionNotRunning))
		toFocused(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.ErrorSessionRunning))
		require.NoError(t, v.EndSession(ctx, xr.ErrorSessionNotStopping))
		assert.True(t, v.Running())
	})

	t.Run("frames accepted before begin", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{AllowFramesWhileNotRunning: true})
		err := v.WaitFrame(ctx, xr.ErrorSessionNotRunning)
		aErr := assertAssertion(t, err, "XR_ERROR_SESSION_NOT_RUNNING", "XR_SUCCESS")
		assert.Equal(t, "xrWaitFrame", aErr.Op)
	})

	t.Run("second begin accepted", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{AllowSecondBegin: true})
		toReady(t, v)
		require.NoError(t, v.BeginSession(ctx, xr.Success))
		assertAssertion(t, v.BeginSession(ctx, xr.ErrorSessionRunning), "XR_ERROR_SESSION_RUNNING", "XR_SUCCESS")
	})

	t.Run("end accepted outside stopping", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{AllowEndOutsideStopping: true})
		toFocused(t, v)
		assertAssertion(t, v.EndSession(ctx, xr.ErrorSessionNotStopping), "XR_ERROR_SESSION_NOT_STOPPING", "XR_SUCCESS")
		assert.True(t, v.Running(), "running flag only drops when success was expected")
	})
}

func TestRunToSessionState(t *testing.T) {
	ctx := context.Background()

	t.Run("begins and ends the session on the way", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		require.NoError(t, v.RunToSessionState(ctx, xr.SessionStateFocused, testTimeout))
		assert.True(t, v.Running())
		require.NoError(t, v.RequestExitSession(ctx, xr.Success))
		require.NoError(t, v.RunToSessionState(ctx, xr.SessionStateExiting, testTimeout))
		assert.False(t, v.Running())

		want := append(append([]xr.SessionState{}, xr.ForwardSequence...), xr.ExitSequence...)
		assert.Equal(t, want, states(v.History()))
	})

	t.Run("stops at stopping without ending", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		require.NoError(t, v.RunToSessionState(ctx, xr.SessionStateFocused, testTimeout))
		require.NoError(t, v.RequestExitSession(ctx, xr.Success))
		require.NoError(t, v.RunToSessionState(ctx, xr.SessionStateStopping, testTimeout))
		assert.True(t, v.Running())
		require.NoError(t, v.EndSession(ctx, xr.Success))
		require.NoError(t, v.RequestExitSession(ctx, xr.ErrorSessionNotRunning))
	})

	t.Run("already there", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{})
		require.NoError(t, v.RunToSessionState(ctx, xr.SessionStateReady, testTimeout))
		require.NoError(t, v.RunToSessionState(ctx, xr.SessionStateReady, 0))
		assert.False(t, v.Running())
	})

	t.Run("illegal edge is rejected", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{SkipVisible: true})
		err := v.RunToSessionState(ctx, xr.SessionStateFocused, testTimeout)
		assertAssertion(t, err, "a legal successor of SYNCHRONIZED", "FOCUSED")
	})

	t.Run("times out when the target never comes", func(t *testing.T) {
		v, _ := newVerifier(t, simruntime.Faults{NeverFocus: true})
		err := v.RunToSessionState(ctx, xr.SessionStateFocused, 100*time.Millisecond)
		assertAssertion(t, err, "FOCUSED", "VISIBLE")
	})
}

func TestOtherSessionsAreIgnored(t *testing.T) {
	ctx := context.Background()
	rt := simruntime.New(simruntime.Options{})
	inst, _, err := rt.CreateInstance(ctx, t.Name())
	require.NoError(t, err)
	info := xr.SessionCreateInfo{FormFactor: xr.FormFactorHeadMountedDisplay}
	first, _, err := rt.CreateSession(ctx, inst, info)
	require.NoError(t, err)
	second, _, err := rt.CreateSession(ctx, inst, info)
	require.NoError(t, err)

	v := New(rt, inst, second, testOptions(), log.New())
	require.NoError(t, v.SubmitFramesUntilSessionState(ctx, xr.SessionStateIdle, 0))
	require.NoError(t, v.ExpectSessionState(ctx, xr.SessionStateReady, testTimeout))
	assert.Len(t, v.History(), 2)
	assert.NotEqual(t, first, v.Session())
}

func TestAssertionErrorMessage(t *testing.T) {
	err := &AssertionError{Op: "xrEndSession", Expected: "XR_ERROR_SESSION_NOT_STOPPING", Actual: "XR_SUCCESS", Elapsed: 1234567 * time.Nanosecond}
	assert.Equal(t, "xrEndSession: expected XR_ERROR_SESSION_NOT_STOPPING, observed XR_SUCCESS after 1ms", err.Error())
}
