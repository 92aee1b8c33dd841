package xr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTransition(t *testing.T) {
	t.Run("forward sequence has no gaps", func(t *testing.T) {
		prev := SessionStateUnknown
		for _, s := range ForwardSequence {
			assert.True(t, ValidTransition(prev, s), "%s -> %s", prev, s)
			prev = s
		}
	})

	t.Run("exit sequence has no gaps", func(t *testing.T) {
		prev := SessionStateFocused
		for _, s := range ExitSequence {
			assert.True(t, ValidTransition(prev, s), "%s -> %s", prev, s)
			prev = s
		}
	})

	tests := []struct {
		from, to SessionState
	}{
		{SessionStateReady, SessionStateVisible},
		{SessionStateSynchronized, SessionStateFocused},
		{SessionStateFocused, SessionStateSynchronized},
		{SessionStateFocused, SessionStateStopping},
		{SessionStateIdle, SessionStateSynchronized},
		{SessionStateExiting, SessionStateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String()+" is a skip", func(t *testing.T) {
			assert.False(t, ValidTransition(tt.from, tt.to))
		})
	}

	t.Run("loss pending reachable from live states", func(t *testing.T) {
		assert.True(t, ValidTransition(SessionStateFocused, SessionStateLossPending))
		assert.False(t, ValidTransition(SessionStateExiting, SessionStateLossPending))
	})
}

func TestSessionStateJSON(t *testing.T) {
	data, err := json.Marshal(SessionStateStopping)
	require.NoError(t, err)
	assert.Equal(t, `"STOPPING"`, string(data))

	var s SessionState
	require.NoError(t, json.Unmarshal([]byte(`"FOCUSED"`), &s))
	assert.Equal(t, SessionStateFocused, s)

	assert.Error(t, json.Unmarshal([]byte(`"NAPPING"`), &s))
	assert.Equal(t, "SessionState(42)", SessionState(42).String())
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("xrBeginFrame", FrameDiscarded, nil))
	assert.NoError(t, Check("xrPollEvent", EventUnavailable, nil))

	err := Check("xrWaitFrame", ErrorSessionNotRunning, nil)
	require.Error(t, err)
	assert.Equal(t, "xrWaitFrame failed: XR_ERROR_SESSION_NOT_RUNNING", err.Error())
	res, ok := ResultOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorSessionNotRunning, res)

	transport := errors.New("connection refused")
	err = Check("xrEndFrame", Success, transport)
	assert.ErrorIs(t, err, transport)
	_, ok = ResultOf(err)
	assert.False(t, ok)
}

func TestParseNames(t *testing.T) {
	v, err := ParseViewConfigurationType("primary-stereo")
	require.NoError(t, err)
	assert.Equal(t, ViewConfigurationTypePrimaryStereo, v)

	b, err := ParseEnvironmentBlendMode("ALPHA_BLEND")
	require.NoError(t, err)
	assert.Equal(t, EnvironmentBlendModeAlphaBlend, b)

	f, err := ParseFormFactor("hmd")
	require.NoError(t, err)
	assert.Equal(t, FormFactorHeadMountedDisplay, f)

	_, err = ParseEnvironmentBlendMode("glitter")
	assert.Error(t, err)
}
