// Package verifier drives a runtime-owned session through its lifecycle and
// asserts the observed transitions, their timing and the result codes of
// out-of-turn calls.
//
// All waits are bounded by a countdown. Negative assertions ("nothing
// happens within the window") are inherently a race against the runtime's
// scheduling and only hold for the window they were given.
package verifier

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/countdown"
	"github.com/ethereum-optimism/infra/xr-cts/frame"
	"github.com/ethereum-optimism/infra/xr-cts/metrics"
	"github.com/ethereum-optimism/infra/xr-cts/poller"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

const (
	DefaultStateTimeout   = 30 * time.Second
	DefaultNegativeWindow = 1 * time.Second
)

// Options configures a Verifier.
type Options struct {
	ViewConfiguration xr.ViewConfigurationType
	BlendMode         xr.EnvironmentBlendMode
	// StateTimeout bounds waits for a transition that must happen.
	StateTimeout time.Duration
	// NegativeWindow bounds waits for a transition that must not happen.
	NegativeWindow time.Duration
	// PollInterval is the sleep between empty polls. Zero uses poller.DefaultInterval.
	PollInterval time.Duration
	// Renderer, if set, is invoked between begin-frame and end-frame.
	Renderer frame.Renderer
}

// DefaultOptions returns options for a stereo HMD with an opaque display.
func DefaultOptions() Options {
	return Options{
		ViewConfiguration: xr.ViewConfigurationTypePrimaryStereo,
		BlendMode:         xr.EnvironmentBlendModeOpaque,
		StateTimeout:      DefaultStateTimeout,
		NegativeWindow:    DefaultNegativeWindow,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ViewConfiguration == 0 {
		o.ViewConfiguration = d.ViewConfiguration
	}
	if o.BlendMode == 0 {
		o.BlendMode = d.BlendMode
	}
	if o.StateTimeout <= 0 {
		o.StateTimeout = d.StateTimeout
	}
	if o.NegativeWindow <= 0 {
		o.NegativeWindow = d.NegativeWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = poller.DefaultInterval
	}
	return o
}

// Transition is one observed session state change.
type Transition struct {
	From xr.SessionState
	To   xr.SessionState
	// Time is the runtime's timestamp for the change.
	Time xr.Time
	// Elapsed is measured from the creation of the verifier.
	Elapsed time.Duration
}

// Verifier references, but does not own, one session. It is not safe for
// concurrent use.
type Verifier struct {
	rt      xr.Runtime
	session xr.Session
	opts    Options
	log     log.Logger

	poller *poller.Poller
	frames *frame.Driver

	start   time.Time
	state   xr.SessionState
	running bool
	history []Transition
}

// New creates a verifier for session, whose events arrive on instance.
func New(rt xr.Runtime, instance xr.Instance, session xr.Session, opts Options, log log.Logger) *Verifier {
	opts = opts.withDefaults()
	log = log.New("session", session)
	return &Verifier{
		rt:      rt,
		session: session,
		opts:    opts,
		log:     log,
		poller:  poller.New(rt, instance, log).WithInterval(opts.PollInterval),
		frames:  frame.NewDriver(rt, session, opts.BlendMode, opts.Renderer, log),
		start:   time.Now(),
	}
}

// Options returns the effective options.
func (v *Verifier) Options() Options {
	return v.opts
}

// Session returns the session under test.
func (v *Verifier) Session() xr.Session {
	return v.session
}

// State returns the most recently observed state.
func (v *Verifier) State() xr.SessionState {
	return v.state
}

// Running reports whether begin-session has succeeded and end-session has not.
func (v *Verifier) Running() bool {
	return v.running
}

// History returns every observed transition in delivery order.
func (v *Verifier) History() []Transition {
	return append([]Transition(nil), v.history...)
}

// Frames returns the number of frames submitted on the session.
func (v *Verifier) Frames() int {
	return v.frames.Frames()
}

// LastFrameState returns the frame state of the most recent wait-frame.
func (v *Verifier) LastFrameState() xr.FrameState {
	return v.frames.LastFrameState()
}

// SubmitFrame runs one wait/begin/end frame cycle.
func (v *Verifier) SubmitFrame(ctx context.Context) error {
	return v.frames.SubmitFrame(ctx)
}

// record appends evt to the history and rejects edges the lifecycle does not
// allow. The state is recorded either way.
func (v *Verifier) record(evt xr.SessionStateChanged) error {
	from := v.state
	v.state = evt.State
	elapsed := time.Since(v.start)
	v.history = append(v.history, Transition{From: from, To: evt.State, Time: evt.Time, Elapsed: elapsed})
	metrics.RecordSessionTransition(from.String(), evt.State.String())

	if !xr.ValidTransition(from, evt.State) {
		v.log.Warn("illegal session state transition", "from", from, "to", evt.State)
		return &AssertionError{
			Op:       "session state transition",
			Expected: fmt.Sprintf("a legal successor of %s", from),
			Actual:   evt.State.String(),
			Elapsed:  elapsed,
		}
	}
	v.log.Info("session state changed", "from", from, "to", evt.State, "elapsed", elapsed)
	return nil
}

// nextState polls once. Events for other sessions on the same instance are
// skipped.
func (v *Verifier) nextState(ctx context.Context) (xr.SessionStateChanged, bool, error) {
	for {
		evt, ok, err := v.poller.TryGetNextSessionStateEvent(ctx)
		if err != nil || !ok {
			return evt, ok, err
		}
		if evt.Session == v.session {
			return evt, true, nil
		}
		v.log.Debug("ignoring state change of another session", "other", evt.Session, "state", evt.State)
	}
}

// SubmitFramesUntilSessionState alternates a single non-blocking poll with
// one frame submission until a state change arrives or d elapses. The first
// state change observed must be expected; anything else fails immediately.
func (v *Verifier) SubmitFramesUntilSessionState(ctx context.Context, expected xr.SessionState, d time.Duration) error {
	const op = "SubmitFramesUntilSessionState"
	timer := countdown.New(d)
	for {
		evt, ok, err := v.nextState(ctx)
		if err != nil {
			return err
		}
		if ok {
			if evt.State != expected {
				_ = v.record(evt)
				return &AssertionError{Op: op, Expected: expected.String(), Actual: evt.State.String(), Elapsed: timer.Elapsed()}
			}
			metrics.RecordStateWait(expected.String(), timer.Elapsed())
			return v.record(evt)
		}
		if timer.IsTimeUp() {
			return &AssertionError{
				Op:       op,
				Expected: expected.String(),
				Actual:   NoStateChange + " (could not reach expected state)",
				Elapsed:  timer.Elapsed(),
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.frames.SubmitFrame(ctx); err != nil {
			return err
		}
	}
}

// WaitForSessionState blocks until the next state change of the session or
// until d elapses. It reports false when nothing arrived.
func (v *Verifier) WaitForSessionState(ctx context.Context, d time.Duration) (xr.SessionState, bool, error) {
	timer := countdown.New(d)
	for {
		evt, ok, err := v.poller.WaitForNextSessionState(ctx, timer.Remaining())
		if err != nil || !ok {
			return xr.SessionStateUnknown, false, err
		}
		if evt.Session != v.session {
			v.log.Debug("ignoring state change of another session", "other", evt.Session, "state", evt.State)
			continue
		}
		return evt.State, true, v.record(evt)
	}
}

// ExpectSessionState waits up to d for the next state change and requires it
// to be expected.
func (v *Verifier) ExpectSessionState(ctx context.Context, expected xr.SessionState, d time.Duration) error {
	const op = "ExpectSessionState"
	timer := countdown.New(d)
	state, ok, err := v.WaitForSessionState(ctx, d)
	if !ok && err == nil {
		return &AssertionError{Op: op, Expected: expected.String(), Actual: NoStateChange, Elapsed: timer.Elapsed()}
	}
	if ok && state != expected {
		return &AssertionError{Op: op, Expected: expected.String(), Actual: state.String(), Elapsed: timer.Elapsed()}
	}
	if err == nil {
		metrics.RecordStateWait(expected.String(), timer.Elapsed())
	}
	return err
}

// ExpectNoSessionState requires that no state change arrives within window.
// reason names the premature transition being guarded against.
func (v *Verifier) ExpectNoSessionState(ctx context.Context, window time.Duration, reason string) error {
	timer := countdown.New(window)
	state, ok, err := v.WaitForSessionState(ctx, window)
	if ok {
		metrics.RecordContractCheck(checkLabel(reason), "fail")
		return &AssertionError{Op: reason, Expected: NoStateChange, Actual: state.String(), Elapsed: timer.Elapsed()}
	}
	if err != nil {
		return err
	}
	metrics.RecordContractCheck(checkLabel(reason), "pass")
	return nil
}

// RunToSessionState drives the session until target is observed, accepting
// any legal intermediate states. Frames are submitted only while the session
// is running. The session is begun when READY is passed and ended when
// STOPPING is passed.
func (v *Verifier) RunToSessionState(ctx context.Context, target xr.SessionState, d time.Duration) error {
	const op = "RunToSessionState"
	timer := countdown.New(d)
	if v.state == target {
		return nil
	}
	for {
		evt, ok, err := v.nextState(ctx)
		if err != nil {
			return err
		}
		if ok {
			if err := v.record(evt); err != nil {
				return err
			}
			if evt.State == target {
				return nil
			}
			if err := v.stepPast(ctx, evt.State, target, timer); err != nil {
				return err
			}
			continue
		}
		if timer.IsTimeUp() {
			return &AssertionError{Op: op, Expected: target.String(), Actual: v.state.String() + " (could not reach expected state)", Elapsed: timer.Elapsed()}
		}
		if v.running {
			if err := v.frames.SubmitFrame(ctx); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(v.opts.PollInterval):
		}
	}
}

func (v *Verifier) stepPast(ctx context.Context, state, target xr.SessionState, timer *countdown.Timer) error {
	switch state {
	case xr.SessionStateReady:
		if !v.running {
			return v.BeginSession(ctx, xr.Success)
		}
	case xr.SessionStateStopping:
		if v.running {
			return v.EndSession(ctx, xr.Success)
		}
	case xr.SessionStateExiting, xr.SessionStateLossPending:
		return &AssertionError{Op: "RunToSessionState", Expected: target.String(), Actual: state.String(), Elapsed: timer.Elapsed()}
	}
	return nil
}
