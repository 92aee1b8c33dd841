package tests

import (
	"context"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/fixture"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// CycleThroughAllStates walks a session through every state of the
// lifecycle and checks that none is skipped, that end-session is refused
// before STOPPING and that STOPPING holds until the session is ended.
var CycleThroughAllStates = cts.Test{
	ID:          "cycle-through-all-states",
	Description: "Session passes through every lifecycle state in order",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		return withSession(ctx, log, cfg, params, fixture.CreateSession, func(s *fixture.Session) error {
			v := s.Verifier
			timeout := v.Options().StateTimeout

			if err := v.ExpectSessionState(ctx, xr.SessionStateIdle, timeout); err != nil {
				return errors.Wrap(err, "waiting for IDLE after session creation")
			}
			if err := v.ExpectSessionState(ctx, xr.SessionStateReady, timeout); err != nil {
				return errors.Wrap(err, "waiting for READY")
			}
			if err := v.BeginSession(ctx, xr.Success); err != nil {
				return err
			}
			for _, state := range []xr.SessionState{
				xr.SessionStateSynchronized,
				xr.SessionStateVisible,
				xr.SessionStateFocused,
			} {
				if err := v.SubmitFramesUntilSessionState(ctx, state, timeout); err != nil {
					return errors.Wrapf(err, "driving frames to %s", state)
				}
			}

			if err := v.EndSession(ctx, xr.ErrorSessionNotStopping); err != nil {
				return err
			}
			if err := v.RequestExitSession(ctx, xr.Success); err != nil {
				return err
			}
			for _, state := range []xr.SessionState{
				xr.SessionStateVisible,
				xr.SessionStateSynchronized,
				xr.SessionStateStopping,
			} {
				if err := v.SubmitFramesUntilSessionState(ctx, state, timeout); err != nil {
					return errors.Wrapf(err, "driving frames to %s after exit request", state)
				}
			}

			if err := v.ExpectNoSessionState(ctx, v.Options().NegativeWindow, "Premature progression from STOPPING to IDLE state"); err != nil {
				return err
			}
			if err := v.EndSession(ctx, xr.Success); err != nil {
				return err
			}

			// The session is no longer running, so no frames can be submitted.
			if err := v.ExpectSessionState(ctx, xr.SessionStateIdle, timeout); err != nil {
				return errors.Wrap(err, "waiting for IDLE after end session")
			}
			if err := v.ExpectSessionState(ctx, xr.SessionStateExiting, timeout); err != nil {
				return errors.Wrap(err, "waiting for EXITING")
			}
			log.Info("session cycled through all states", "frames", v.Frames(), "transitions", len(v.History()))
			return nil
		})
	},
}

// RequestExitBeforeBegin checks that request-exit is refused on a session
// that was never begun.
var RequestExitBeforeBegin = cts.Test{
	ID:          "request-exit-before-begin",
	Description: "xrRequestExitSession fails with XR_ERROR_SESSION_NOT_RUNNING before begin",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		return withSession(ctx, log, cfg, params, fixture.CreateSession, func(s *fixture.Session) error {
			return s.Verifier.RequestExitSession(ctx, xr.ErrorSessionNotRunning)
		})
	},
}

// RequestExitAfterEnd checks that request-exit is refused once the session
// has been ended.
var RequestExitAfterEnd = cts.Test{
	ID:          "request-exit-after-end",
	Description: "xrRequestExitSession fails with XR_ERROR_SESSION_NOT_RUNNING after end",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		return withSession(ctx, log, cfg, params, fixture.BeginSession, func(s *fixture.Session) error {
			v := s.Verifier
			if err := v.RequestExitSession(ctx, xr.Success); err != nil {
				return err
			}
			if err := v.RunToSessionState(ctx, xr.SessionStateStopping, v.Options().StateTimeout); err != nil {
				return errors.Wrap(err, "running to STOPPING")
			}
			if err := v.EndSession(ctx, xr.Success); err != nil {
				return err
			}
			return v.RequestExitSession(ctx, xr.ErrorSessionNotRunning)
		})
	},
}

// AdvanceWithoutFrameSubmission checks that a begun session stays READY
// while no frames are submitted. Needs a graphics binding.
var AdvanceWithoutFrameSubmission = cts.Test{
	ID:          "advance-without-frame-submission",
	Description: "Session does not leave READY after begin until a frame is submitted",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		if !cfg.GraphicsPlugin {
			return false, errors.Wrap(cts.ErrSkip, "requires a graphics plugin")
		}
		return withSession(ctx, log, cfg, params, fixture.CreateSession, func(s *fixture.Session) error {
			v := s.Verifier
			if err := v.RunToSessionState(ctx, xr.SessionStateReady, v.Options().StateTimeout); err != nil {
				return errors.Wrap(err, "running to READY")
			}
			if err := v.BeginSession(ctx, xr.Success); err != nil {
				return err
			}
			return v.ExpectNoSessionState(ctx, v.Options().NegativeWindow, "Premature progression from READY to SYNCHRONIZED state")
		})
	},
}

// OutOfTurnCalls checks the result codes of frame and session calls made in
// the wrong lifecycle state.
var OutOfTurnCalls = cts.Test{
	ID:          "out-of-turn-calls",
	Description: "Frame and session calls made out of turn fail with the documented result codes",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		return withSession(ctx, log, cfg, params, fixture.CreateSession, func(s *fixture.Session) error {
			v := s.Verifier
			if err := v.WaitFrame(ctx, xr.ErrorSessionNotRunning); err != nil {
				return err
			}
			if err := v.EndSession(ctx, xr.ErrorSessionNotRunning); err != nil {
				return err
			}
			if err := v.RunToSessionState(ctx, xr.SessionStateReady, v.Options().StateTimeout); err != nil {
				return errors.Wrap(err, "running to READY")
			}
			if err := v.BeginSession(ctx, xr.Success); err != nil {
				return err
			}
			if err := v.BeginSession(ctx, xr.ErrorSessionRunning); err != nil {
				return err
			}
			return v.EndSession(ctx, xr.ErrorSessionNotStopping)
		})
	},
}
