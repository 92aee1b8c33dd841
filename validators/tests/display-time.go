package tests

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/fixture"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// FocusedPredictedDisplayTime runs a session to FOCUSED and checks the
// frame timing the runtime reports there.
var FocusedPredictedDisplayTime = cts.Test{
	ID:          "focused-predicted-display-time",
	Description: "Frames of a FOCUSED session carry non-decreasing, non-zero predicted display times",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		return withSession(ctx, log, cfg, params, fixture.BeginSession, func(s *fixture.Session) error {
			v := s.Verifier
			if err := v.RunToSessionState(ctx, xr.SessionStateFocused, v.Options().StateTimeout); err != nil {
				return errors.Wrap(err, "running to FOCUSED")
			}
			if err := v.SubmitFrame(ctx); err != nil {
				return err
			}
			first := v.LastFrameState()
			if first.PredictedDisplayTime == 0 {
				return fmt.Errorf("predicted display time is zero")
			}
			if first.PredictedDisplayPeriod <= 0 {
				return fmt.Errorf("predicted display period %s is not positive", first.PredictedDisplayPeriod)
			}
			if !first.ShouldRender {
				log.Warn("shouldRender is false in FOCUSED", "display_time", first.PredictedDisplayTime)
			}
			if err := v.SubmitFrame(ctx); err != nil {
				return err
			}
			second := v.LastFrameState()
			if second.PredictedDisplayTime < first.PredictedDisplayTime {
				return fmt.Errorf("predicted display time went backwards: %d then %d",
					first.PredictedDisplayTime, second.PredictedDisplayTime)
			}
			log.Debug("frame timing", "display_time", second.PredictedDisplayTime, "period", second.PredictedDisplayPeriod)
			return nil
		})
	},
}
