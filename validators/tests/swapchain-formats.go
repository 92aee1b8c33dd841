package tests

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/fixture"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// SwapchainFormatClassification matches the formats the runtime enumerates
// against the format table of the configured graphics API.
var SwapchainFormatClassification = cts.Test{
	ID:          "swapchain-format-classification",
	Description: "Enumerated swapchain formats are known and yield valid default create infos",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		if cfg.Formats == nil {
			return false, errors.Wrap(cts.ErrSkip, "no format table configured")
		}
		return withSession(ctx, log, cfg, params, fixture.CreateSession, func(s *fixture.Session) error {
			ids, res, err := s.Runtime.EnumerateSwapchainFormats(ctx, s.Session)
			if err := xr.Check("xrEnumerateSwapchainFormats", res, err); err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("runtime enumerated no swapchain formats")
			}

			known, unknown := cfg.Formats.Classify(ids)
			if len(unknown) > 0 {
				log.Info("formats missing from the table are not tested", "api", cfg.Formats.API(), "unknown", unknown)
			}
			if len(known) == 0 {
				return fmt.Errorf("none of the %d enumerated formats is in the %s table", len(ids), cfg.Formats.API())
			}
			for _, p := range known {
				if err := checkFormat(p); err != nil {
					return errors.Wrapf(err, "format %s", p.Name)
				}
			}

			candidates := cfg.Formats.RenderComparisonCandidates(ids)
			log.Info("classified swapchain formats",
				"known", len(known), "unknown", len(unknown), "render_candidates", len(candidates))
			if cfg.GraphicsPlugin && len(candidates) == 0 {
				return fmt.Errorf("no renderable non-integer color format enumerated")
			}
			return nil
		})
	},
}

func checkFormat(p swapchain.Parameters) error {
	info := swapchain.DefaultCreateInfo(p.ID, p)
	if info.Width == 0 || info.Height == 0 || info.SampleCount == 0 || info.MipCount == 0 || info.ArraySize == 0 {
		return fmt.Errorf("degenerate default create info %+v", info)
	}
	if len(p.UsageFlags) == 0 {
		return fmt.Errorf("no usage flags")
	}
	if !p.IntegerRange.IsInteger() {
		return nil
	}
	bits, err := swapchain.BitsForIntegerRange(p.IntegerRange)
	if err != nil {
		return err
	}
	if _, err := swapchain.IsSignedIntegerRange(p.IntegerRange); err != nil {
		return err
	}
	if p.Components == 0 {
		return fmt.Errorf("integer format with %d-bit channels has no color components", bits)
	}
	return nil
}
