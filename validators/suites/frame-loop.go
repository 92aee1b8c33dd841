package suites

import (
	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/validators/tests"
)

var FrameLoop = cts.Suite{
	ID:          "frame-loop",
	Description: "Frame timing and view location of a focused session",
	Tests: []cts.Test{
		tests.FocusedPredictedDisplayTime,
		tests.LocateViews,
		tests.LocateViewsAllViewTypes,
	},
}
