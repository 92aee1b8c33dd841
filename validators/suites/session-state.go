package suites

import (
	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/validators/tests"
)

var SessionState = cts.Suite{
	ID:          "session-state",
	Description: "Session lifecycle transitions, timing and out-of-turn result codes",
	Tests: []cts.Test{
		tests.CycleThroughAllStates,
		tests.RequestExitBeforeBegin,
		tests.RequestExitAfterEnd,
		tests.AdvanceWithoutFrameSubmission,
		tests.OutOfTurnCalls,
	},
}
