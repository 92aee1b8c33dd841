package gates

import (
	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/validators/suites"
)

// Conformance is the gate run when no validator config is given.
var Conformance = cts.Gate{
	ID:          "conformance",
	Description: "Session state and frame loop conformance",
	Validators: []cts.Validator{
		suites.SessionState,
		suites.FrameLoop,
		suites.Swapchain,
	},
}
