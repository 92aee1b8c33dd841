package suites

import (
	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/validators/tests"
)

var Swapchain = cts.Suite{
	ID:          "swapchain",
	Description: "Swapchain format enumeration against the format table",
	Tests: []cts.Test{
		tests.SwapchainFormatClassification,
	},
}
