package tests

import (
	cts "github.com/ethereum-optimism/infra/xr-cts"
)

// All lists every test that a validator config can refer to.
var All = []cts.Test{
	CycleThroughAllStates,
	RequestExitBeforeBegin,
	RequestExitAfterEnd,
	AdvanceWithoutFrameSubmission,
	OutOfTurnCalls,
	FocusedPredictedDisplayTime,
	LocateViews,
	LocateViewsAllViewTypes,
	SwapchainFormatClassification,
}

// Catalog returns All keyed by test ID.
func Catalog() map[string]cts.Test {
	catalog := make(map[string]cts.Test, len(All))
	for _, t := range All {
		catalog[t.ID] = t
	}
	return catalog
}
