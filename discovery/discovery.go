// package discovery lists the validators of a set of gates and returns their
// metadata, so a run can be inspected before it starts.
package discovery

import (
	"fmt"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/types"
)

// DiscoverValidators flattens gates into metadata records in run order.
// Each gate is followed by its suites and tests.
func DiscoverValidators(gates []cts.Gate) ([]types.ValidatorMetadata, error) {
	var validators []types.ValidatorMetadata
	seen := make(map[string]struct{})

	for _, gate := range gates {
		if _, exists := seen[gate.ID]; exists {
			return nil, fmt.Errorf("duplicate gate ID found: %s", gate.ID)
		}
		seen[gate.ID] = struct{}{}
		validators = append(validators, types.ValidatorMetadata{
			ID:          gate.ID,
			Type:        cts.TypeGate,
			Description: gate.Description,
		})

		for _, v := range gate.Validators {
			switch v := v.(type) {
			case cts.Suite:
				validators = append(validators, suiteMetadata(gate.ID, v)...)
			case *cts.Suite:
				validators = append(validators, suiteMetadata(gate.ID, *v)...)
			case cts.Test:
				validators = append(validators, testMetadata(gate.ID, "", v))
			case *cts.Test:
				validators = append(validators, testMetadata(gate.ID, "", *v))
			}
		}
	}
	return validators, nil
}

func suiteMetadata(gate string, s cts.Suite) []types.ValidatorMetadata {
	out := []types.ValidatorMetadata{{
		ID:          s.ID,
		Type:        cts.TypeSuite,
		Gate:        gate,
		Description: s.Description,
	}}
	for _, t := range s.Tests {
		out = append(out, testMetadata(gate, s.ID, t))
	}
	return out
}

func testMetadata(gate, suite string, t cts.Test) types.ValidatorMetadata {
	return types.ValidatorMetadata{
		ID:          t.ID,
		Type:        cts.TypeTest,
		Gate:        gate,
		Suite:       suite,
		Description: t.Description,
	}
}
