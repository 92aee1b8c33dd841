package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/types"
	"github.com/ethereum-optimism/infra/xr-cts/validators/gates"
)

var testGate = cts.Gate{
	ID: "gate1",
	Validators: []cts.Validator{
		cts.Suite{
			ID:    "suite1",
			Tests: []cts.Test{{ID: "test1"}},
		},
		cts.Test{ID: "test2", Description: "direct"},
	},
}

func TestDiscoverValidators(t *testing.T) {
	validators, err := DiscoverValidators([]cts.Gate{testGate})
	require.NoError(t, err)

	expected := []types.ValidatorMetadata{
		{ID: "gate1", Type: cts.TypeGate},
		{ID: "suite1", Type: cts.TypeSuite, Gate: "gate1"},
		{ID: "test1", Type: cts.TypeTest, Gate: "gate1", Suite: "suite1"},
		{ID: "test2", Type: cts.TypeTest, Gate: "gate1", Description: "direct"},
	}
	assert.Equal(t, expected, validators)
}

func TestDiscoverDuplicateGate(t *testing.T) {
	_, err := DiscoverValidators([]cts.Gate{testGate, testGate})
	assert.ErrorContains(t, err, "duplicate gate ID found: gate1")
}

func TestValidatorHierarchyString(t *testing.T) {
	validators, err := DiscoverValidators([]cts.Gate{testGate})
	require.NoError(t, err)

	expected := `Validator Hierarchy:
└── Gate: gate1
    ├── Direct Tests:
    │   └── test2
    └── Suites:
        └── suite1
            └── test1
`
	assert.Equal(t, expected, ValidatorHierarchyString(validators))
}

func TestBuiltinConformanceGate(t *testing.T) {
	validators, err := DiscoverValidators([]cts.Gate{gates.Conformance})
	require.NoError(t, err)

	out := ValidatorHierarchyString(validators)
	for _, id := range []string{"conformance", "session-state", "frame-loop", "swapchain", "cycle-through-all-states"} {
		assert.Contains(t, out, id)
	}
}
