package discovery

import (
	"fmt"
	"strings"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/types"
)

// ValidatorHierarchyString returns a string representation of the validator hierarchy
func ValidatorHierarchyString(validators []types.ValidatorMetadata) string {
	var sb strings.Builder
	sb.WriteString("Validator Hierarchy:\n")

	var gates []string
	direct := make(map[string][]types.ValidatorMetadata)
	suites := make(map[string][]string)
	suiteTests := make(map[string][]types.ValidatorMetadata)
	for _, v := range validators {
		switch {
		case v.Type == cts.TypeGate:
			gates = append(gates, v.ID)
		case v.Type == cts.TypeSuite:
			suites[v.Gate] = append(suites[v.Gate], v.ID)
		case v.Suite == "":
			direct[v.Gate] = append(direct[v.Gate], v)
		default:
			key := v.Gate + "/" + v.Suite
			suiteTests[key] = append(suiteTests[key], v)
		}
	}

	for _, gate := range gates {
		sb.WriteString(fmt.Sprintf("└── Gate: %s\n", gate))

		if tests := direct[gate]; len(tests) > 0 {
			sb.WriteString("    ├── Direct Tests:\n")
			for i, test := range tests {
				sb.WriteString(fmt.Sprintf("    │   %s %s\n", branch(i, len(tests)), test.ID))
			}
		}

		if len(suites[gate]) > 0 {
			sb.WriteString("    └── Suites:\n")
			for _, suite := range suites[gate] {
				sb.WriteString(fmt.Sprintf("        └── %s\n", suite))
				tests := suiteTests[gate+"/"+suite]
				for i, test := range tests {
					sb.WriteString(fmt.Sprintf("            %s %s\n", branch(i, len(tests)), test.ID))
				}
			}
		}
	}

	return sb.String()
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
