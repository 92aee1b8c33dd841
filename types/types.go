// Package types contains the validator config model shared by the registry
// and the runner.
package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// ValidatorMetadata describes where a validator sits in a gate.
type ValidatorMetadata struct {
	ID          string
	Type        string
	Gate        string
	Suite       string
	Description string
}

// ValidatorConfig represents the complete validator configuration
type ValidatorConfig struct {
	Gates []GateConfig `yaml:"gates"`
}

// GateConfig represents a collection of tests and suites
type GateConfig struct {
	ID          string                 `yaml:"id"`
	Description string                 `yaml:"description"`
	Inherits    []string               `yaml:"inherits,omitempty"`
	Tests       []TestConfig           `yaml:"tests,omitempty"`
	Suites      map[string]SuiteConfig `yaml:"suites,omitempty"`
}

// SuiteConfig represents a collection of related tests
type SuiteConfig struct {
	Description string       `yaml:"description"`
	Tests       []TestConfig `yaml:"tests"`
}

// TestConfig names a registered test and optionally overrides its params.
type TestConfig struct {
	ID     string      `yaml:"id"`
	Params *TestParams `yaml:"params,omitempty"`
}

// TestParams override the verifier deadlines for one test. Zero fields keep
// the run-wide values.
type TestParams struct {
	StateTimeout   time.Duration `yaml:"state_timeout,omitempty"`
	NegativeWindow time.Duration `yaml:"negative_window,omitempty"`
}

func (p TestParams) String() string {
	return fmt.Sprintf("state_timeout=%s negative_window=%s", p.StateTimeout, p.NegativeWindow)
}

// ResolveInherited merges the tests and suites of every gate g inherits
// from, transitively. Own suites take precedence over inherited ones with the
// same name, and a test listed more than once is kept at its first position.
func (g *GateConfig) ResolveInherited(gates map[string]GateConfig) error {
	if len(g.Inherits) == 0 {
		return nil
	}
	suites, tests, err := collect(*g, gates, []string{g.ID})
	if err != nil {
		return err
	}
	g.Suites = suites
	g.Tests = tests
	g.Inherits = nil
	return nil
}

// collect merges gate's own config with that of its parents. Parents are
// looked up in gates; gate itself need not be in the map.
func collect(gate GateConfig, gates map[string]GateConfig, path []string) (map[string]SuiteConfig, []TestConfig, error) {
	// First copy our own config
	suites := make(map[string]SuiteConfig, len(gate.Suites))
	for k, v := range gate.Suites {
		suites[k] = v
	}
	tests := append([]TestConfig{}, gate.Tests...)

	// Then merge in inherited configs
	for _, parentID := range gate.Inherits {
		parent, ok := gates[parentID]
		if !ok {
			return nil, nil, fmt.Errorf("gate %q inherits from non-existent gate %q", gate.ID, parentID)
		}
		for _, seen := range path {
			if seen == parentID {
				return nil, nil, fmt.Errorf("circular gate inheritance: %s -> %s", strings.Join(path, " -> "), parentID)
			}
		}
		parentSuites, parentTests, err := collect(parent, gates, append(path, parentID))
		if err != nil {
			return nil, nil, err
		}
		for k, v := range parentSuites {
			if _, exists := suites[k]; !exists {
				suites[k] = v
			}
		}
		tests = append(tests, parentTests...)
	}
	return suites, dedupe(tests), nil
}

func dedupe(tests []TestConfig) []TestConfig {
	seen := make(map[string]bool, len(tests))
	out := tests[:0]
	for _, t := range tests {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// SuiteNames returns the gate's suite names in sorted order.
func (g *GateConfig) SuiteNames() []string {
	names := make([]string, 0, len(g.Suites))
	for name := range g.Suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
