package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func ids(tests []TestConfig) []string {
	out := make([]string, 0, len(tests))
	for _, t := range tests {
		out = append(out, t.ID)
	}
	return out
}

func TestResolveInherited(t *testing.T) {
	gates := map[string]GateConfig{
		"base": {
			ID:     "base",
			Tests:  []TestConfig{{ID: "a"}, {ID: "b"}},
			Suites: map[string]SuiteConfig{"lifecycle": {Description: "base lifecycle"}},
		},
		"middle": {
			ID:       "middle",
			Inherits: []string{"base"},
			Tests:    []TestConfig{{ID: "c"}},
		},
		"top": {
			ID:       "top",
			Inherits: []string{"middle", "base"},
			Tests:    []TestConfig{{ID: "b"}},
			Suites:   map[string]SuiteConfig{"lifecycle": {Description: "own lifecycle"}},
		},
	}

	t.Run("transitive", func(t *testing.T) {
		g := gates["top"]
		require.NoError(t, g.ResolveInherited(gates))
		assert.Equal(t, []string{"b", "c", "a"}, ids(g.Tests))
		assert.Equal(t, "own lifecycle", g.Suites["lifecycle"].Description)
		assert.Empty(t, g.Inherits)
	})

	t.Run("no inheritance is a no-op", func(t *testing.T) {
		g := gates["base"]
		require.NoError(t, g.ResolveInherited(gates))
		assert.Equal(t, []string{"a", "b"}, ids(g.Tests))
	})

	t.Run("unknown parent", func(t *testing.T) {
		g := GateConfig{ID: "orphan", Inherits: []string{"missing"}, Tests: []TestConfig{{ID: "own"}}}
		err := g.ResolveInherited(gates)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `gate "orphan" inherits from non-existent gate "missing"`)
		assert.Equal(t, []string{"own"}, ids(g.Tests))
		assert.Equal(t, []string{"missing"}, g.Inherits)
	})

	t.Run("gate outside the map keeps its own config", func(t *testing.T) {
		g := GateConfig{
			ID:       "extra",
			Inherits: []string{"base"},
			Tests:    []TestConfig{{ID: "own"}},
			Suites:   map[string]SuiteConfig{"frames": {Description: "own frames"}},
		}
		require.NoError(t, g.ResolveInherited(gates))
		assert.Equal(t, []string{"own", "a", "b"}, ids(g.Tests))
		assert.Equal(t, "own frames", g.Suites["frames"].Description)
		assert.Equal(t, "base lifecycle", g.Suites["lifecycle"].Description)
		assert.Empty(t, g.Inherits)
	})

	t.Run("receiver differs from the map copy", func(t *testing.T) {
		g := gates["middle"]
		g.Tests = []TestConfig{{ID: "edited"}}
		require.NoError(t, g.ResolveInherited(gates))
		assert.Equal(t, []string{"edited", "a", "b"}, ids(g.Tests))
	})

	t.Run("cycle", func(t *testing.T) {
		cyclic := map[string]GateConfig{
			"x": {ID: "x", Inherits: []string{"y"}},
			"y": {ID: "y", Inherits: []string{"x"}},
		}
		g := cyclic["x"]
		err := g.ResolveInherited(cyclic)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circular gate inheritance: x -> y -> x")
	})
}

func TestTestParamsYAML(t *testing.T) {
	var tc TestConfig
	require.NoError(t, yaml.Unmarshal([]byte(`
id: advance-without-frame-submission
params:
  negative_window: 250ms
`), &tc))
	require.NotNil(t, tc.Params)
	assert.Equal(t, 250*time.Millisecond, tc.Params.NegativeWindow)
	assert.Zero(t, tc.Params.StateTimeout)
}
