package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/simruntime"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/types"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

func referenceConfig(t *testing.T) *cts.Config {
	t.Helper()
	table, err := swapchain.Load(swapchain.GraphicsAPIVulkan)
	require.NoError(t, err)
	rt := cts.NewReferenceRuntime(table, xr.EnvironmentBlendModeOpaque, log.New())
	cfg := cts.NewRuntimeConfig(rt, cts.ReferenceRuntimeName, table, log.New())
	cfg.Session.Verifier.StateTimeout = 2 * time.Second
	cfg.Session.Verifier.NegativeWindow = 20 * time.Millisecond
	return &cfg
}

func newApp(t *testing.T, cfg *cts.Config, done func(error)) (*app, *bytes.Buffer) {
	t.Helper()
	a, err := New(context.Background(), cfg, "test", done)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	a.out = out
	return a, out
}

func TestStartPasses(t *testing.T) {
	shutdown := make(chan error, 1)
	a, out := newApp(t, referenceConfig(t), func(err error) { shutdown <- err })

	require.NoError(t, a.Start(context.Background()))
	assert.False(t, a.Stopped())

	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback not called")
	}

	require.NotNil(t, a.Result())
	assert.Equal(t, types.TestStatusPass, a.Result().Status)
	assert.Contains(t, out.String(), "conformance")
	assert.Contains(t, out.String(), "cycle-through-all-states")

	require.NoError(t, a.Stop(context.Background()))
	assert.True(t, a.Stopped())
	require.NoError(t, a.Stop(context.Background()))
}

func TestStartFails(t *testing.T) {
	cfg := cts.NewRuntimeConfig(simruntime.New(simruntime.Options{
		Faults: simruntime.Faults{SkipVisible: true},
	}), "faulty", nil, log.New())
	cfg.Session.Verifier.StateTimeout = 500 * time.Millisecond
	cfg.Session.Verifier.NegativeWindow = 20 * time.Millisecond
	cfg.AllowSkips = true

	a, _ := newApp(t, &cfg, nil)
	err := a.Start(context.Background())
	require.Error(t, err)
	assert.True(t, cts.IsTestFailureError(err))
	assert.False(t, cts.IsRuntimeError(err))
	assert.Equal(t, types.TestStatusFail, a.Result().Status)
}

func TestStartCanceled(t *testing.T) {
	a, _ := newApp(t, referenceConfig(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Start(ctx)
	require.Error(t, err)
	assert.True(t, cts.IsRuntimeError(err))
}

func TestSelectGates(t *testing.T) {
	t.Run("builtin", func(t *testing.T) {
		selected, err := SelectGates("", "", log.New())
		require.NoError(t, err)
		assert.Equal(t, Builtin, selected)

		selected, err = SelectGates("", "conformance", log.New())
		require.NoError(t, err)
		require.Len(t, selected, 1)

		_, err = SelectGates("", "missing", log.New())
		assert.ErrorContains(t, err, `gate "missing" not found`)
	})

	t.Run("validator config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "validators.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
gates:
  - id: smoke
    tests:
      - id: request-exit-before-begin
  - id: lifecycle
    suites:
      session-state:
        tests:
          - id: cycle-through-all-states
            params:
              state_timeout: 5s
`), 0644))

		selected, err := SelectGates(path, "", log.New())
		require.NoError(t, err)
		require.Len(t, selected, 2)
		assert.Equal(t, "smoke", selected[0].ID)
		assert.Equal(t, "lifecycle", selected[1].ID)

		selected, err = SelectGates(path, "lifecycle", log.New())
		require.NoError(t, err)
		require.Len(t, selected, 1)
	})

	t.Run("unknown test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "validators.yaml")
		require.NoError(t, os.WriteFile(path, []byte("gates:\n  - id: g\n    tests:\n      - id: nope\n"), 0644))
		cfg := referenceConfig(t)
		cfg.ValidatorConfig = path
		_, err := New(context.Background(), cfg, "test", nil)
		assert.Error(t, err)
	})
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "test", nil)
	assert.Error(t, err)
}
