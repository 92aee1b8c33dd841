package cts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/xr-cts/flags"
	"github.com/ethereum-optimism/infra/xr-cts/simruntime"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/types"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

func newConfigFromArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg    *Config
		cfgErr error
	)
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, log.New())
		return nil
	}
	require.NoError(t, app.Run(append([]string{"xr-cts"}, args...)))
	return cfg, cfgErr
}

func TestNewConfig(t *testing.T) {
	t.Run("reference runtime", func(t *testing.T) {
		cfg, err := newConfigFromArgs(t,
			"--reference-runtime",
			"--graphics-api", "opengl",
			"--environment-blend-mode", "additive",
			"--state-timeout", "5s",
			"--gate", "conformance",
		)
		require.NoError(t, err)
		defer cfg.Close()

		assert.Equal(t, ReferenceRuntimeName, cfg.RuntimeName)
		assert.IsType(t, &simruntime.Runtime{}, cfg.Runtime)
		assert.Equal(t, swapchain.GraphicsAPIOpenGL, cfg.Formats.API())
		assert.Equal(t, "opengl", cfg.Session.GraphicsBinding)
		assert.Equal(t, xr.EnvironmentBlendModeAdditive, cfg.Session.Verifier.BlendMode)
		assert.Equal(t, 5*time.Second, cfg.Session.Verifier.StateTimeout)
		assert.Equal(t, time.Second, cfg.Session.Verifier.NegativeWindow)
		assert.Equal(t, "conformance", cfg.TargetGate)
		assert.True(t, cfg.GraphicsPlugin)
	})

	t.Run("no runtime", func(t *testing.T) {
		_, err := newConfigFromArgs(t)
		assert.ErrorContains(t, err, "missing required flags")
	})

	t.Run("unknown blend mode", func(t *testing.T) {
		_, err := newConfigFromArgs(t, "--reference-runtime", "--environment-blend-mode", "glitter")
		assert.ErrorContains(t, err, "glitter")
	})

	t.Run("unknown graphics api", func(t *testing.T) {
		_, err := newConfigFromArgs(t, "--reference-runtime", "--graphics-api", "glide")
		assert.Error(t, err)
	})

	t.Run("non-positive negative window", func(t *testing.T) {
		_, err := newConfigFromArgs(t, "--reference-runtime", "--negative-window", "0s")
		assert.ErrorContains(t, err, "negative window")
	})

	t.Run("validator config path is made absolute", func(t *testing.T) {
		cfg, err := newConfigFromArgs(t, "--reference-runtime", "--validators", "validators.yaml")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(cfg.ValidatorConfig))
	})
}

func TestParseManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "runtime.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
  "name": "monado",
  "endpoint": "ws://127.0.0.1:8546",
  "graphicsApi": "opengl",
  "graphicsPlugin": false,
  "extensions": ["XR_KHR_opengl_enable"]
}`), 0644))

		m, err := parseManifest(path)
		require.NoError(t, err)
		assert.Equal(t, "monado", m.Name)
		assert.Equal(t, "ws://127.0.0.1:8546", m.Endpoint)
		assert.Equal(t, "opengl", m.GraphicsAPI)
		require.NotNil(t, m.GraphicsPlugin)
		assert.False(t, *m.GraphicsPlugin)
		assert.Equal(t, []string{"XR_KHR_opengl_enable"}, m.Extensions)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name": "nothing"}`), 0644))
		_, err := parseManifest(path)
		assert.ErrorContains(t, err, "no endpoint")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := parseManifest(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})
}

func TestSessionOptions(t *testing.T) {
	formats, err := swapchain.Load(swapchain.GraphicsAPIVulkan)
	require.NoError(t, err)
	cfg := NewRuntimeConfig(simruntime.New(simruntime.Options{}), "sim", formats, log.New())

	t.Run("nil params keep run-wide values", func(t *testing.T) {
		opts := cfg.SessionOptions(nil)
		assert.Equal(t, cfg.Session, opts)
	})

	t.Run("params override deadlines", func(t *testing.T) {
		opts := cfg.SessionOptions(types.TestParams{NegativeWindow: 50 * time.Millisecond})
		assert.Equal(t, 50*time.Millisecond, opts.Verifier.NegativeWindow)
		assert.Equal(t, cfg.Session.Verifier.StateTimeout, opts.Verifier.StateTimeout)

		opts = cfg.SessionOptions(&types.TestParams{StateTimeout: 2 * time.Second})
		assert.Equal(t, 2*time.Second, opts.Verifier.StateTimeout)
	})

	t.Run("unrelated params are ignored", func(t *testing.T) {
		opts := cfg.SessionOptions(map[string]string{"state_timeout": "1s"})
		assert.Equal(t, cfg.Session, opts)
	})
}

func TestErrors(t *testing.T) {
	runtimeErr := NewRuntimeError(assert.AnError)
	assert.True(t, IsRuntimeError(runtimeErr))
	assert.ErrorIs(t, runtimeErr, assert.AnError)
	assert.False(t, IsTestFailureError(runtimeErr))

	failure := NewTestFailureError("2 tests failed")
	assert.True(t, IsTestFailureError(failure))
	assert.Equal(t, "test failure: 2 tests failed", failure.Error())
	assert.False(t, IsRuntimeError(nil))
}
