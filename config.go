package cts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/xr-cts/fixture"
	"github.com/ethereum-optimism/infra/xr-cts/flags"
	"github.com/ethereum-optimism/infra/xr-cts/rpcbridge"
	"github.com/ethereum-optimism/infra/xr-cts/simruntime"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/types"
	"github.com/ethereum-optimism/infra/xr-cts/verifier"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

const ReferenceRuntimeName = "reference"

type Config struct {
	// Runtime under test
	Runtime     xr.Runtime
	RuntimeName string

	// Session setup and verifier deadlines
	Session        fixture.Options
	GraphicsPlugin bool
	Formats        *swapchain.Table

	// Validator config
	ValidatorConfig string
	TargetGate      string
	AllowSkips      bool

	Log log.Logger

	close func()
}

// NewRuntimeConfig returns a config with default session options for rt.
func NewRuntimeConfig(rt xr.Runtime, name string, formats *swapchain.Table, log log.Logger) Config {
	return Config{
		Runtime:        rt,
		RuntimeName:    name,
		Session:        fixture.Options{Verifier: verifier.DefaultOptions()},
		GraphicsPlugin: true,
		Formats:        formats,
		Log:            log,
	}
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	validatorConfig := ctx.String(flags.ValidatorConfig.Name)
	if validatorConfig != "" {
		abs, err := filepath.Abs(validatorConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for validator config '%s': %w", validatorConfig, err)
		}
		validatorConfig = abs
	}

	graphicsAPI := ctx.String(flags.GraphicsAPI.Name)
	graphicsPlugin := ctx.Bool(flags.GraphicsPlugin.Name)
	viewConfig := ctx.String(flags.ViewConfiguration.Name)
	blendMode := ctx.String(flags.EnvironmentBlendMode.Name)
	endpoint := ctx.String(flags.RuntimeRPC.Name)
	name := endpoint

	if path := ctx.String(flags.RuntimeManifest.Name); path != "" {
		manifest, err := parseManifest(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse runtime manifest: %w", err)
		}
		endpoint = manifest.Endpoint
		name = manifest.Name
		if name == "" {
			name = manifest.Endpoint
		}
		if manifest.GraphicsAPI != "" && !ctx.IsSet(flags.GraphicsAPI.Name) {
			graphicsAPI = manifest.GraphicsAPI
		}
		if manifest.GraphicsPlugin != nil && !ctx.IsSet(flags.GraphicsPlugin.Name) {
			graphicsPlugin = *manifest.GraphicsPlugin
		}
		if manifest.ViewConfiguration != "" && !ctx.IsSet(flags.ViewConfiguration.Name) {
			viewConfig = manifest.ViewConfiguration
		}
		if manifest.EnvironmentBlendMode != "" && !ctx.IsSet(flags.EnvironmentBlendMode.Name) {
			blendMode = manifest.EnvironmentBlendMode
		}
	}

	formats, err := swapchain.Load(swapchain.GraphicsAPI(graphicsAPI))
	if err != nil {
		return nil, err
	}
	opts, err := verifierOptions(viewConfig, blendMode,
		ctx.Duration(flags.StateTimeout.Name), ctx.Duration(flags.NegativeWindow.Name))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GraphicsPlugin:  graphicsPlugin,
		Formats:         formats,
		Session:         fixture.Options{Verifier: opts},
		ValidatorConfig: validatorConfig,
		TargetGate:      ctx.String(flags.Gate.Name),
		AllowSkips:      ctx.Bool(flags.AllowSkips.Name),
		Log:             log,
	}
	if graphicsPlugin {
		cfg.Session.GraphicsBinding = string(formats.API())
	}

	if ctx.Bool(flags.ReferenceRuntime.Name) {
		cfg.Runtime = NewReferenceRuntime(formats, opts.BlendMode, log)
		cfg.RuntimeName = ReferenceRuntimeName
		log.Info("Using in-process reference runtime", "graphics_api", formats.API())
		return cfg, nil
	}

	client, err := rpcbridge.Dial(ctx.Context, endpoint, log)
	if err != nil {
		return nil, fmt.Errorf("failed to dial runtime at %s: %w", endpoint, err)
	}
	cfg.Runtime = client
	cfg.RuntimeName = name
	cfg.close = client.Close
	log.Info("Connected to runtime", "name", name, "endpoint", endpoint)
	return cfg, nil
}

func verifierOptions(viewConfig, blendMode string, stateTimeout, negativeWindow time.Duration) (verifier.Options, error) {
	opts := verifier.DefaultOptions()
	var err error
	if opts.ViewConfiguration, err = xr.ParseViewConfigurationType(viewConfig); err != nil {
		return opts, err
	}
	if opts.BlendMode, err = xr.ParseEnvironmentBlendMode(blendMode); err != nil {
		return opts, err
	}
	if stateTimeout <= 0 {
		return opts, errors.New("state timeout must be positive")
	}
	if negativeWindow <= 0 {
		return opts, errors.New("negative window must be positive")
	}
	opts.StateTimeout = stateTimeout
	opts.NegativeWindow = negativeWindow
	return opts, nil
}

// NewReferenceRuntime returns an in-process runtime that reports every
// format of the table and accepts blendMode.
func NewReferenceRuntime(formats *swapchain.Table, blendMode xr.EnvironmentBlendMode, log log.Logger) *simruntime.Runtime {
	var ids []int64
	for _, f := range formats.Formats() {
		ids = append(ids, f.ID)
	}
	return simruntime.New(simruntime.Options{
		BlendModes:       []xr.EnvironmentBlendMode{blendMode},
		SwapchainFormats: ids,
		Log:              log.New("component", "simruntime"),
	})
}

// Close releases the connection to the runtime, if any.
func (c *Config) Close() {
	if c.close != nil {
		c.close()
		c.close = nil
	}
}

// SessionOptions returns the session options with per-test overrides from
// params applied. params may be types.TestParams, a pointer to one, or nil.
func (c Config) SessionOptions(params interface{}) fixture.Options {
	opts := c.Session
	var p *types.TestParams
	switch v := params.(type) {
	case types.TestParams:
		p = &v
	case *types.TestParams:
		p = v
	}
	if p != nil {
		if p.StateTimeout > 0 {
			opts.Verifier.StateTimeout = p.StateTimeout
		}
		if p.NegativeWindow > 0 {
			opts.Verifier.NegativeWindow = p.NegativeWindow
		}
	}
	return opts
}

// NewSession creates a fixture session on the runtime under test.
func (c Config) NewSession(ctx context.Context, params interface{}, setup fixture.Flags, log log.Logger) (*fixture.Session, error) {
	return fixture.New(ctx, c.Runtime, c.SessionOptions(params), setup, log)
}
