package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	oprpc "github.com/ethereum-optimism/optimism/op-service/rpc"
)

const EnvVarPrefix = "XR_CTS"

var (
	ValidatorConfig = &cli.StringFlag{
		Name:    "validators",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "VALIDATORS"),
		Usage:   "Path to validator config file (eg. 'validators.yaml'). The built-in gates are used when unset",
	}
	Gate = &cli.StringFlag{
		Name:    "gate",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GATE"),
		Usage:   "Gate to run (eg. 'conformance'). All gates run when unset",
	}
	RuntimeRPC = &cli.StringFlag{
		Name:    "runtime-rpc",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUNTIME_RPC"),
		Usage:   "JSON-RPC endpoint of the runtime under test (http, ws or ipc)",
	}
	RuntimeManifest = &cli.StringFlag{
		Name:    "runtime-manifest",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUNTIME_MANIFEST"),
		Usage:   "Path to a JSON manifest describing the runtime under test",
	}
	ReferenceRuntime = &cli.BoolFlag{
		Name:    "reference-runtime",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REFERENCE_RUNTIME"),
		Usage:   "Run against the in-process reference runtime",
	}
	GraphicsAPI = &cli.StringFlag{
		Name:    "graphics-api",
		Value:   "vulkan",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GRAPHICS_API"),
		Usage:   "Graphics API whose swapchain format table is used (vulkan, opengl)",
	}
	GraphicsPlugin = &cli.BoolFlag{
		Name:    "graphics-plugin",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GRAPHICS_PLUGIN"),
		Usage:   "Session is created with a graphics binding. Disables the tests that need one when false",
	}
	ViewConfiguration = &cli.StringFlag{
		Name:    "view-configuration",
		Value:   "primary-stereo",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "VIEW_CONFIGURATION"),
		Usage:   "Primary view configuration type passed to begin-session",
	}
	EnvironmentBlendMode = &cli.StringFlag{
		Name:    "environment-blend-mode",
		Value:   "opaque",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ENVIRONMENT_BLEND_MODE"),
		Usage:   "Environment blend mode passed to end-frame",
	}
	StateTimeout = &cli.DurationFlag{
		Name:    "state-timeout",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STATE_TIMEOUT"),
		Usage:   "How long to wait for a session state transition that must happen",
	}
	NegativeWindow = &cli.DurationFlag{
		Name:    "negative-window",
		Value:   1 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NEGATIVE_WINDOW"),
		Usage:   "How long to watch for a session state transition that must not happen",
	}
	AllowSkips = &cli.BoolFlag{
		Name:    "allow-skips",
		Usage:   "Allow tests to be skipped when preconditions aren't met",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ALLOW_SKIPS"),
	}
)

// runtimeFlags are mutually exclusive; exactly one selects the runtime under test.
var runtimeFlags = []cli.Flag{
	RuntimeRPC,
	RuntimeManifest,
	ReferenceRuntime,
}

var optionalFlags = []cli.Flag{
	ValidatorConfig,
	Gate,
	GraphicsAPI,
	GraphicsPlugin,
	ViewConfiguration,
	EnvironmentBlendMode,
	StateTimeout,
	NegativeWindow,
	AllowSkips,
}

var Flags []cli.Flag

// ServeFlags are used by the command that exposes the reference runtime over JSON-RPC.
var ServeFlags []cli.Flag

// ListFlags are used by the command that prints the gates a run would execute.
var ListFlags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(append([]cli.Flag{}, runtimeFlags...), optionalFlags...)

	ServeFlags = append(ServeFlags, GraphicsAPI, EnvironmentBlendMode)
	ServeFlags = append(ServeFlags, oprpc.CLIFlags(EnvVarPrefix)...)
	ServeFlags = append(ServeFlags, oplog.CLIFlags(EnvVarPrefix)...)

	ListFlags = append(ListFlags, ValidatorConfig, Gate)
}

// CheckRequired verifies that exactly one runtime source is selected.
func CheckRequired(ctx *cli.Context) error {
	var set []string
	for _, f := range runtimeFlags {
		name := f.Names()[0]
		if ctx.IsSet(name) {
			set = append(set, name)
		}
	}
	switch len(set) {
	case 0:
		return fmt.Errorf("one of --%s, --%s or --%s is required",
			RuntimeRPC.Name, RuntimeManifest.Name, ReferenceRuntime.Name)
	case 1:
		return nil
	default:
		return fmt.Errorf("flags %v are mutually exclusive", set)
	}
}
