package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/app"
	"github.com/ethereum-optimism/infra/xr-cts/discovery"
	"github.com/ethereum-optimism/infra/xr-cts/exitcodes"
	"github.com/ethereum-optimism/infra/xr-cts/flags"
	"github.com/ethereum-optimism/infra/xr-cts/service"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "xr-cts"
	app.Usage = "XR runtime session state conformance tester"
	app.Description = "xr-cts drives an XR runtime through its session lifecycle and checks every transition"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.Commands = []*cli.Command{
		{
			Name:        "serve-reference",
			Usage:       "Serve the reference runtime over JSON-RPC",
			Description: "Exposes the in-process reference runtime so remote runs can be checked against it",
			Flags:       cliapp.ProtectFlags(flags.ServeFlags),
			Action:      cliapp.LifecycleCmd(serveReference),
		},
		{
			Name:   "list",
			Usage:  "Print the gates, suites and tests a run would execute",
			Flags:  cliapp.ProtectFlags(flags.ListFlags),
			Action: list,
		},
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if cts.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start server
	svc := service.New()
	svc.Start(context.Background())
	defer svc.Shutdown()

	// Start CLI
	ctx := ctxinterrupt.WithSignalWaiterMain(context.Background())
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func setupLogger(ctx *cli.Context) log.Logger {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()
	return log
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	log := setupLogger(ctx)

	cfg, err := cts.NewConfig(ctx, log)
	if err != nil {
		return nil, cts.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "runtime", cfg.RuntimeName, "gate", cfg.TargetGate, "allowSkips", cfg.AllowSkips)

	runner, err := app.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		cfg.Close()
		return nil, cts.NewRuntimeError(fmt.Errorf("failed to create xr-cts: %w", err))
	}
	return runner, nil
}

func list(ctx *cli.Context) error {
	selected, err := app.SelectGates(ctx.String(flags.ValidatorConfig.Name), ctx.String(flags.Gate.Name), log.Root())
	if err != nil {
		return cts.NewRuntimeError(err)
	}
	validators, err := discovery.DiscoverValidators(selected)
	if err != nil {
		return cts.NewRuntimeError(err)
	}
	fmt.Fprint(ctx.App.Writer, discovery.ValidatorHierarchyString(validators))
	return nil
}
