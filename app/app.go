// Package app runs a configured conformance run as a cliapp.Lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/exitcodes"
	"github.com/ethereum-optimism/infra/xr-cts/metrics"
	"github.com/ethereum-optimism/infra/xr-cts/registry"
	"github.com/ethereum-optimism/infra/xr-cts/runner"
	"github.com/ethereum-optimism/infra/xr-cts/types"
	"github.com/ethereum-optimism/infra/xr-cts/validators/gates"
	"github.com/ethereum-optimism/infra/xr-cts/validators/tests"
)

// app implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &app{}

// Builtin lists the gates used when no validator config is given.
var Builtin = []cts.Gate{gates.Conformance}

type app struct {
	config  *cts.Config
	version string
	runner  runner.TestRunner
	result  *runner.RunnerResult
	out     io.Writer

	running          atomic.Bool
	shutdownCallback func(error)
}

func New(ctx context.Context, config *cts.Config, version string, shutdownCallback func(error)) (*app, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating xr-cts with config",
		"runtime", config.RuntimeName,
		"validatorConfig", config.ValidatorConfig,
		"gate", config.TargetGate)

	selected, err := SelectGates(config.ValidatorConfig, config.TargetGate, config.Log)
	if err != nil {
		return nil, err
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Gates:      selected,
		Config:     *config,
		AllowSkips: config.AllowSkips,
		Log:        config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}
	config.Log.Info("app.New: created test runner", "gates", len(selected))

	return &app{
		config:           config,
		version:          version,
		runner:           testRunner,
		out:              os.Stdout,
		shutdownCallback: shutdownCallback,
	}, nil
}

// SelectGates returns the gates of the validator config, or the builtin
// gates when validatorConfig is empty. A non-empty target narrows either set
// to one gate.
func SelectGates(validatorConfig, target string, log log.Logger) ([]cts.Gate, error) {
	if validatorConfig != "" {
		reg, err := registry.NewRegistry(registry.Config{
			Log:                 log,
			ValidatorConfigFile: validatorConfig,
			Catalog:             tests.Catalog(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create registry: %w", err)
		}
		return reg.BuildGates(target)
	}
	if target == "" {
		return Builtin, nil
	}
	for _, g := range Builtin {
		if g.ID == target {
			return []cts.Gate{g}, nil
		}
	}
	return nil, fmt.Errorf("gate %q not found", target)
}

// Start runs the conformance gates once.
func (a *app) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()
	a.config.Log.Info("Starting xr-cts", "version", a.version)
	a.running.Store(true)

	result, err := a.runner.RunAllTests(ctx)
	if err != nil {
		a.config.Log.Error("Error running tests", "error", err)
		return cts.NewRuntimeError(err)
	}
	a.result = result

	a.printResultsTable()
	fmt.Fprintln(a.out, result.String())
	metrics.RecordAcceptance(
		a.config.RuntimeName,
		result.RunID,
		string(result.Status),
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		result.Duration,
	)
	a.config.Log.Info("xr-cts finished", "run_id", result.RunID, "status", result.Status)

	if result.Status == types.TestStatusFail {
		return cts.NewTestFailureError(fmt.Sprintf("run %s: %d of %d tests failed",
			result.RunID, result.Stats.Failed, result.Stats.Total))
	}

	go a.shutdownCallback(nil)
	return nil
}

// Stop releases the runtime connection.
func (a *app) Stop(ctx context.Context) error {
	if !a.running.Swap(false) {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.config.Close()
	a.config.Log.Info("xr-cts stopped")
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (a *app) Stopped() bool {
	return !a.running.Load()
}

// Result returns the result of the last run, or nil.
func (a *app) Result() *runner.RunnerResult {
	return a.result
}

func (a *app) printResultsTable() {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetTitle(fmt.Sprintf("Conformance Results: %s (%s)", a.config.RuntimeName, formatDuration(a.result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80},
	})

	for _, gate := range a.result.Gates {
		t.AppendRow(table.Row{
			"Gate",
			gate.ID,
			formatDuration(gate.Duration),
			"-",
			gate.Stats.Passed,
			gate.Stats.Failed,
			gate.Stats.Skipped,
			getResultString(gate.Status),
			"",
		})

		for _, suite := range gate.Suites {
			t.AppendRow(table.Row{
				"Suite",
				fmt.Sprintf("├── %s", suite.ID),
				formatDuration(suite.Duration),
				"-",
				suite.Stats.Passed,
				suite.Stats.Failed,
				suite.Stats.Skipped,
				getResultString(suite.Status),
				"",
			})
			for i, test := range suite.Tests {
				prefix := "│   ├──"
				if i == len(suite.Tests)-1 {
					prefix = "│   └──"
				}
				t.AppendRow(testRow(prefix, test))
			}
		}

		for i, test := range gate.Tests {
			prefix := "├──"
			if i == len(gate.Tests)-1 {
				prefix = "└──"
			}
			t.AppendRow(testRow(prefix, test))
		}
		t.AppendSeparator()
	}

	switch a.result.Status {
	case types.TestStatusPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.TestStatusSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(a.result.Duration),
		a.result.Stats.Total,
		a.result.Stats.Passed,
		a.result.Stats.Failed,
		a.result.Stats.Skipped,
		getResultString(a.result.Status),
		"",
	})
	t.Render()
}

func testRow(prefix string, test *runner.TestResult) table.Row {
	return table.Row{
		"Test",
		fmt.Sprintf("%s %s", prefix, test.ID),
		formatDuration(test.Duration),
		"1",
		boolToInt(test.Status == types.TestStatusPass),
		boolToInt(test.Status == types.TestStatusFail),
		boolToInt(test.Status == types.TestStatusSkip),
		getResultString(test.Status),
		test.Error,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
