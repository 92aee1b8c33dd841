package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/types"
)

// TestResult captures the outcome of a single test run
type TestResult struct {
	ID          string
	Description string
	Status      types.TestStatus
	Error       string
	Duration    time.Duration
}

// SuiteResult captures aggregated results for a test suite
type SuiteResult struct {
	ID          string
	Description string
	Tests       []*TestResult
	Status      types.TestStatus
	Duration    time.Duration
	Stats       ResultStats
}

// GateResult captures aggregated results for a gate
type GateResult struct {
	ID          string
	Description string
	Tests       []*TestResult  // Direct gate tests
	Suites      []*SuiteResult // Test suites
	Status      types.TestStatus
	Duration    time.Duration
	Stats       ResultStats
}

// RunnerResult captures the complete test run results
type RunnerResult struct {
	RunID    string
	Gates    []*GateResult
	Status   types.TestStatus
	Duration time.Duration
	Stats    ResultStats
}

// ResultStats tracks test statistics at each level
type ResultStats struct {
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

// TestRunner defines the interface for running conformance tests
type TestRunner interface {
	RunAllTests(ctx context.Context) (*RunnerResult, error)
}

type runner struct {
	gates      []cts.Gate
	config     cts.Config
	allowSkips bool
	log        log.Logger
}

type Config struct {
	Gates []cts.Gate
	// Config is handed to every test.
	Config cts.Config
	// AllowSkips reports unmet preconditions as skips instead of failures.
	AllowSkips bool
	Log        log.Logger
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if len(cfg.Gates) == 0 {
		return nil, fmt.Errorf("no gates to run")
	}
	if cfg.Config.Runtime == nil {
		return nil, fmt.Errorf("runtime is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	ids := make([]string, 0, len(cfg.Gates))
	for _, g := range cfg.Gates {
		ids = append(ids, g.ID)
	}
	cfg.Log.Info("NewTestRunner()", "gates", ids, "runtime", cfg.Config.RuntimeName, "allowSkips", cfg.AllowSkips)

	return &runner{
		gates:      cfg.Gates,
		config:     cfg.Config,
		allowSkips: cfg.AllowSkips,
		log:        cfg.Log,
	}, nil
}

// RunAllTests implements the TestRunner interface
func (r *runner) RunAllTests(ctx context.Context) (*RunnerResult, error) {
	start := time.Now()
	result := &RunnerResult{
		RunID: uuid.New().String(),
		Stats: ResultStats{StartTime: start},
	}
	r.log.Debug("Running all tests", "run_id", result.RunID)

	for _, gate := range r.gates {
		gateResult, err := r.processGate(ctx, gate, result)
		if err != nil {
			return nil, fmt.Errorf("processing gate %s: %w", gate.ID, err)
		}
		result.Gates = append(result.Gates, gateResult)
	}

	result.Duration = time.Since(start)
	result.Status = determineRunnerStatus(result)
	result.Stats.EndTime = time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// processGate runs a single gate and folds its result tree into stats
func (r *runner) processGate(ctx context.Context, gate cts.Gate, result *RunnerResult) (*GateResult, error) {
	gateStart := time.Now()
	gateResult := &GateResult{
		ID:          gate.ID,
		Description: gate.Description,
		Stats:       ResultStats{StartTime: gateStart},
	}

	res, err := gate.Run(ctx, r.log, result.RunID, r.config, nil)
	if err != nil {
		return nil, err
	}

	descriptions := describe(gate)
	for _, sub := range res.SubResults {
		switch sub.Type {
		case cts.TypeSuite:
			suiteResult := &SuiteResult{
				ID:          sub.ID,
				Description: descriptions[sub.ID],
				Duration:    sub.Duration,
			}
			for _, tr := range sub.SubResults {
				testResult := r.testResult(tr, descriptions[tr.ID])
				suiteResult.Tests = append(suiteResult.Tests, testResult)
				result.updateStats(gateResult, suiteResult, testResult)
			}
			suiteResult.Status = determineSuiteStatus(suiteResult)
			gateResult.Suites = append(gateResult.Suites, suiteResult)
		case cts.TypeTest:
			testResult := r.testResult(sub, descriptions[sub.ID])
			gateResult.Tests = append(gateResult.Tests, testResult)
			result.updateStats(gateResult, nil, testResult)
		}
	}

	gateResult.Duration = time.Since(gateStart)
	gateResult.Status = determineGateStatus(gateResult)
	gateResult.Stats.EndTime = time.Now()
	return gateResult, nil
}

func (r *runner) testResult(res cts.ValidatorResult, description string) *TestResult {
	tr := &TestResult{
		ID:          res.ID,
		Description: description,
		Duration:    res.Duration,
	}
	if res.Error != nil {
		tr.Error = res.Error.Error()
	}
	switch res.Result {
	case cts.ResultPassed:
		tr.Status = types.TestStatusPass
	case cts.ResultSkipped:
		tr.Status = types.TestStatusSkip
		if !r.allowSkips {
			tr.Status = types.TestStatusFail
			tr.Error = "precondition not met (skips not allowed): " + tr.Error
		}
	default:
		tr.Status = types.TestStatusFail
		if res.Error != nil && errors.Is(res.Error, context.Canceled) {
			tr.Error = "canceled: " + tr.Error
		}
	}
	return tr
}

// describe maps suite and test IDs of a gate to their descriptions.
func describe(gate cts.Gate) map[string]string {
	d := make(map[string]string)
	for _, v := range gate.Validators {
		switch v := v.(type) {
		case cts.Suite:
			d[v.ID] = v.Description
			for _, t := range v.Tests {
				d[t.ID] = t.Description
			}
		case *cts.Suite:
			d[v.ID] = v.Description
			for _, t := range v.Tests {
				d[t.ID] = t.Description
			}
		case cts.Test:
			d[v.ID] = v.Description
		case *cts.Test:
			d[v.ID] = v.Description
		}
	}
	return d
}

// determineGateStatus determines the overall status of a gate based on its tests and suites
func determineGateStatus(gate *GateResult) types.TestStatus {
	if len(gate.Tests) == 0 && len(gate.Suites) == 0 {
		return types.TestStatusSkip
	}

	allSkipped := true
	anyFailed := false
	for _, test := range gate.Tests {
		if test.Status != types.TestStatusSkip {
			allSkipped = false
		}
		if test.Status == types.TestStatusFail {
			anyFailed = true
		}
	}
	for _, suite := range gate.Suites {
		if suite.Status != types.TestStatusSkip {
			allSkipped = false
		}
		if suite.Status == types.TestStatusFail {
			anyFailed = true
		}
	}
	return determineStatusFromFlags(allSkipped, anyFailed)
}

// determineRunnerStatus determines the overall status of the test run
func determineRunnerStatus(result *RunnerResult) types.TestStatus {
	if len(result.Gates) == 0 {
		return types.TestStatusSkip
	}

	allSkipped := true
	anyFailed := false
	for _, gate := range result.Gates {
		if gate.Status != types.TestStatusSkip {
			allSkipped = false
		}
		if gate.Status == types.TestStatusFail {
			anyFailed = true
		}
	}
	return determineStatusFromFlags(allSkipped, anyFailed)
}

// determineSuiteStatus determines the overall status of a suite based on its tests
func determineSuiteStatus(suite *SuiteResult) types.TestStatus {
	if len(suite.Tests) == 0 {
		return types.TestStatusSkip
	}

	allSkipped := true
	anyFailed := false
	for _, test := range suite.Tests {
		if test.Status != types.TestStatusSkip {
			allSkipped = false
		}
		if test.Status == types.TestStatusFail {
			anyFailed = true
		}
	}
	return determineStatusFromFlags(allSkipped, anyFailed)
}

func determineStatusFromFlags(allSkipped, anyFailed bool) types.TestStatus {
	if allSkipped {
		return types.TestStatusSkip
	}
	if anyFailed {
		return types.TestStatusFail
	}
	return types.TestStatusPass
}

// formatDuration formats the duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// String returns a formatted string representation of the test results
func (r *RunnerResult) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Test Run Results (%s) [%s]:\n", formatDuration(r.Duration), r.RunID))
	b.WriteString(fmt.Sprintf("Status: %s, Total: %d, Passed: %d, Failed: %d, Skipped: %d\n",
		r.Status, r.Stats.Total, r.Stats.Passed, r.Stats.Failed, r.Stats.Skipped))

	for _, gate := range r.Gates {
		b.WriteString(fmt.Sprintf("\nGate: %s (%s)\n", gate.ID, formatDuration(gate.Duration)))
		b.WriteString(fmt.Sprintf("├── Status: %s\n", gate.Status))
		b.WriteString(fmt.Sprintf("├── Tests: %d passed, %d failed, %d skipped\n",
			gate.Stats.Passed, gate.Stats.Failed, gate.Stats.Skipped))

		for _, test := range gate.Tests {
			b.WriteString(fmt.Sprintf("├── Test: %s (%s) [%s]\n", test.ID, formatDuration(test.Duration), test.Status))
			if test.Error != "" {
				b.WriteString(fmt.Sprintf("│       └── Error: %s\n", test.Error))
			}
		}

		for _, suite := range gate.Suites {
			b.WriteString(fmt.Sprintf("└── Suite: %s (%s)\n", suite.ID, formatDuration(suite.Duration)))
			b.WriteString(fmt.Sprintf("    ├── Status: %s\n", suite.Status))
			b.WriteString(fmt.Sprintf("    ├── Tests: %d passed, %d failed, %d skipped\n",
				suite.Stats.Passed, suite.Stats.Failed, suite.Stats.Skipped))

			for _, test := range suite.Tests {
				b.WriteString(fmt.Sprintf("    ├── Test: %s (%s) [%s]\n", test.ID, formatDuration(test.Duration), test.Status))
				if test.Error != "" {
					b.WriteString(fmt.Sprintf("    │       └── Error: %s\n", test.Error))
				}
			}
		}
	}
	return b.String()
}

// updateStats counts a test at every level it belongs to
func (r *RunnerResult) updateStats(gate *GateResult, suite *SuiteResult, test *TestResult) {
	if suite != nil {
		suite.Stats.add(test.Status)
	}
	gate.Stats.add(test.Status)
	r.Stats.add(test.Status)
}

func (s *ResultStats) add(status types.TestStatus) {
	s.Total++
	switch status {
	case types.TestStatusPass:
		s.Passed++
	case types.TestStatusSkip:
		s.Skipped++
	default:
		s.Failed++
	}
}
