package cts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/metrics"
)

var _ Validator = &Test{}

// TestFn runs one scenario. Returning an error wrapping ErrSkip marks the
// test as skipped.
type TestFn func(ctx context.Context, log log.Logger, cfg Config, params interface{}) (bool, error)

type Test struct {
	ID            string
	Description   string
	DefaultParams interface{}
	Fn            TestFn
}

func (t Test) Run(ctx context.Context, log log.Logger, runID string, cfg Config, params interface{}) (ValidatorResult, error) {
	if t.Fn == nil {
		return ValidatorResult{
			ID:     t.ID,
			Type:   t.Type(),
			Result: ResultFailed,
			RunID:  runID,
		}, fmt.Errorf("test function is nil")
	}

	// Use default params if none provided
	testParams := t.DefaultParams
	if params != nil {
		testParams = params
	}

	log = log.New("type", t.Type(), "id", t.Name())
	log.Info("running", "params", testParams)
	start := time.Now()
	passed, err := t.Fn(ctx, log, cfg, testParams)
	duration := time.Since(start)

	result := ResultFailed
	switch {
	case errors.Is(err, ErrSkip):
		result = ResultSkipped
	case err == nil && passed:
		result = ResultPassed
	}
	log.Info("finished", "result", result, "duration", duration, "error", err)

	metrics.RecordValidation(cfg.RuntimeName, runID, t.Name(), t.Type(), result.String())
	if result == ResultFailed && err != nil {
		metrics.RecordErrorDetails(t.Name(), err)
	}

	return ValidatorResult{
		ID:       t.ID,
		Type:     t.Type(),
		Result:   result,
		Error:    err,
		RunID:    runID,
		Duration: duration,
	}, err
}

// Name returns the id of the test.
func (t Test) Name() string {
	return t.ID
}

// Type returns the type name of the test.
func (t Test) Type() string {
	return TypeTest
}
