package cts

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/metrics"
)

var _ Validator = &Suite{}

// A Suite is a collection of tests.
type Suite struct {
	ID          string
	Description string
	Tests       []Test
	TestsParams map[string]interface{}
}

// Run runs all the tests in the suite, in order, without stopping at the
// first failure. Test errors are carried in the result; the returned error
// is reserved for the suite itself. Suite-level params are unused.
func (s Suite) Run(ctx context.Context, log log.Logger, runID string, cfg Config, _ interface{}) (ValidatorResult, error) {
	log.Info("", "type", s.Type(), "id", s.Name())
	start := time.Now()
	results := []ValidatorResult{}
	var allErrors error
	for _, test := range s.Tests {
		if ctx.Err() != nil {
			allErrors = errors.Join(allErrors, ctx.Err())
			break
		}
		res, err := test.Run(ctx, log, runID, cfg, s.TestsParams[test.ID])
		if res.Result == ResultFailed {
			allErrors = errors.Join(allErrors, err)
		}
		results = append(results, res)
	}
	overall := combine(results)
	if ctx.Err() != nil {
		overall = ResultFailed
	}
	log.Info("", "type", s.Type(), "id", s.Name(), "result", overall, "error", allErrors)
	metrics.RecordValidation(cfg.RuntimeName, runID, s.Name(), s.Type(), overall.String())
	return ValidatorResult{
		ID:         s.ID,
		Type:       s.Type(),
		Result:     overall,
		Error:      allErrors,
		RunID:      runID,
		Duration:   time.Since(start),
		SubResults: results,
	}, nil
}

// Name returns the id of the suite.
func (s Suite) Name() string {
	return s.ID
}

// Type returns the type name of the suite.
func (s Suite) Type() string {
	return TypeSuite
}
