package cts

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/metrics"
)

var _ Validator = &Gate{}

// A Gate is a collection of suites and/or tests.
type Gate struct {
	ID          string
	Description string
	Validators  []Validator // Validators can be Suites or Tests
	Params      map[string]interface{}
}

// Run runs every validator in the gate. Nested gates are ignored.
// Gate-level params are unused.
func (g Gate) Run(ctx context.Context, log log.Logger, runID string, cfg Config, _ interface{}) (ValidatorResult, error) {
	log.Info("", "type", g.Type(), "id", g.Name())
	start := time.Now()
	results := []ValidatorResult{}
	var allErrors error
	for _, validator := range g.Validators {
		// We don't want Gates to have Gates
		if validator == nil || validator.Type() == TypeGate {
			continue
		}
		if ctx.Err() != nil {
			allErrors = errors.Join(allErrors, ctx.Err())
			break
		}
		res, err := validator.Run(ctx, log, runID, cfg, g.Params[validator.Name()])
		if res.Result == ResultFailed {
			allErrors = errors.Join(allErrors, err, res.subErrors())
		}
		results = append(results, res)
	}
	overall := combine(results)
	if ctx.Err() != nil {
		overall = ResultFailed
	}
	log.Info("", "type", g.Type(), "id", g.Name(), "result", overall, "error", allErrors)
	metrics.RecordValidation(cfg.RuntimeName, runID, g.Name(), g.Type(), overall.String())
	return ValidatorResult{
		ID:         g.ID,
		Type:       g.Type(),
		Result:     overall,
		Error:      allErrors,
		RunID:      runID,
		Duration:   time.Since(start),
		SubResults: results,
	}, nil
}

// subErrors returns the error of a suite result, which Suite.Run does not return.
func (r ValidatorResult) subErrors() error {
	if r.Type == TypeSuite {
		return r.Error
	}
	return nil
}

// Type returns the type name of the gate.
func (g Gate) Type() string {
	return TypeGate
}

// Name returns the id of the gate.
func (g Gate) Name() string {
	return g.ID
}
