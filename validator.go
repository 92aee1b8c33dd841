package cts

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

type Validator interface {
	Run(ctx context.Context, log log.Logger, runID string, cfg Config, params interface{}) (ValidatorResult, error)
	Name() string
	Type() string
}

const (
	TypeTest  = "Test"
	TypeSuite = "Suite"
	TypeGate  = "Gate"
)

type ResultType int

const (
	ResultFailed ResultType = iota
	ResultPassed
	ResultSkipped
)

// String provides a string representation of ResultType
func (r ResultType) String() string {
	switch r {
	case ResultPassed:
		return "pass"
	case ResultFailed:
		return "fail"
	case ResultSkipped:
		return "skip"
	default:
		return "unknown"
	}
}

// combine folds child results: any failure fails, otherwise any skip skips.
// An empty set passes.
func combine(results []ValidatorResult) ResultType {
	overall := ResultPassed
	hasSkipped := false
	for _, res := range results {
		switch res.Result {
		case ResultFailed:
			overall = ResultFailed
		case ResultSkipped:
			hasSkipped = true
		}
	}
	if overall == ResultPassed && hasSkipped {
		return ResultSkipped
	}
	return overall
}

type ValidatorResult struct {
	ID         string
	Type       string
	Result     ResultType
	Error      error
	RunID      string
	Duration   time.Duration
	SubResults []ValidatorResult
}
