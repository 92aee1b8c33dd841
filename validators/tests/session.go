package tests

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/fixture"
)

// withSession runs fn against a fresh fixture session and tears it down
// afterwards. A teardown failure fails an otherwise passing test.
func withSession(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}, setup fixture.Flags, fn func(*fixture.Session) error) (bool, error) {
	s, err := cfg.NewSession(ctx, params, setup, log)
	if err != nil {
		return false, err
	}
	err = fn(s)
	if closeErr := s.Close(ctx); closeErr != nil {
		log.Warn("session teardown failed", "err", closeErr)
		if err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
