package verifier

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/xr-cts/metrics"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// BeginSession calls begin-session with the configured view configuration
// and requires the runtime to return want.
func (v *Verifier) BeginSession(ctx context.Context, want xr.Result) error {
	start := time.Now()
	res, err := v.rt.BeginSession(ctx, v.session, xr.SessionBeginInfo{PrimaryViewConfigurationType: v.opts.ViewConfiguration})
	if err := v.expectResult("xrBeginSession", want, res, err, start); err != nil {
		return err
	}
	if res == xr.Success {
		v.running = true
	}
	return nil
}

// EndSession calls end-session and requires the runtime to return want.
func (v *Verifier) EndSession(ctx context.Context, want xr.Result) error {
	start := time.Now()
	res, err := v.rt.EndSession(ctx, v.session)
	if err := v.expectResult("xrEndSession", want, res, err, start); err != nil {
		return err
	}
	if res == xr.Success {
		v.running = false
	}
	return nil
}

// RequestExitSession calls request-exit-session and requires the runtime to
// return want.
func (v *Verifier) RequestExitSession(ctx context.Context, want xr.Result) error {
	start := time.Now()
	res, err := v.rt.RequestExitSession(ctx, v.session)
	return v.expectResult("xrRequestExitSession", want, res, err, start)
}

// WaitFrame calls wait-frame outside of a frame cycle and requires the
// runtime to return want. A successful wait leaves a frame pending, which the
// runtime discards at the next begin-frame.
func (v *Verifier) WaitFrame(ctx context.Context, want xr.Result) error {
	start := time.Now()
	_, res, err := v.rt.WaitFrame(ctx, v.session)
	return v.expectResult("xrWaitFrame", want, res, err, start)
}

func (v *Verifier) expectResult(call string, want, got xr.Result, err error, start time.Time) error {
	if err != nil {
		return xr.Check(call, got, err)
	}
	check := checkLabel(call + " " + want.String())
	if got != want {
		metrics.RecordContractCheck(check, "fail")
		v.log.Warn("unexpected result", "call", call, "want", want, "got", got, "state", v.state)
		return &AssertionError{Op: call, Expected: want.String(), Actual: got.String(), Elapsed: time.Since(start)}
	}
	metrics.RecordContractCheck(check, "pass")
	v.log.Debug("call returned expected result", "call", call, "result", got, "state", v.state)
	return nil
}

// checkLabel turns a free-form description into a metric label value.
func checkLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "_"))
}
