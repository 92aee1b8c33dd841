// Package poller drains a runtime's event queue and picks out session state
// changes.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/countdown"
	"github.com/ethereum-optimism/infra/xr-cts/metrics"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// DefaultInterval is the sleep between empty polls in WaitForNextSessionState.
// It must stay short relative to any deadline passed to the wait.
const DefaultInterval = 5 * time.Millisecond

// ErrNilEvent is returned when the runtime reports success without an event.
var ErrNilEvent = errors.New("xrPollEvent returned XR_SUCCESS without an event")

// Poller reads events for a single instance. It is not safe for concurrent use.
type Poller struct {
	rt       xr.Runtime
	instance xr.Instance
	log      log.Logger
	interval time.Duration
}

// New creates a poller over the event queue of instance.
func New(rt xr.Runtime, instance xr.Instance, log log.Logger) *Poller {
	return &Poller{
		rt:       rt,
		instance: instance,
		log:      log,
		interval: DefaultInterval,
	}
}

// WithInterval overrides the sleep between empty polls.
func (p *Poller) WithInterval(d time.Duration) *Poller {
	if d > 0 {
		p.interval = d
	}
	return p
}

// TryReadEvent performs exactly one non-blocking poll. It returns false when
// the queue is empty and an error when the poll itself fails.
func (p *Poller) TryReadEvent(ctx context.Context) (xr.Event, bool, error) {
	evt, res, err := p.rt.PollEvent(ctx, p.instance)
	if err := xr.Check("xrPollEvent", res, err); err != nil {
		return nil, false, err
	}
	if res != xr.Success {
		return nil, false, nil
	}
	if evt == nil {
		return nil, false, ErrNilEvent
	}
	metrics.RecordEventPolled(string(evt.Type()))
	return evt, true, nil
}

// TryGetNextSessionStateEvent drains the queue until a session state change
// is found or the queue is empty. Events of any other type are discarded.
func (p *Poller) TryGetNextSessionStateEvent(ctx context.Context) (xr.SessionStateChanged, bool, error) {
	for {
		evt, ok, err := p.TryReadEvent(ctx)
		if err != nil || !ok {
			return xr.SessionStateChanged{}, false, err
		}
		if changed, isState := evt.(xr.SessionStateChanged); isState {
			return changed, true, nil
		}
		p.log.Debug("discarding event", "type", evt.Type())
	}
}

// WaitForNextSessionState blocks until a session state change arrives or d
// elapses. An empty result means nothing arrived within d; callers use this
// both to require a transition and to require the absence of one.
func (p *Poller) WaitForNextSessionState(ctx context.Context, d time.Duration) (xr.SessionStateChanged, bool, error) {
	timer := countdown.New(d)
	for !timer.IsTimeUp() {
		evt, ok, err := p.TryGetNextSessionStateEvent(ctx)
		if err != nil {
			return xr.SessionStateChanged{}, false, err
		}
		if ok {
			return evt, true, nil
		}

		select {
		case <-ctx.Done():
			return xr.SessionStateChanged{}, false, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	return xr.SessionStateChanged{}, false, nil
}
