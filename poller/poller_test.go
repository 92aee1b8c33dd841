package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/xr-cts/simruntime"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// queueRuntime serves a fixed sequence of poll outcomes.
type queueRuntime struct {
	*simruntime.Runtime
	polls []pollOutcome
	calls int
}

type pollOutcome struct {
	evt xr.Event
	res xr.Result
	err error
}

func (q *queueRuntime) PollEvent(context.Context, xr.Instance) (xr.Event, xr.Result, error) {
	q.calls++
	if len(q.polls) == 0 {
		return nil, xr.EventUnavailable, nil
	}
	next := q.polls[0]
	q.polls = q.polls[1:]
	return next.evt, next.res, next.err
}

func newQueue(polls ...pollOutcome) *queueRuntime {
	return &queueRuntime{Runtime: simruntime.New(simruntime.Options{}), polls: polls}
}

func stateEvent(s xr.SessionState) pollOutcome {
	return pollOutcome{evt: xr.SessionStateChanged{Session: 1, State: s}, res: xr.Success}
}

func TestTryReadEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("empty queue", func(t *testing.T) {
		q := newQueue()
		evt, ok, err := New(q, 1, log.New()).TryReadEvent(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, evt)
		assert.Equal(t, 1, q.calls, "must poll exactly once")
	})

	t.Run("returns the pending event", func(t *testing.T) {
		q := newQueue(stateEvent(xr.SessionStateIdle))
		evt, ok, err := New(q, 1, log.New()).TryReadEvent(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, xr.SessionStateChanged{Session: 1, State: xr.SessionStateIdle}, evt)
	})

	t.Run("failed poll is fatal", func(t *testing.T) {
		q := newQueue(pollOutcome{res: xr.ErrorHandleInvalid})
		_, _, err := New(q, 1, log.New()).TryReadEvent(ctx)
		res, ok := xr.ResultOf(err)
		require.True(t, ok)
		assert.Equal(t, xr.ErrorHandleInvalid, res)
	})

	t.Run("transport error is fatal", func(t *testing.T) {
		boom := errors.New("boom")
		q := newQueue(pollOutcome{err: boom})
		_, _, err := New(q, 1, log.New()).TryReadEvent(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("success without event", func(t *testing.T) {
		q := newQueue(pollOutcome{res: xr.Success})
		_, _, err := New(q, 1, log.New()).TryReadEvent(ctx)
		assert.ErrorIs(t, err, ErrNilEvent)
	})
}

func TestTryGetNextSessionStateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("skips unrelated events", func(t *testing.T) {
		q := newQueue(
			pollOutcome{evt: xr.EventsLost{LostCount: 3}, res: xr.Success},
			pollOutcome{evt: xr.InteractionProfileChanged{Session: 1}, res: xr.Success},
			stateEvent(xr.SessionStateReady),
			stateEvent(xr.SessionStateSynchronized),
		)
		p := New(q, 1, log.New())

		evt, ok, err := p.TryGetNextSessionStateEvent(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, xr.SessionStateReady, evt.State)
		assert.Equal(t, 3, q.calls)

		evt, ok, err = p.TryGetNextSessionStateEvent(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, xr.SessionStateSynchronized, evt.State)
	})

	t.Run("drained queue yields nothing", func(t *testing.T) {
		q := newQueue(pollOutcome{evt: xr.EventsLost{}, res: xr.Success})
		_, ok, err := New(q, 1, log.New()).TryGetNextSessionStateEvent(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 2, q.calls)
	})
}

func TestWaitForNextSessionState(t *testing.T) {
	ctx := context.Background()

	t.Run("returns once an event arrives", func(t *testing.T) {
		q := newQueue(
			pollOutcome{res: xr.EventUnavailable},
			pollOutcome{res: xr.EventUnavailable},
			stateEvent(xr.SessionStateIdle),
		)
		evt, ok, err := New(q, 1, log.New()).WithInterval(time.Millisecond).WaitForNextSessionState(ctx, time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, xr.SessionStateIdle, evt.State)
	})

	t.Run("times out when nothing arrives", func(t *testing.T) {
		q := newQueue()
		start := time.Now()
		_, ok, err := New(q, 1, log.New()).WaitForNextSessionState(ctx, 30*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Greater(t, q.calls, 1, "should keep polling until the deadline")
	})

	t.Run("zero deadline does not poll", func(t *testing.T) {
		q := newQueue(stateEvent(xr.SessionStateIdle))
		_, ok, err := New(q, 1, log.New()).WaitForNextSessionState(ctx, 0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, q.calls)
	})

	t.Run("context cancellation aborts", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, ok, err := New(newQueue(), 1, log.New()).WaitForNextSessionState(cctx, time.Second)
		assert.False(t, ok)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("poll failure stops the wait", func(t *testing.T) {
		q := newQueue(pollOutcome{res: xr.ErrorInstanceLost})
		_, ok, err := New(q, 1, log.New()).WaitForNextSessionState(ctx, time.Second)
		assert.False(t, ok)
		assert.Error(t, err)
	})
}
