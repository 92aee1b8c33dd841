// Package frame drives one cycle of the wait/begin/end frame loop.
package frame

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/metrics"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// Renderer produces the layers of one frame. It is called between
// begin-frame and end-frame and returns the number of layers it submitted.
type Renderer interface {
	Render(ctx context.Context, state xr.FrameState) (uint32, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, state xr.FrameState) (uint32, error)

func (f RendererFunc) Render(ctx context.Context, state xr.FrameState) (uint32, error) {
	return f(ctx, state)
}

// Driver submits frames on a single session.
type Driver struct {
	rt        xr.Runtime
	session   xr.Session
	blendMode xr.EnvironmentBlendMode
	renderer  Renderer
	log       log.Logger

	frames int
	last   xr.FrameState
}

// NewDriver creates a frame driver. renderer may be nil, in which case frames
// are ended with no layers.
func NewDriver(rt xr.Runtime, session xr.Session, blendMode xr.EnvironmentBlendMode, renderer Renderer, log log.Logger) *Driver {
	return &Driver{
		rt:        rt,
		session:   session,
		blendMode: blendMode,
		renderer:  renderer,
		log:       log,
	}
}

// SubmitFrame runs wait-frame, begin-frame and end-frame once, ending the
// frame at the predicted display time. A failed result from any call is
// returned as an *xr.ResultError naming that call.
func (d *Driver) SubmitFrame(ctx context.Context) error {
	err := d.submit(ctx)
	if res, ok := xr.ResultOf(err); ok {
		metrics.RecordFrameSubmitted(res.String())
	} else if err != nil {
		metrics.RecordFrameSubmitted("error")
	} else {
		metrics.RecordFrameSubmitted("ok")
	}
	return err
}

func (d *Driver) submit(ctx context.Context) error {
	state, res, err := d.rt.WaitFrame(ctx, d.session)
	if err := xr.Check("xrWaitFrame", res, err); err != nil {
		return err
	}
	d.last = state

	res, err = d.rt.BeginFrame(ctx, d.session)
	if err := xr.Check("xrBeginFrame", res, err); err != nil {
		return err
	}
	if res == xr.FrameDiscarded {
		d.log.Trace("previous frame discarded", "session", d.session)
	}

	var layers uint32
	if d.renderer != nil && state.ShouldRender {
		if layers, err = d.renderer.Render(ctx, state); err != nil {
			return err
		}
	}

	res, err = d.rt.EndFrame(ctx, d.session, xr.FrameEndInfo{
		DisplayTime:          state.PredictedDisplayTime,
		EnvironmentBlendMode: d.blendMode,
		LayerCount:           layers,
	})
	if err := xr.Check("xrEndFrame", res, err); err != nil {
		return err
	}

	d.frames++
	d.log.Trace("frame submitted", "session", d.session, "frame", d.frames, "display_time", state.PredictedDisplayTime)
	return nil
}

// Frames returns the number of frames fully submitted.
func (d *Driver) Frames() int {
	return d.frames
}

// LastFrameState returns the frame state of the most recent wait-frame.
func (d *Driver) LastFrameState() xr.FrameState {
	return d.last
}
