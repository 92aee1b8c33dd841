package rpcbridge

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// API exposes an xr.Runtime as JSON-RPC methods. Runtime result codes are
// part of each reply; an RPC error means the runtime itself returned an error.
type API struct {
	rt  xr.Runtime
	log log.Logger
}

func NewAPI(rt xr.Runtime, log log.Logger) *API {
	return &API{rt: rt, log: log}
}

// APIs returns the bridge as a service list for rpc servers such as the
// op-service one.
func APIs(rt xr.Runtime, log log.Logger) []rpc.API {
	return []rpc.API{{Namespace: Namespace, Service: NewAPI(rt, log)}}
}

// NewServer returns an in-process RPC server bridging rt.
func NewServer(rt xr.Runtime, log log.Logger) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(Namespace, NewAPI(rt, log)); err != nil {
		return nil, fmt.Errorf("failed to register %s API: %w", Namespace, err)
	}
	return srv, nil
}

func (a *API) CreateInstance(ctx context.Context, applicationName string) (InstanceReply, error) {
	inst, res, err := a.rt.CreateInstance(ctx, applicationName)
	return InstanceReply{Instance: inst, Result: res}, err
}

func (a *API) DestroyInstance(ctx context.Context, instance xr.Instance) (xr.Result, error) {
	return a.rt.DestroyInstance(ctx, instance)
}

func (a *API) CreateSession(ctx context.Context, instance xr.Instance, info xr.SessionCreateInfo) (SessionReply, error) {
	sess, res, err := a.rt.CreateSession(ctx, instance, info)
	return SessionReply{Session: sess, Result: res}, err
}

func (a *API) DestroySession(ctx context.Context, session xr.Session) (xr.Result, error) {
	return a.rt.DestroySession(ctx, session)
}

func (a *API) PollEvent(ctx context.Context, instance xr.Instance) (EventReply, error) {
	evt, res, err := a.rt.PollEvent(ctx, instance)
	if err != nil {
		return EventReply{}, err
	}
	reply := EventReply{Result: res}
	if evt != nil {
		if reply.Event, err = EncodeEvent(evt); err != nil {
			a.log.Error("failed to encode event", "type", evt.Type(), "err", err)
			return EventReply{}, err
		}
	}
	return reply, nil
}

func (a *API) BeginSession(ctx context.Context, session xr.Session, info xr.SessionBeginInfo) (xr.Result, error) {
	return a.rt.BeginSession(ctx, session, info)
}

func (a *API) EndSession(ctx context.Context, session xr.Session) (xr.Result, error) {
	return a.rt.EndSession(ctx, session)
}

func (a *API) RequestExitSession(ctx context.Context, session xr.Session) (xr.Result, error) {
	return a.rt.RequestExitSession(ctx, session)
}

func (a *API) WaitFrame(ctx context.Context, session xr.Session) (FrameStateReply, error) {
	state, res, err := a.rt.WaitFrame(ctx, session)
	return FrameStateReply{FrameState: state, Result: res}, err
}

func (a *API) BeginFrame(ctx context.Context, session xr.Session) (xr.Result, error) {
	return a.rt.BeginFrame(ctx, session)
}

func (a *API) EndFrame(ctx context.Context, session xr.Session, info xr.FrameEndInfo) (xr.Result, error) {
	return a.rt.EndFrame(ctx, session, info)
}

func (a *API) EnumerateSwapchainFormats(ctx context.Context, session xr.Session) (FormatsReply, error) {
	formats, res, err := a.rt.EnumerateSwapchainFormats(ctx, session)
	return FormatsReply{Formats: formats, Result: res}, err
}

func (a *API) EnumerateViewConfigurations(ctx context.Context, instance xr.Instance) (ViewConfigurationsReply, error) {
	viewTypes, res, err := a.rt.EnumerateViewConfigurations(ctx, instance)
	return ViewConfigurationsReply{ViewConfigurations: viewTypes, Result: res}, err
}

func (a *API) EnumerateViewConfigurationViews(ctx context.Context, instance xr.Instance, viewType xr.ViewConfigurationType) (ViewConfigurationViewsReply, error) {
	views, res, err := a.rt.EnumerateViewConfigurationViews(ctx, instance, viewType)
	return ViewConfigurationViewsReply{Views: views, Result: res}, err
}

func (a *API) LocateViews(ctx context.Context, session xr.Session, info xr.ViewLocateInfo) (LocateViewsReply, error) {
	state, views, res, err := a.rt.LocateViews(ctx, session, info)
	return LocateViewsReply{ViewState: state, Views: views, Result: res}, err
}
