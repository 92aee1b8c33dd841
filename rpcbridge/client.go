package rpcbridge

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/net/context"

	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

var _ xr.Runtime = (*Client)(nil)

// Client implements xr.Runtime against a remote bridge.
type Client struct {
	rpc *rpc.Client
	log log.Logger
}

// Dial connects to a bridge over HTTP, WebSocket or IPC.
func Dial(ctx context.Context, url string, log log.Logger) (*Client, error) {
	log.Debug("Dialing runtime bridge", "url", url)
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewClient(c, log), nil
}

func NewClient(c *rpc.Client, log log.Logger) *Client {
	return &Client{rpc: c, log: log}
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return c.rpc.CallContext(ctx, result, Namespace+"_"+method, args...)
}

func (c *Client) CreateInstance(ctx context.Context, applicationName string) (xr.Instance, xr.Result, error) {
	var reply InstanceReply
	if err := c.call(ctx, &reply, "createInstance", applicationName); err != nil {
		return xr.NullHandle, xr.ErrorRuntimeFailure, err
	}
	return reply.Instance, reply.Result, nil
}

func (c *Client) DestroyInstance(ctx context.Context, instance xr.Instance) (xr.Result, error) {
	return c.callResult(ctx, "destroyInstance", instance)
}

func (c *Client) CreateSession(ctx context.Context, instance xr.Instance, info xr.SessionCreateInfo) (xr.Session, xr.Result, error) {
	var reply SessionReply
	if err := c.call(ctx, &reply, "createSession", instance, info); err != nil {
		return xr.NullHandle, xr.ErrorRuntimeFailure, err
	}
	return reply.Session, reply.Result, nil
}

func (c *Client) DestroySession(ctx context.Context, session xr.Session) (xr.Result, error) {
	return c.callResult(ctx, "destroySession", session)
}

func (c *Client) PollEvent(ctx context.Context, instance xr.Instance) (xr.Event, xr.Result, error) {
	var reply EventReply
	if err := c.call(ctx, &reply, "pollEvent", instance); err != nil {
		return nil, xr.ErrorRuntimeFailure, err
	}
	if len(reply.Event) == 0 || string(reply.Event) == "null" {
		return nil, reply.Result, nil
	}
	evt, err := DecodeEvent(reply.Event)
	if err != nil {
		c.log.Warn("undecodable event from runtime", "event", string(reply.Event), "err", err)
		return nil, xr.ErrorRuntimeFailure, err
	}
	return evt, reply.Result, nil
}

func (c *Client) BeginSession(ctx context.Context, session xr.Session, info xr.SessionBeginInfo) (xr.Result, error) {
	return c.callResult(ctx, "beginSession", session, info)
}

func (c *Client) EndSession(ctx context.Context, session xr.Session) (xr.Result, error) {
	return c.callResult(ctx, "endSession", session)
}

func (c *Client) RequestExitSession(ctx context.Context, session xr.Session) (xr.Result, error) {
	return c.callResult(ctx, "requestExitSession", session)
}

func (c *Client) WaitFrame(ctx context.Context, session xr.Session) (xr.FrameState, xr.Result, error) {
	var reply FrameStateReply
	if err := c.call(ctx, &reply, "waitFrame", session); err != nil {
		return xr.FrameState{}, xr.ErrorRuntimeFailure, err
	}
	return reply.FrameState, reply.Result, nil
}

func (c *Client) BeginFrame(ctx context.Context, session xr.Session) (xr.Result, error) {
	return c.callResult(ctx, "beginFrame", session)
}

func (c *Client) EndFrame(ctx context.Context, session xr.Session, info xr.FrameEndInfo) (xr.Result, error) {
	return c.callResult(ctx, "endFrame", session, info)
}

func (c *Client) EnumerateSwapchainFormats(ctx context.Context, session xr.Session) ([]int64, xr.Result, error) {
	var reply FormatsReply
	if err := c.call(ctx, &reply, "enumerateSwapchainFormats", session); err != nil {
		return nil, xr.ErrorRuntimeFailure, err
	}
	return reply.Formats, reply.Result, nil
}

func (c *Client) EnumerateViewConfigurations(ctx context.Context, instance xr.Instance) ([]xr.ViewConfigurationType, xr.Result, error) {
	var reply ViewConfigurationsReply
	if err := c.call(ctx, &reply, "enumerateViewConfigurations", instance); err != nil {
		return nil, xr.ErrorRuntimeFailure, err
	}
	return reply.ViewConfigurations, reply.Result, nil
}

func (c *Client) EnumerateViewConfigurationViews(ctx context.Context, instance xr.Instance, viewType xr.ViewConfigurationType) ([]xr.ViewConfigurationView, xr.Result, error) {
	var reply ViewConfigurationViewsReply
	if err := c.call(ctx, &reply, "enumerateViewConfigurationViews", instance, viewType); err != nil {
		return nil, xr.ErrorRuntimeFailure, err
	}
	return reply.Views, reply.Result, nil
}

func (c *Client) LocateViews(ctx context.Context, session xr.Session, info xr.ViewLocateInfo) (xr.ViewStateFlags, []xr.View, xr.Result, error) {
	var reply LocateViewsReply
	if err := c.call(ctx, &reply, "locateViews", session, info); err != nil {
		return 0, nil, xr.ErrorRuntimeFailure, err
	}
	return reply.ViewState, reply.Views, reply.Result, nil
}

func (c *Client) callResult(ctx context.Context, method string, args ...interface{}) (xr.Result, error) {
	var res xr.Result
	if err := c.call(ctx, &res, method, args...); err != nil {
		return xr.ErrorRuntimeFailure, err
	}
	return res, nil
}
