package rpcbridge

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// Namespace is the JSON-RPC namespace the bridge methods live under, so
// PollEvent is called as "xr_pollEvent".
const Namespace = "xr"

type InstanceReply struct {
	Instance xr.Instance `json:"instance"`
	Result   xr.Result   `json:"result"`
}

type SessionReply struct {
	Session xr.Session `json:"session"`
	Result  xr.Result  `json:"result"`
}

// EventReply carries an encoded event, or no event when the queue was empty.
type EventReply struct {
	Event  json.RawMessage `json:"event,omitempty"`
	Result xr.Result       `json:"result"`
}

type FrameStateReply struct {
	FrameState xr.FrameState `json:"frameState"`
	Result     xr.Result     `json:"result"`
}

type FormatsReply struct {
	Formats []int64   `json:"formats"`
	Result  xr.Result `json:"result"`
}

type ViewConfigurationsReply struct {
	ViewConfigurations []xr.ViewConfigurationType `json:"viewConfigurations"`
	Result             xr.Result                  `json:"result"`
}

type ViewConfigurationViewsReply struct {
	Views  []xr.ViewConfigurationView `json:"views"`
	Result xr.Result                  `json:"result"`
}

type LocateViewsReply struct {
	ViewState xr.ViewStateFlags `json:"viewState"`
	Views     []xr.View         `json:"views"`
	Result    xr.Result         `json:"result"`
}

// EncodeEvent flattens evt into a JSON object tagged with its type, e.g.
// {"type":"session_state_changed","session":1,"state":"READY","time":42}.
func EncodeEvent(evt xr.Event) (json.RawMessage, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(evt.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(data json.RawMessage) (xr.Event, error) {
	var tag struct {
		Type xr.EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	var (
		evt xr.Event
		err error
	)
	switch tag.Type {
	case xr.EventTypeSessionStateChanged:
		evt, err = decodeAs[xr.SessionStateChanged](data)
	case xr.EventTypeEventsLost:
		evt, err = decodeAs[xr.EventsLost](data)
	case xr.EventTypeInstanceLossPending:
		evt, err = decodeAs[xr.InstanceLossPending](data)
	case xr.EventTypeInteractionProfileChanged:
		evt, err = decodeAs[xr.InteractionProfileChanged](data)
	case xr.EventTypeReferenceSpaceChangePending:
		evt, err = decodeAs[xr.ReferenceSpaceChangePending](data)
	default:
		return nil, fmt.Errorf("unknown event type %q", tag.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s event: %w", tag.Type, err)
	}
	return evt, nil
}

func decodeAs[T xr.Event](data json.RawMessage) (xr.Event, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
