package xr

// EventType discriminates the variants of Event.
type EventType string

const (
	EventTypeSessionStateChanged         EventType = "session_state_changed"
	EventTypeEventsLost                  EventType = "events_lost"
	EventTypeInstanceLossPending         EventType = "instance_loss_pending"
	EventTypeInteractionProfileChanged   EventType = "interaction_profile_changed"
	EventTypeReferenceSpaceChangePending EventType = "reference_space_change_pending"
)

// Event is one record read from a runtime's event queue. The set of
// implementations is closed; switch on the concrete type.
type Event interface {
	Type() EventType
	event()
}

// SessionStateChanged reports that a session entered State at Time.
type SessionStateChanged struct {
	Session Session      `json:"session"`
	State   SessionState `json:"state"`
	Time    Time         `json:"time"`
}

// EventsLost reports that the runtime's queue overflowed.
type EventsLost struct {
	LostCount uint32 `json:"lostCount"`
}

// InstanceLossPending reports that the instance will be lost at LossTime.
type InstanceLossPending struct {
	LossTime Time `json:"lossTime"`
}

// InteractionProfileChanged reports a change of active interaction profile.
type InteractionProfileChanged struct {
	Session Session `json:"session"`
}

// ReferenceSpaceChangePending reports an upcoming reference space change.
type ReferenceSpaceChangePending struct {
	Session            Session            `json:"session"`
	ReferenceSpaceType ReferenceSpaceType `json:"referenceSpaceType"`
	ChangeTime         Time               `json:"changeTime"`
}

func (SessionStateChanged) Type() EventType         { return EventTypeSessionStateChanged }
func (EventsLost) Type() EventType                  { return EventTypeEventsLost }
func (InstanceLossPending) Type() EventType         { return EventTypeInstanceLossPending }
func (InteractionProfileChanged) Type() EventType   { return EventTypeInteractionProfileChanged }
func (ReferenceSpaceChangePending) Type() EventType { return EventTypeReferenceSpaceChangePending }

func (SessionStateChanged) event()         {}
func (EventsLost) event()                  {}
func (InstanceLossPending) event()         {}
func (InteractionProfileChanged) event()   {}
func (ReferenceSpaceChangePending) event() {}
