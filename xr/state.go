// Package xr models the subset of the XR platform API that the conformance
// tester drives: handles, session states, result codes, events and the
// Runtime interface implemented by the runtime under test.
package xr

import (
	"encoding/json"
	"fmt"
)

// Instance is an opaque runtime-owned instance handle.
type Instance uint64

// Session is an opaque runtime-owned session handle.
type Session uint64

// NullHandle is the value of a handle that refers to nothing.
const NullHandle = 0

// Time is a runtime timestamp in nanoseconds.
type Time int64

// SessionState is the lifecycle state of a session.
type SessionState int32

const (
	SessionStateUnknown      SessionState = 0
	SessionStateIdle         SessionState = 1
	SessionStateReady        SessionState = 2
	SessionStateSynchronized SessionState = 3
	SessionStateVisible      SessionState = 4
	SessionStateFocused      SessionState = 5
	SessionStateStopping     SessionState = 6
	SessionStateLossPending  SessionState = 7
	SessionStateExiting      SessionState = 8
)

var sessionStateNames = map[SessionState]string{
	SessionStateUnknown:      "UNKNOWN",
	SessionStateIdle:         "IDLE",
	SessionStateReady:        "READY",
	SessionStateSynchronized: "SYNCHRONIZED",
	SessionStateVisible:      "VISIBLE",
	SessionStateFocused:      "FOCUSED",
	SessionStateStopping:     "STOPPING",
	SessionStateLossPending:  "LOSS_PENDING",
	SessionStateExiting:      "EXITING",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SessionState(%d)", int32(s))
}

// ParseSessionState returns the state named by s, as printed by String.
func ParseSessionState(s string) (SessionState, error) {
	for state, name := range sessionStateNames {
		if name == s {
			return state, nil
		}
	}
	return SessionStateUnknown, fmt.Errorf("unknown session state %q", s)
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	state, err := ParseSessionState(name)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// IsRunning reports whether a session in state s is expected to accept
// frame calls, i.e. it has been begun and not yet ended.
func (s SessionState) IsRunning() bool {
	switch s {
	case SessionStateSynchronized, SessionStateVisible, SessionStateFocused, SessionStateStopping:
		return true
	}
	return false
}

// transitions lists the legal successor states of each state.
// Any state may additionally move to LOSS_PENDING.
var transitions = map[SessionState][]SessionState{
	SessionStateUnknown:      {SessionStateIdle},
	SessionStateIdle:         {SessionStateReady, SessionStateExiting},
	SessionStateReady:        {SessionStateSynchronized},
	SessionStateSynchronized: {SessionStateVisible, SessionStateStopping},
	SessionStateVisible:      {SessionStateFocused, SessionStateSynchronized},
	SessionStateFocused:      {SessionStateVisible},
	SessionStateStopping:     {SessionStateIdle},
	SessionStateLossPending:  {},
	SessionStateExiting:      {},
}

// ValidTransition reports whether a runtime may move a session directly
// from one state to the next without skipping any state in between.
func ValidTransition(from, to SessionState) bool {
	if to == SessionStateLossPending {
		return from != SessionStateExiting
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ForwardSequence is the order a newly created session must pass through
// to reach FOCUSED.
var ForwardSequence = []SessionState{
	SessionStateIdle,
	SessionStateReady,
	SessionStateSynchronized,
	SessionStateVisible,
	SessionStateFocused,
}

// ExitSequence is the order a FOCUSED session must pass through after an
// exit request, including the IDLE that follows an explicit end-session.
var ExitSequence = []SessionState{
	SessionStateVisible,
	SessionStateSynchronized,
	SessionStateStopping,
	SessionStateIdle,
	SessionStateExiting,
}
