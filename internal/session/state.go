package session

import "fmt"

// State is the lifecycle state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateScanning
	StateConnecting
	StateReady
	StateRunning
)

// States lists every State in lifecycle order.
var States = []State{
	StateDisconnected,
	StateScanning,
	StateConnecting,
	StateReady,
	StateRunning,
}

// String returns the lower-case state name
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Valid reports whether s is one of the five lifecycle states.
func (s State) Valid() bool {
	return s >= StateDisconnected && s <= StateRunning
}

// Action is a user-invocable operation.
type Action string

const (
	ActionConnect  Action = "connect"
	ActionSayHello Action = "hello"
	ActionFinish   Action = "finish"
)

// ParseAction maps an action name to an Action.
func ParseAction(name string) (Action, error) {
	switch Action(name) {
	case ActionConnect, ActionSayHello, ActionFinish:
		return Action(name), nil
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// Actions is the set of actions currently enabled.
type Actions struct {
	Connect  bool `json:"connect"`
	SayHello bool `json:"hello"`
	Finish   bool `json:"finish"`
}

// Allows reports whether a is in the set.
func (a Actions) Allows(action Action) bool {
	switch action {
	case ActionConnect:
		return a.Connect
	case ActionSayHello:
		return a.SayHello
	case ActionFinish:
		return a.Finish
	}
	return false
}

// ActionsFor derives the enabled actions from a state. Nothing is enabled
// while a transport operation is in flight.
func ActionsFor(s State, busy bool) Actions {
	if busy {
		return Actions{}
	}
	return Actions{
		Connect:  s == StateDisconnected,
		SayHello: s == StateReady,
		Finish:   s == StateReady,
	}
}
