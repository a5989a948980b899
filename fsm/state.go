// Package fsm implements the connection's state machine as an explicit
// transition table, independent of the I/O stack that drives it, so the
// sequencing rules can be tested in isolation.
package fsm

import "fmt"

// State is one of the named states a connection passes through on its
// way to (and eventually away from) READY.
type State int

const (
	StateNew State = iota
	StateResolved
	StateConnected
	StateHandshake
	StateSupported
	StateReady
	StateDisconnecting
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateResolved:
		return "RESOLVED"
	case StateConnected:
		return "CONNECTED"
	case StateHandshake:
		return "HANDSHAKE"
	case StateSupported:
		return "SUPPORTED"
	case StateReady:
		return "READY"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// Event is a named occurrence fed into the machine from the connection's
// single internal entry point.
type Event int

const (
	EventResolveOK Event = iota
	EventTCPConnectOK
	EventTLSOff
	EventTLSDone
	EventSentOptions
	EventRecvSupported
	EventSentStartup
	EventRecvReady
	EventRecvAuthenticate
	EventSocketError
	EventFrameError
	EventRecvErrorOnStreamZero
	EventCloseRequested
	EventCloseDone
)

func (e Event) String() string {
	switch e {
	case EventResolveOK:
		return "resolve_ok"
	case EventTCPConnectOK:
		return "tcp_connect_ok"
	case EventTLSOff:
		return "tls_off"
	case EventTLSDone:
		return "tls_done"
	case EventSentOptions:
		return "send(OPTIONS)"
	case EventRecvSupported:
		return "recv(SUPPORTED)"
	case EventSentStartup:
		return "send(STARTUP)"
	case EventRecvReady:
		return "recv(READY)"
	case EventRecvAuthenticate:
		return "recv(AUTHENTICATE)"
	case EventSocketError:
		return "socket_error"
	case EventFrameError:
		return "frame_error"
	case EventRecvErrorOnStreamZero:
		return "recv(ERROR on stream 0)"
	case EventCloseRequested:
		return "close()"
	case EventCloseDone:
		return "close_done"
	}
	return "unknown_event"
}

// transitionKey pairs a state with an event for table lookup.
type transitionKey struct {
	state State
	event Event
}

// table is the explicit NEW -> ... -> DISCONNECTED transition map, plus
// the any-state failure transitions which are resolved in Next before
// consulting the table.
var table = map[transitionKey]State{
	{StateNew, EventResolveOK}:           StateResolved,
	{StateResolved, EventTCPConnectOK}:   StateConnected,
	{StateConnected, EventTLSOff}:        StateHandshake,
	{StateConnected, EventTLSDone}:       StateHandshake,
	{StateHandshake, EventSentOptions}:   StateHandshake,
	{StateHandshake, EventRecvSupported}: StateSupported,
	{StateSupported, EventSentStartup}:   StateSupported,
	{StateSupported, EventRecvReady}:     StateReady,
	{StateReady, EventCloseRequested}:    StateDisconnecting,
	{StateDisconnecting, EventCloseDone}: StateDisconnected,
}

// InvalidTransition reports an event fed to the machine while in a state
// that has no defined reaction to it.
type InvalidTransition struct {
	State State
	Event Event
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("fsm: no transition for event %s in state %s", e.Event, e.State)
}

// Machine drives the connection state machine. It holds no I/O
// references; it is advanced purely by Next and is safe to construct
// and test without a socket.
type Machine struct {
	state State
}

// NewMachine returns a Machine starting in StateNew.
func NewMachine() *Machine {
	return &Machine{state: StateNew}
}

// State returns the machine's current state.
func (m *Machine) State() State {
	return m.state
}

// Next advances the machine on event, returning the new state. Any-state
// failure events (socket_error, frame_error, an ERROR frame on stream 0,
// or recv(AUTHENTICATE) which this driver rejects outright) take effect
// from every state except DISCONNECTED, ahead of the state-specific
// table; the one exception is an ERROR on stream 0 in READY, which is
// informational and leaves the state unchanged. An event with no
// defined reaction in the current state returns
// InvalidTransition and leaves the state unchanged.
func (m *Machine) Next(event Event) (State, error) {
	if m.state == StateDisconnected {
		return m.state, &InvalidTransition{State: m.state, Event: event}
	}

	if event == EventRecvErrorOnStreamZero && m.state == StateReady {
		// In READY, an ERROR on stream 0 is informational; the
		// connection stays open.
		return m.state, nil
	}

	switch event {
	case EventSocketError, EventFrameError, EventRecvErrorOnStreamZero, EventRecvAuthenticate:
		m.state = StateDisconnecting
		return m.state, nil
	}

	next, ok := table[transitionKey{m.state, event}]
	if !ok {
		return m.state, &InvalidTransition{State: m.state, Event: event}
	}
	m.state = next
	return m.state, nil
}
