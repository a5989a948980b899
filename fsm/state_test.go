package fsm

import "testing"

func TestHappyPathReachesReady(t *testing.T) {
	m := NewMachine()
	steps := []struct {
		event Event
		want  State
	}{
		{EventResolveOK, StateResolved},
		{EventTCPConnectOK, StateConnected},
		{EventTLSOff, StateHandshake},
		{EventSentOptions, StateHandshake},
		{EventRecvSupported, StateSupported},
		{EventSentStartup, StateSupported},
		{EventRecvReady, StateReady},
	}
	for _, s := range steps {
		got, err := m.Next(s.event)
		if err != nil {
			t.Fatalf("Next(%s): %v", s.event, err)
		}
		if got != s.want {
			t.Fatalf("Next(%s) = %s, want %s", s.event, got, s.want)
		}
	}
}

func TestHappyPathWithTLS(t *testing.T) {
	m := NewMachine()
	mustNext(t, m, EventResolveOK, StateResolved)
	mustNext(t, m, EventTCPConnectOK, StateConnected)
	mustNext(t, m, EventTLSDone, StateHandshake)
	mustNext(t, m, EventRecvSupported, StateSupported)
	mustNext(t, m, EventRecvReady, StateReady)
}

func mustNext(t *testing.T, m *Machine, e Event, want State) {
	t.Helper()
	got, err := m.Next(e)
	if err != nil {
		t.Fatalf("Next(%s): %v", e, err)
	}
	if got != want {
		t.Fatalf("Next(%s) = %s, want %s", e, got, want)
	}
}

func TestAuthenticateIsRejected(t *testing.T) {
	m := NewMachine()
	mustNext(t, m, EventResolveOK, StateResolved)
	mustNext(t, m, EventTCPConnectOK, StateConnected)
	mustNext(t, m, EventTLSOff, StateHandshake)
	mustNext(t, m, EventRecvSupported, StateSupported)
	got, err := m.Next(EventRecvAuthenticate)
	if err != nil {
		t.Fatalf("Next(AUTHENTICATE): %v", err)
	}
	if got != StateDisconnecting {
		t.Fatalf("state = %s, want DISCONNECTING", got)
	}
}

func TestAnyStateFailureTransitionsToDisconnecting(t *testing.T) {
	for _, start := range []State{StateNew, StateResolved, StateConnected, StateHandshake, StateSupported, StateReady} {
		m := &Machine{state: start}
		got, err := m.Next(EventSocketError)
		if err != nil {
			t.Fatalf("from %s: Next(socket_error): %v", start, err)
		}
		if got != StateDisconnecting {
			t.Fatalf("from %s: state = %s, want DISCONNECTING", start, got)
		}
	}
}

func TestErrorOnStreamZeroInReadyIsInformationalNotFatal(t *testing.T) {
	m := &Machine{state: StateReady}
	got, err := m.Next(EventRecvErrorOnStreamZero)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != StateReady {
		t.Fatalf("state = %s, want READY (connection stays open)", got)
	}
}

func TestErrorOnStreamZeroBeforeReadyAbortsSetup(t *testing.T) {
	m := &Machine{state: StateSupported}
	got, err := m.Next(EventRecvErrorOnStreamZero)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != StateDisconnecting {
		t.Fatalf("state = %s, want DISCONNECTING", got)
	}
}

func TestCloseInReadyThenCloseDone(t *testing.T) {
	m := &Machine{state: StateReady}
	mustNext(t, m, EventCloseRequested, StateDisconnecting)
	mustNext(t, m, EventCloseDone, StateDisconnected)
}

func TestInvalidTransitionLeavesStateUnchanged(t *testing.T) {
	m := NewMachine()
	_, err := m.Next(EventRecvReady)
	if err == nil {
		t.Fatal("expected InvalidTransition")
	}
	if _, ok := err.(*InvalidTransition); !ok {
		t.Fatalf("expected *InvalidTransition, got %T", err)
	}
	if m.State() != StateNew {
		t.Fatalf("state = %s, want NEW (unchanged)", m.State())
	}
}

func TestDisconnectedIsTerminal(t *testing.T) {
	m := &Machine{state: StateDisconnected}
	_, err := m.Next(EventResolveOK)
	if err == nil {
		t.Fatal("expected InvalidTransition from DISCONNECTED")
	}
}
