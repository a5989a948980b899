package tui //nolint:testpackage // exercises the unexported frameMsg/Model.log wiring

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mickamy/cqlcore/conn"
	"github.com/mickamy/cqlcore/frame"
)

// serveHandshake accepts one connection on ln and replies to OPTIONS and
// STARTUP so the client reaches READY, then keeps reading further frames,
// which it ignores, until the socket closes.
func serveHandshake(ln net.Listener) {
	go func() {
		sock, err := ln.Accept()
		if err != nil {
			return
		}
		defer sock.Close()

		parser := frame.NewParser()
		buf := make([]byte, 4096)
		for {
			n, err := sock.Read(buf)
			if err != nil {
				return
			}
			frames, ferr := parser.Feed(buf[:n])
			for _, f := range frames {
				var resp *frame.Frame
				switch f.Opcode {
				case frame.OpOptions:
					resp = frame.NewFrame(0, &frame.SupportedBody{Options: map[string][]string{"CQL_VERSION": {"3.0.0"}}})
				case frame.OpStartup:
					resp = frame.NewFrame(0, &frame.ReadyBody{})
				default:
					continue
				}
				encoded, err := resp.Encode()
				if err != nil {
					return
				}
				if _, err := sock.Write(encoded); err != nil {
					return
				}
			}
			if ferr != nil {
				return
			}
		}
	}()
}

func waitReady(t *testing.T, c *conn.Connection) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State().String() == "READY" {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("connection never reached READY, state=%v", c.State())
}

func dialLocal(t *testing.T, onFrame conn.FrameObserver) (*conn.Connection, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveHandshake(ln)

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	c := conn.Dial(context.Background(), conn.Options{Host: host, Port: port, OnFrame: onFrame})
	waitReady(t, c)
	return c, ln
}

func TestObserverFeedsFrameLog(t *testing.T) {
	t.Parallel()

	ch := make(chan FrameEntry, 8)
	c, ln := dialLocal(t, NewObserver(ch))
	defer ln.Close()
	defer c.Close()

	if _, err := c.Prepare("SELECT * FROM system.peers"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	select {
	case e := <-ch:
		if e.dir != conn.FrameOutbound {
			t.Fatalf("got dir %v, want outbound", e.dir)
		}
		if e.opcode != frame.OpPrepare {
			t.Fatalf("got opcode %v, want PREPARE", e.opcode)
		}
		if e.cql == "" {
			t.Fatal("expected the PREPARE's CQL text to be captured")
		}
	case <-time.After(time.Second):
		t.Fatal("observer never received the outbound PREPARE frame")
	}
}

func TestModelAppendsAndRendersFrameLog(t *testing.T) {
	t.Parallel()

	ch := make(chan FrameEntry, 8)
	c, ln := dialLocal(t, NewObserver(ch))
	defer ln.Close()
	defer c.Close()

	if _, err := c.Prepare("SELECT * FROM system.peers"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	var entry FrameEntry
	select {
	case entry = <-ch:
	case <-time.After(time.Second):
		t.Fatal("observer never received the outbound PREPARE frame")
	}

	m := New(c, ch)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	updated, _ = m.Update(frameMsg(entry))
	m = updated.(Model)

	if len(m.log) != 1 {
		t.Fatalf("got %d log entries, want 1", len(m.log))
	}
	if view := m.View(); view == "" {
		t.Fatal("expected non-empty view once width is set")
	}
}

func TestModelLogCapIsBounded(t *testing.T) {
	t.Parallel()

	m := Model{width: 80, height: 24}
	for range logCapacity + 10 {
		updated, _ := m.Update(frameMsg(FrameEntry{opcode: frame.OpQuery}))
		m = updated.(Model)
	}
	if len(m.log) != logCapacity {
		t.Fatalf("got %d log entries, want capped at %d", len(m.log), logCapacity)
	}
}

func TestModelQuitOnQ(t *testing.T) {
	t.Parallel()

	m := Model{width: 80, height: 24}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(Model)
	if !m.quitting {
		t.Fatal("expected quitting to be set after 'q'")
	}
	if cmd == nil {
		t.Fatal("expected tea.Quit command")
	}
}
