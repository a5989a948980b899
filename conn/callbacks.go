package conn

import (
	"github.com/mickamy/cqlcore/diagnostics"
	"github.com/mickamy/cqlcore/frame"
)

// FrameDirection distinguishes outbound (caller to server) from inbound
// (server to caller) frames for FrameObserver.
type FrameDirection int

const (
	FrameOutbound FrameDirection = iota
	FrameInbound
)

func (d FrameDirection) String() string {
	if d == FrameInbound {
		return "in"
	}
	return "out"
}

// FrameObserver, when registered via Options.OnFrame, is invoked for
// every frame the connection sends or dispatches. It exists purely for
// observability (the debug TUI's scrolling frame log); it never gates
// or mutates the frame.
type FrameObserver func(c *Connection, dir FrameDirection, f *frame.Frame)

// ConnectCallback is invoked exactly once, when the connection reaches
// READY or terminally fails during setup.
type ConnectCallback func(c *Connection, err error)

// ErrorCallback is invoked for asynchronous errors observed after setup
// (socket loss, TLS failure, frame parser failure).
type ErrorCallback func(c *Connection, err error)

// KeyspaceCallback is invoked when a SET_KEYSPACE RESULT arrives.
type KeyspaceCallback func(c *Connection, keyspace string)

// PrepareCallback is invoked for each PREPARED RESULT, before the
// originating request handle is completed.
type PrepareCallback func(c *Connection, err error, cql string, preparedID []byte)

// SchemaCallback is invoked for server schema events when REGISTER has
// been issued. Dormant until EVENT payload decoding is implemented (see
// the TODO in connection.go); kept as part of the public surface so
// callers can register it now.
type SchemaCallback func(c *Connection, eventKind, keyspace, object string)

// BurstCallback is invoked when Options.BurstDetector reports a repeated
// statement. Purely informational — no throttling; the request that
// triggered it is never delayed or refused.
type BurstCallback func(c *Connection, b *diagnostics.Burst)
