// Package conn implements the client-side connection state machine: it
// owns the socket, the optional TLS adapter, the frame parser, and the
// stream registry, and exposes the send/prepare/set_keyspace request
// surface.
package conn

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mickamy/cqlcore/frame"
	"github.com/mickamy/cqlcore/fsm"
	"github.com/mickamy/cqlcore/query"
	"github.com/mickamy/cqlcore/stream"
	"github.com/mickamy/cqlcore/tlspipe"
)

// Connection is a single client-side session with a CQL server. The
// state machine is guarded by mu, and the registry and prepareCQL carry
// their own locks, so Send, Prepare, SetKeyspace, State, StreamsInUse,
// and Close may be called from any goroutine. The parser and the TLS
// adapter are driven only by the setup goroutine and then the
// connection's own read/write goroutines (its "loop").
type Connection struct {
	ID uuid.UUID

	opts Options

	mu      sync.Mutex
	machine *fsm.Machine

	registry *stream.Registry
	parser   *frame.Parser

	sock net.Conn
	tls  *tlspipe.Adapter

	// writeCh carries encoded outbound frames; readLoop/writeLoop (or
	// pumpLoop and readIntoChunks for TLS) own the socket after READY.
	writeCh   chan []byte
	cipherCh  chan []byte
	readErrCh chan error
	closed    chan struct{}
	closeMu   sync.Once
	lostOnce  sync.Once

	negotiatedCQLVersion  string
	negotiatedCompression string

	// prepareCQL remembers which in-flight streams originated a PREPARE,
	// so PrepareCallback can fire with the original CQL text once the
	// matching PREPARED result arrives.
	prepareMu  sync.Mutex
	prepareCQL map[int8]string
}

func newConnection(opts Options) *Connection {
	return &Connection{
		ID:         uuid.New(),
		opts:       opts,
		machine:    fsm.NewMachine(),
		registry:   stream.NewRegistry(),
		parser:     frame.NewParser(),
		writeCh:    make(chan []byte, 256),
		cipherCh:   make(chan []byte, 8),
		readErrCh:  make(chan error, 1),
		closed:     make(chan struct{}),
		prepareCQL: make(map[int8]string),
	}
}

// State returns the connection's current state machine state.
func (c *Connection) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// StreamsInUse reports how many of the 127 stream IDs are currently
// occupied, for the debug TUI's occupancy display.
func (c *Connection) StreamsInUse() int {
	return c.registry.Occupied()
}

// Send attempts to acquire a stream ID for frame, stamps it in, and
// writes the serialized bytes. If the connection is not READY, Send
// fails immediately with ErrNotReady and does not touch handle. On the
// matching inbound response the handle is fulfilled with the response
// frame; on connection loss before a response arrives it is fulfilled
// with ErrConnectionLost.
func (c *Connection) Send(f *frame.Frame, handle *stream.Pending) (*stream.Pending, error) {
	if c.State() != fsm.StateReady {
		return nil, ErrNotReady
	}

	id, err := c.registry.Acquire(handle)
	if err != nil {
		return nil, err // stream.ErrNoStreams, synchronous, no error callback
	}
	f.Stream = id

	encoded, err := f.Encode()
	if err != nil {
		c.registry.Take(id)
		return nil, fmt.Errorf("conn: encode: %w", err)
	}

	if pb, isPrepare := f.Body.(*frame.PrepareBody); isPrepare {
		c.prepareMu.Lock()
		c.prepareCQL[id] = pb.CQL
		c.prepareMu.Unlock()
	}

	if qb, isQuery := f.Body.(*frame.QueryBody); isQuery && c.opts.BurstDetector != nil {
		if b := c.opts.BurstDetector.Observe(query.Normalize(qb.CQL), time.Now()); b != nil && c.opts.OnBurst != nil {
			c.opts.OnBurst(c, b)
		}
	}

	select {
	case c.writeCh <- encoded:
	case <-c.closed:
		c.registry.Take(id)
		handle.Fail(ErrConnectionLost)
		return handle, nil
	}
	if c.opts.OnFrame != nil {
		c.opts.OnFrame(c, FrameOutbound, f)
	}
	return handle, nil
}

// Prepare emits a PREPARE request for cql. On the RESULT kind=PREPARED
// response, OnPrepare (if registered) fires with the prepared id before
// the returned handle is fulfilled.
func (c *Connection) Prepare(cql string) (*stream.Pending, error) {
	handle := stream.NewPending()
	return c.Send(frame.NewFrame(0, &frame.PrepareBody{CQL: cql}), handle)
}

// SetKeyspace synthesizes a USE <name> QUERY and sends it without
// returning a handle to the caller; OnKeyspace (if registered) fires
// when the matching RESULT kind=SET_KEYSPACE arrives.
func (c *Connection) SetKeyspace(name string) error {
	cql := fmt.Sprintf("USE %s;", name)
	body := &frame.QueryBody{CQL: cql, Consistency: frame.ConsistencyOne}
	_, err := c.Send(frame.NewFrame(0, body), stream.NewPending())
	return err
}

// Close cancels all in-flight requests with ErrCancelled and tears down
// the socket and TLS adapter. Safe to call more than once.
func (c *Connection) Close() error {
	c.closeMu.Do(func() {
		c.mu.Lock()
		c.machine.Next(fsm.EventCloseRequested)
		c.mu.Unlock()

		close(c.closed)
		c.registry.FailAll(ErrCancelled)
		if c.sock != nil {
			c.sock.Close()
		}
		if c.tls != nil {
			c.tls.Close()
		}

		c.mu.Lock()
		c.machine.Next(fsm.EventCloseDone)
		c.mu.Unlock()
	})
	return nil
}

// dispatch routes one parsed inbound frame to its destination: the
// stream registry for caller requests (stream >= 1), or connection-level
// handling for stream 0 (lifecycle) and stream < 0 (server-initiated
// events).
func (c *Connection) dispatch(f *frame.Frame) {
	if c.opts.OnFrame != nil {
		c.opts.OnFrame(c, FrameInbound, f)
	}
	switch {
	case f.Stream == 0:
		c.dispatchStreamZero(f)
	case f.Stream < 0:
		c.dispatchServerEvent(f)
	default:
		c.dispatchStreamResponse(f)
	}
}

func (c *Connection) dispatchStreamZero(f *frame.Frame) {
	if eb, ok := f.Body.(*frame.ErrorBody); ok {
		c.mu.Lock()
		state := c.machine.State()
		c.mu.Unlock()
		if state == fsm.StateReady {
			// Informational once READY; the connection stays open.
			c.mu.Lock()
			c.machine.Next(fsm.EventRecvErrorOnStreamZero)
			c.mu.Unlock()
			if c.opts.OnError != nil {
				c.opts.OnError(c, serverErr(eb.Code, eb.Message))
			}
		}
		return
	}
}

func (c *Connection) dispatchServerEvent(f *frame.Frame) {
	// TODO(schema-events): EVENT payload decoding is registered-but-
	// dormant — the payload layout differs by schema vs. topology event
	// kind. SchemaCallback exists and REGISTER round-trips, but no frame
	// currently reaches c.opts.OnSchema.
	_ = f
}

func (c *Connection) dispatchStreamResponse(f *frame.Frame) {
	handle := c.registry.Take(f.Stream)
	if handle == nil {
		return
	}

	// The stream is released either way, so the PREPARE bookkeeping for
	// it must go too — even when the server answered with ERROR.
	c.prepareMu.Lock()
	cql, wasPrepare := c.prepareCQL[f.Stream]
	if wasPrepare {
		delete(c.prepareCQL, f.Stream)
	}
	c.prepareMu.Unlock()

	if eb, ok := f.Body.(*frame.ErrorBody); ok {
		err := serverErr(eb.Code, eb.Message)
		if wasPrepare && c.opts.OnPrepare != nil {
			c.opts.OnPrepare(c, err, cql, nil)
		}
		handle.Fail(err)
		return
	}

	if rb, ok := f.Body.(*frame.ResultBody); ok {
		switch rb.Kind {
		case frame.ResultPrepared:
			if wasPrepare && c.opts.OnPrepare != nil {
				c.opts.OnPrepare(c, nil, cql, rb.PreparedID)
			}
		case frame.ResultSetKeyspace:
			if c.opts.OnKeyspace != nil {
				c.opts.OnKeyspace(c, rb.Keyspace)
			}
		}
	}
	handle.Complete(f)
}
