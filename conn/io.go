package conn

import (
	"errors"
	"io"

	"github.com/mickamy/cqlcore/frame"
	"github.com/mickamy/cqlcore/fsm"
	"github.com/mickamy/cqlcore/tlspipe"
)

// performTLSHandshake starts the socket reader and pumps ciphertext
// between it and the TLS adapter until the handshake completes or fails.
// The adapter encrypts and decrypts on its own goroutines, so every wait
// here is a select over socket chunks and the adapter's notify channel;
// neither alone is a complete wake signal.
func (c *Connection) performTLSHandshake() error {
	c.tls = tlspipe.NewAdapter(c.opts.TLSConfig)
	go c.readIntoChunks()

	notify := c.tls.Notify()
	var in []byte
	for !c.tls.HandshakeDone() {
		res, err := c.tls.Pump(in, nil)
		if err != nil {
			return err
		}
		in = nil
		if err := c.writeSocket(res.Ciphertext); err != nil {
			return err
		}
		if c.tls.HandshakeDone() {
			break
		}
		select {
		case in = <-c.cipherCh:
		case <-notify:
		case err := <-c.readErrCh:
			return err
		}
	}
	return nil
}

func (c *Connection) writeSocket(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	_, err := c.sock.Write(b)
	return err
}

// writeRaw encodes and sends f during the handshake/negotiation phase,
// before the steady-state loops are running.
func (c *Connection) writeRaw(f *frame.Frame) error {
	encoded, err := f.Encode()
	if err != nil {
		return err
	}
	if c.tls == nil {
		return c.writeSocket(encoded)
	}
	res, err := c.tls.Pump(nil, encoded)
	if err != nil {
		return err
	}
	// Encryption may finish after this Pump returns; readOneFrame's
	// notify-driven loop flushes the remainder. No inbound plaintext can
	// be lost here: pre-READY the server only ever speaks after we do.
	return c.writeSocket(res.Ciphertext)
}

// readOneFrame blocks until the frame parser produces exactly one frame.
// Used only during setup negotiation, before the steady-state loops take
// over; the server sends exactly one response per setup request, so a
// single frame is all that can arrive.
func (c *Connection) readOneFrame() (*frame.Frame, error) {
	if c.tls == nil {
		buf := make([]byte, 16*1024)
		for {
			n, err := c.sock.Read(buf)
			if err != nil {
				return nil, err
			}
			frames, err := c.parser.Feed(buf[:n])
			if err != nil {
				return nil, err
			}
			if len(frames) > 0 {
				return frames[0], nil
			}
		}
	}

	notify := c.tls.Notify()
	var in []byte
	for {
		res, err := c.tls.Pump(in, nil)
		if err != nil {
			return nil, err
		}
		in = nil
		if err := c.writeSocket(res.Ciphertext); err != nil {
			return nil, err
		}
		if len(res.Plaintext) > 0 {
			frames, err := c.parser.Feed(res.Plaintext)
			if err != nil {
				return nil, err
			}
			if len(frames) > 0 {
				return frames[0], nil
			}
		}
		select {
		case in = <-c.cipherCh:
		case <-notify:
		case err := <-c.readErrCh:
			return nil, err
		}
	}
}

// readIntoChunks is the socket-facing read goroutine for TLS
// connections: it moves raw ciphertext off the socket and onto cipherCh,
// leaving all TLS and parser work to whichever single goroutine owns the
// adapter (setup first, then pumpLoop).
func (c *Connection) readIntoChunks() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.sock.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case c.cipherCh <- chunk:
			case <-c.closed:
				return
			}
		}
		if err != nil {
			select {
			case c.readErrCh <- wrapErr(KindNetwork, err):
			default:
			}
			return
		}
	}
}

// pumpLoop is the steady-state loop for TLS connections. One goroutine
// owns the adapter, the parser, and every socket write, so TLS records
// reach the wire in exactly the order the session produced them. It
// wakes on inbound ciphertext (readIntoChunks), outbound frames (Send
// via writeCh), and the adapter's notify channel, which covers output
// the adapter's background goroutines queued between pumps.
func (c *Connection) pumpLoop() {
	notify := c.tls.Notify()
	for {
		var ciphertext, plaintext []byte
		select {
		case ciphertext = <-c.cipherCh:
		case plaintext = <-c.writeCh:
		case <-notify:
		case err := <-c.readErrCh:
			c.drainTLS()
			c.onConnectionLost(err)
			return
		case <-c.closed:
			return
		}
		if !c.pumpStep(ciphertext, plaintext) {
			return
		}
	}
}

// pumpStep performs one Pump call and routes its outputs: ciphertext to
// the socket, plaintext through the parser to dispatch. Returns false
// once the connection is lost.
func (c *Connection) pumpStep(ciphertext, plaintext []byte) bool {
	res, err := c.tls.Pump(ciphertext, plaintext)
	if err != nil {
		c.onConnectionLost(wrapErr(KindTLS, err))
		return false
	}
	if err := c.writeSocket(res.Ciphertext); err != nil {
		c.onConnectionLost(wrapErr(KindNetwork, err))
		return false
	}
	if len(res.Plaintext) == 0 {
		return true
	}
	frames, ferr := c.parser.Feed(res.Plaintext)
	for _, f := range frames {
		c.dispatch(f)
	}
	if ferr != nil {
		c.onConnectionLost(wrapErr(KindProtocol, ferr))
		return false
	}
	return true
}

// drainTLS makes a final pass over ciphertext the reader queued before
// it failed, so responses already off the wire still reach their
// handles before the registry is drained with a connection-lost error.
func (c *Connection) drainTLS() {
	for {
		select {
		case in := <-c.cipherCh:
			if !c.pumpStep(in, nil) {
				return
			}
		default:
			c.pumpStep(nil, nil)
			return
		}
	}
}

// readLoop is the steady-state inbound path for plaintext connections,
// started once the connection reaches READY: read socket bytes, feed the
// frame parser, and dispatch every completed frame.
func (c *Connection) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.sock.Read(buf)
		if err != nil {
			c.onConnectionLost(wrapErr(KindNetwork, err))
			return
		}
		frames, ferr := c.parser.Feed(buf[:n])
		for _, f := range frames {
			c.dispatch(f)
		}
		if ferr != nil {
			c.onConnectionLost(wrapErr(KindProtocol, ferr))
			return
		}
	}
}

// writeLoop is the steady-state outbound path for plaintext connections:
// it serializes writes to the socket in Send's call order, so two
// callers racing Send never interleave their frames on the wire.
func (c *Connection) writeLoop() {
	for {
		select {
		case b, ok := <-c.writeCh:
			if !ok {
				return
			}
			if err := c.writeSocket(b); err != nil {
				c.onConnectionLost(wrapErr(KindNetwork, err))
				return
			}
		case <-c.closed:
			return
		}
	}
}

// onConnectionLost transitions to DISCONNECTING, drains the stream
// registry, and invokes the error callback exactly once — lostOnce
// guards against the read and write paths both observing the same
// failure. A no-op if the connection is already closing: Close's own
// sock.Close() unblocks the read loop with a spurious "use of closed
// connection" error, which must not be reported as a connection loss on
// top of the deliberate close.
func (c *Connection) onConnectionLost(err error) {
	select {
	case <-c.closed:
		return
	default:
	}
	c.lostOnce.Do(func() {
		if errors.Is(err, io.EOF) {
			err = ErrConnectionLost
		}
		c.mu.Lock()
		c.machine.Next(fsm.EventSocketError)
		c.mu.Unlock()

		c.registry.FailAll(ErrConnectionLost)
		if c.opts.OnError != nil {
			c.opts.OnError(c, err)
		}
	})
}
