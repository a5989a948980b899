package conn

import (
	"context"
	"fmt"
	"net"

	"github.com/mickamy/cqlcore/frame"
	"github.com/mickamy/cqlcore/fsm"
)

// Dial resolves opts.Host, connects, optionally performs a TLS
// handshake, and negotiates OPTIONS/SUPPORTED/STARTUP/READY in the
// background. It returns immediately; opts.OnConnect fires exactly once,
// either when the connection reaches READY or when setup fails
// terminally.
func Dial(ctx context.Context, opts Options) *Connection {
	opts = opts.withDefaults()
	c := newConnection(opts)
	go c.setup(ctx)
	return c
}

// dialTestConn wires a Connection around an already-established net.Conn
// (a net.Pipe end, in tests) instead of performing DNS resolution and a
// real TCP dial, so the handshake/negotiation/dispatch logic can be
// exercised against a deterministic stub server.
func dialTestConn(sock net.Conn, opts Options) *Connection {
	opts = opts.withDefaults()
	c := newConnection(opts)
	c.sock = sock
	c.transition(fsm.EventResolveOK)
	c.transition(fsm.EventTCPConnectOK)
	go c.setupOverSocket()
	return c
}

func (c *Connection) setup(ctx context.Context) {
	if err := c.resolveAndConnect(ctx); err != nil {
		c.failSetup(err)
		return
	}
	c.setupOverSocket()
}

// setupOverSocket runs the TLS handshake (if configured) and protocol
// negotiation assuming c.sock is already a live, connected socket.
func (c *Connection) setupOverSocket() {
	if c.opts.TLSConfig != nil {
		if err := c.performTLSHandshake(); err != nil {
			c.failSetup(classifySetupErr(err))
			return
		}
		c.transition(fsm.EventTLSDone)
	} else {
		c.transition(fsm.EventTLSOff)
	}

	if err := c.negotiate(); err != nil {
		c.failSetup(err)
		return
	}

	c.transition(fsm.EventRecvReady)
	if c.tls != nil {
		// readIntoChunks is already running from the handshake phase.
		go c.pumpLoop()
	} else {
		go c.readLoop()
		go c.writeLoop()
	}

	if c.opts.OnConnect != nil {
		c.opts.OnConnect(c, nil)
	}
}

func (c *Connection) resolveAndConnect(ctx context.Context) error {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, c.opts.Host)
	if err != nil {
		return wrapErr(KindOS, fmt.Errorf("resolve %s: %w", c.opts.Host, err))
	}
	if len(ips) == 0 {
		return wrapErr(KindOS, fmt.Errorf("resolve %s: no addresses", c.opts.Host))
	}
	// Prefer IPv4 when the resolver returns multiple addresses.
	addr := ips[0]
	for _, ip := range ips {
		if ip.IP.To4() != nil {
			addr = ip
			break
		}
	}
	c.transition(fsm.EventResolveOK)

	dialer := &net.Dialer{Timeout: c.opts.ConnectTimeout}
	sockAddr := net.JoinHostPort(addr.IP.String(), fmt.Sprintf("%d", c.opts.Port))
	sock, err := dialer.DialContext(ctx, "tcp", sockAddr)
	if err != nil {
		return wrapErr(KindOS, fmt.Errorf("dial %s: %w", sockAddr, err))
	}
	c.sock = sock
	c.transition(fsm.EventTCPConnectOK)
	return nil
}

// negotiate drives the OPTIONS -> SUPPORTED -> STARTUP -> READY exchange
// synchronously on the setup goroutine; steady-state dispatch only
// begins once READY is reached.
func (c *Connection) negotiate() error {
	if err := c.writeRaw(frame.NewFrame(0, &frame.OptionsBody{})); err != nil {
		return classifySetupErr(err)
	}
	c.transition(fsm.EventSentOptions)

	f, err := c.readOneFrame()
	if err != nil {
		return classifySetupErr(err)
	}
	if _, ok := f.Body.(*frame.SupportedBody); !ok {
		if eb, ok := f.Body.(*frame.ErrorBody); ok {
			c.transition(fsm.EventRecvErrorOnStreamZero)
			return serverErr(eb.Code, eb.Message)
		}
		return wrapErr(KindProtocol, fmt.Errorf("expected SUPPORTED, got opcode %v", f.Opcode))
	}
	c.transition(fsm.EventRecvSupported)

	startup := frame.NewStartupBody(c.opts.Compression)
	startup.CQLVersion = c.opts.CQLVersion
	if err := c.writeRaw(frame.NewFrame(0, startup)); err != nil {
		return classifySetupErr(err)
	}
	c.transition(fsm.EventSentStartup)

	f, err = c.readOneFrame()
	if err != nil {
		return classifySetupErr(err)
	}
	switch body := f.Body.(type) {
	case *frame.ReadyBody:
		c.negotiatedCQLVersion = c.opts.CQLVersion
		c.negotiatedCompression = c.opts.Compression
		return nil
	case *frame.ErrorBody:
		c.transition(fsm.EventRecvErrorOnStreamZero)
		return serverErr(body.Code, body.Message)
	case *frame.OpaqueBody:
		if body.Opcode() == frame.OpAuthenticate {
			c.transition(fsm.EventRecvAuthenticate)
			return ErrAuthNotSupported
		}
		return wrapErr(KindProtocol, fmt.Errorf("unexpected opcode %v after STARTUP", f.Opcode))
	default:
		return wrapErr(KindProtocol, fmt.Errorf("unexpected opcode %v after STARTUP", f.Opcode))
	}
}

// failSetup aborts connection establishment: the machine moves all the
// way to DISCONNECTED (not just DISCONNECTING), since there is no live
// socket for a later close to finish draining.
func (c *Connection) failSetup(err error) {
	c.mu.Lock()
	if c.machine.State() != fsm.StateDisconnecting {
		c.machine.Next(fsm.EventSocketError)
	}
	c.machine.Next(fsm.EventCloseDone)
	c.mu.Unlock()
	if c.sock != nil {
		c.sock.Close()
	}
	if c.opts.OnConnect != nil {
		c.opts.OnConnect(c, err)
	}
}

func (c *Connection) transition(e fsm.Event) {
	c.mu.Lock()
	c.machine.Next(e)
	c.mu.Unlock()
}
