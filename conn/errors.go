package conn

import (
	"errors"
	"fmt"

	"github.com/mickamy/cqlcore/frame"
	"github.com/mickamy/cqlcore/tlspipe"
)

// ErrorKind groups a ConnectionError by the subsystem that produced it.
type ErrorKind int

const (
	// KindOS covers socket, DNS, and event-loop failures.
	KindOS ErrorKind = iota
	// KindNetwork covers peer-closed, timeout, and write failures.
	KindNetwork
	// KindTLS covers handshake and certificate verification failures.
	KindTLS
	// KindProtocol covers truncated frames, unknown opcodes, oversized
	// frames, and wrong version bytes.
	KindProtocol
	// KindServer covers any ERROR frame from the server.
	KindServer
	// KindLibrary covers NoStreams, NotReady, Cancelled, and internal
	// invariant violations.
	KindLibrary
)

func (k ErrorKind) String() string {
	switch k {
	case KindOS:
		return "os"
	case KindNetwork:
		return "network"
	case KindTLS:
		return "tls"
	case KindProtocol:
		return "protocol"
	case KindServer:
		return "server"
	case KindLibrary:
		return "library"
	}
	return "unknown"
}

// ConnectionError is the typed error surfaced to callbacks and request
// handles. ServerCode is set only for KindServer.
type ConnectionError struct {
	Kind       ErrorKind
	ServerCode int32
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.Kind == KindServer {
		return fmt.Sprintf("conn: server error 0x%X: %v", e.ServerCode, e.Err)
	}
	return fmt.Sprintf("conn: %s: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func wrapErr(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &ConnectionError{Kind: kind, Err: err}
}

func serverErr(code int32, message string) error {
	return &ConnectionError{Kind: KindServer, ServerCode: code, Err: errors.New(message)}
}

// classifySetupErr sorts a setup-phase I/O failure into its error kind:
// parser failures are protocol errors, adapter fatals are TLS errors,
// anything else came from the socket. Errors the read goroutine already
// wrapped pass through unchanged.
func classifySetupErr(err error) error {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return err
	}
	var tlsFatal *tlspipe.Fatal
	if errors.As(err, &tlsFatal) {
		return wrapErr(KindTLS, err)
	}
	var pe *frame.ProtocolError
	var de *frame.CodecError
	if errors.As(err, &pe) || errors.As(err, &de) {
		return wrapErr(KindProtocol, err)
	}
	return wrapErr(KindNetwork, err)
}

// Library-level sentinel errors (KindLibrary).
var (
	// ErrNotReady is returned synchronously by Send when the connection
	// has not yet reached READY.
	ErrNotReady = errors.New("conn: not ready")
	// ErrCancelled fulfills in-flight handles when Close is called.
	ErrCancelled = errors.New("conn: cancelled")
	// ErrConnectionLost fulfills in-flight handles when the socket, TLS
	// session, or frame parser fails post-setup.
	ErrConnectionLost = errors.New("conn: connection lost")
	// ErrAuthNotSupported is surfaced via the connect callback when the
	// server demands authentication; this driver rejects rather than
	// implementing SASL.
	ErrAuthNotSupported = errors.New("conn: server requires authentication, which this driver does not support")
)
