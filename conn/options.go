package conn

import (
	"crypto/tls"
	"time"

	"github.com/mickamy/cqlcore/diagnostics"
)

// DefaultPort is the standard CQL native-protocol port.
const DefaultPort = 9042

// Options configures a Dial call.
type Options struct {
	Host string
	Port int

	// TLSConfig enables TLS when non-nil; the adapter performs the
	// handshake before any CQL frame is sent.
	TLSConfig *tls.Config

	CQLVersion  string
	Compression string

	ConnectTimeout time.Duration

	OnConnect  ConnectCallback
	OnError    ErrorCallback
	OnKeyspace KeyspaceCallback
	OnPrepare  PrepareCallback
	OnSchema   SchemaCallback

	// BurstDetector, when non-nil, observes every outbound QUERY's
	// normalized CQL text and OnBurst fires when it recurs past the
	// detector's threshold. Purely informational: it never delays or
	// refuses a request.
	BurstDetector *diagnostics.BurstDetector
	OnBurst       BurstCallback

	// OnFrame, when non-nil, observes every frame sent or dispatched
	// after the connection reaches READY (debug TUI hook only).
	OnFrame FrameObserver
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.CQLVersion == "" {
		o.CQLVersion = "3.0.0"
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	return o
}
