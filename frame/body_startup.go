package frame

// DefaultCQLVersion is used when a StartupBody is constructed without an
// explicit version.
const DefaultCQLVersion = "3.0.0"

// StartupBody negotiates the protocol version and (optionally) a
// compression algorithm. CQL_VERSION is always present on the wire;
// COMPRESSION is included only when non-empty.
type StartupBody struct {
	CQLVersion  string
	Compression string
}

// NewStartupBody returns a StartupBody with CQLVersion set to
// DefaultCQLVersion and the given compression (empty for none).
func NewStartupBody(compression string) *StartupBody {
	return &StartupBody{CQLVersion: DefaultCQLVersion, Compression: compression}
}

func (b *StartupBody) Opcode() Opcode { return OpStartup }

func (b *StartupBody) writeTo(w *Writer) error {
	version := b.CQLVersion
	if version == "" {
		version = DefaultCQLVersion
	}
	m := map[string]string{"CQL_VERSION": version}
	if b.Compression != "" {
		m["COMPRESSION"] = b.Compression
	}
	return w.StringMap(m)
}

func decodeStartupBody(r *Reader) (*StartupBody, error) {
	m, err := r.StringMap()
	if err != nil {
		return nil, err
	}
	return &StartupBody{CQLVersion: m["CQL_VERSION"], Compression: m["COMPRESSION"]}, nil
}
