package frame

import "fmt"

// MaxBodyLength is the default ceiling on body size (256 MiB), enforced
// by the parser before allocating a body buffer.
const MaxBodyLength = 256 * 1024 * 1024

// Frame is a complete CQL protocol message: header fields plus its
// decoded body.
type Frame struct {
	Version byte
	Flags   byte
	Stream  int8
	Opcode  Opcode
	Body    Body
}

// NewFrame builds a request frame (version = RequestVersion) for body on
// the given stream. Stream 0 is reserved for connection-lifecycle
// frames; streams >= 1 are caller requests.
func NewFrame(stream int8, body Body) *Frame {
	return &Frame{
		Version: RequestVersion,
		Stream:  stream,
		Opcode:  body.Opcode(),
		Body:    body,
	}
}

// Encode serializes the frame's header and body into one contiguous
// buffer. The header's length field is computed from the encoded body,
// never trusted from the caller.
func (f *Frame) Encode() ([]byte, error) {
	w := NewWriter()
	if err := f.Body.writeTo(w); err != nil {
		return nil, fmt.Errorf("frame: encode body: %w", err)
	}
	body := w.Bytes()
	if len(body) > MaxBodyLength {
		return nil, fmt.Errorf("frame: encode: body length %d exceeds %d", len(body), MaxBodyLength)
	}

	out := make([]byte, 8+len(body))
	out[0] = f.Version
	out[1] = f.Flags
	out[2] = byte(f.Stream)
	out[3] = byte(f.Opcode)
	n := uint32(len(body))
	out[4] = byte(n >> 24)
	out[5] = byte(n >> 16)
	out[6] = byte(n >> 8)
	out[7] = byte(n)
	copy(out[8:], body)
	return out, nil
}
