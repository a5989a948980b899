package frame

import "fmt"

// Body is a parsed, opcode-tagged frame payload. Every variant knows its
// own opcode and how to serialize itself into a Writer.
type Body interface {
	Opcode() Opcode
	writeTo(w *Writer) error
}

// DecodeBody parses buf as the body variant registered for op. Unknown
// opcodes are a ProtocolError, not a CodecError: the frame header parsed
// fine, the opcode just has no handler.
func DecodeBody(op Opcode, buf []byte) (Body, error) {
	r := NewReader(buf)
	switch op {
	case OpError:
		return decodeErrorBody(r)
	case OpStartup:
		return decodeStartupBody(r)
	case OpReady:
		return decodeReadyBody(r)
	case OpAuthenticate:
		return decodeOpaqueBody(OpAuthenticate, buf)
	case OpCredentials:
		return decodeOpaqueBody(OpCredentials, buf)
	case OpOptions:
		return decodeOptionsBody(r)
	case OpSupported:
		return decodeSupportedBody(r)
	case OpQuery:
		return decodeQueryBody(r)
	case OpResult:
		return decodeResultBody(r)
	case OpPrepare:
		return decodePrepareBody(r)
	case OpExecute:
		return decodeExecuteBody(r)
	case OpRegister:
		return decodeOpaqueBody(OpRegister, buf)
	case OpEvent:
		return decodeOpaqueBody(OpEvent, buf)
	}
	return nil, &ProtocolError{Kind: UnknownOpcode, Detail: fmt.Sprintf("opcode 0x%02X", byte(op))}
}
