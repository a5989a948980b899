package frame

import "fmt"

// CodecErrorKind distinguishes the two ways a primitive decode can fail.
type CodecErrorKind int

const (
	// Truncated means the buffer ended before the value could be read.
	Truncated CodecErrorKind = iota
	// Invalid means the bytes were present but did not form a valid value.
	Invalid
)

// CodecError is returned by the serialization primitives in primitives.go.
type CodecError struct {
	Kind   CodecErrorKind
	Detail string
}

func (e *CodecError) Error() string {
	switch e.Kind {
	case Truncated:
		return fmt.Sprintf("frame: truncated: %s", e.Detail)
	case Invalid:
		return fmt.Sprintf("frame: invalid: %s", e.Detail)
	}
	return fmt.Sprintf("frame: codec error: %s", e.Detail)
}

func truncated(detail string) error {
	return &CodecError{Kind: Truncated, Detail: detail}
}

func invalid(detail string) error {
	return &CodecError{Kind: Invalid, Detail: detail}
}

// ProtocolErrorKind distinguishes the ways the frame parser can fail.
type ProtocolErrorKind int

const (
	UnknownOpcode ProtocolErrorKind = iota
	OversizedFrame
	BadVersion
)

// ProtocolError is returned by Parser.Feed and is terminal for the
// connection: the parser never attempts resynchronization after one.
type ProtocolError struct {
	Kind   ProtocolErrorKind
	Detail string
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case UnknownOpcode:
		return fmt.Sprintf("frame: unknown opcode: %s", e.Detail)
	case OversizedFrame:
		return fmt.Sprintf("frame: oversized frame: %s", e.Detail)
	case BadVersion:
		return fmt.Sprintf("frame: bad version byte: %s", e.Detail)
	}
	return fmt.Sprintf("frame: protocol error: %s", e.Detail)
}
