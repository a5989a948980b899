// Package frame implements the CQL native-protocol v2 wire format: the
// 8-byte frame header, the serialization primitives, and one body variant
// per opcode.
package frame

// Opcode identifies a frame's body variant.
type Opcode byte

const (
	OpError        Opcode = 0x00
	OpStartup      Opcode = 0x01
	OpReady        Opcode = 0x02
	OpAuthenticate Opcode = 0x03
	OpCredentials  Opcode = 0x04
	OpOptions      Opcode = 0x05
	OpSupported    Opcode = 0x06
	OpQuery        Opcode = 0x07
	OpResult       Opcode = 0x08
	OpPrepare      Opcode = 0x09
	OpExecute      Opcode = 0x0A
	OpRegister     Opcode = 0x0B
	OpEvent        Opcode = 0x0C
)

func (o Opcode) String() string {
	switch o {
	case OpError:
		return "ERROR"
	case OpStartup:
		return "STARTUP"
	case OpReady:
		return "READY"
	case OpAuthenticate:
		return "AUTHENTICATE"
	case OpCredentials:
		return "CREDENTIALS"
	case OpOptions:
		return "OPTIONS"
	case OpSupported:
		return "SUPPORTED"
	case OpQuery:
		return "QUERY"
	case OpResult:
		return "RESULT"
	case OpPrepare:
		return "PREPARE"
	case OpExecute:
		return "EXECUTE"
	case OpRegister:
		return "REGISTER"
	case OpEvent:
		return "EVENT"
	}
	return "UNKNOWN"
}

// Protocol version bytes (CQL native protocol v2).
const (
	RequestVersion  byte = 0x02
	ResponseVersion byte = 0x82
)

// Frame header flag bits.
const (
	FlagCompression byte = 0x01
	FlagTracing     byte = 0x02
)

// ResultKind identifies the kind-specific payload of a RESULT body.
type ResultKind int32

const (
	ResultVoid         ResultKind = 1
	ResultRows         ResultKind = 2
	ResultSetKeyspace  ResultKind = 3
	ResultPrepared     ResultKind = 4
	ResultSchemaChange ResultKind = 5
)

func (k ResultKind) String() string {
	switch k {
	case ResultVoid:
		return "VOID"
	case ResultRows:
		return "ROWS"
	case ResultSetKeyspace:
		return "SET_KEYSPACE"
	case ResultPrepared:
		return "PREPARED"
	case ResultSchemaChange:
		return "SCHEMA_CHANGE"
	}
	return "UNKNOWN"
}
