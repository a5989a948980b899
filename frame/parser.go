package frame

import "fmt"

type parserState int

const (
	parsingHeader parserState = iota
	parsingBody
)

// Parser incrementally assembles Frames from arbitrary TCP chunk
// boundaries. Feed may be called with any slice length, including one
// byte at a time or many frames at once; completed frames are appended
// to the returned slice in arrival order. Once Feed returns an error the
// Parser is terminal: it never attempts resynchronization, and every
// subsequent Feed call returns the same error.
type Parser struct {
	state  parserState
	header [8]byte
	hPos   int

	hVersion byte
	hFlags   byte
	hStream  int8
	hOpcode  Opcode
	hLength  int

	body []byte
	bPos int

	maxBodyLength int
	fatal         error
}

// NewParser returns a Parser with the default 256 MiB body size ceiling.
func NewParser() *Parser {
	return &Parser{maxBodyLength: MaxBodyLength}
}

// Feed consumes data and returns every Frame completed by it, in order.
func (p *Parser) Feed(data []byte) ([]*Frame, error) {
	if p.fatal != nil {
		return nil, p.fatal
	}
	var frames []*Frame
	for {
		switch p.state {
		case parsingHeader:
			if p.hPos < 8 {
				if len(data) == 0 {
					return frames, nil
				}
				n := copy(p.header[p.hPos:], data)
				p.hPos += n
				data = data[n:]
				if p.hPos < 8 {
					return frames, nil
				}
			}
			if err := p.onHeaderComplete(); err != nil {
				p.fatal = err
				return frames, err
			}

		case parsingBody:
			need := len(p.body) - p.bPos
			if need > 0 {
				if len(data) == 0 {
					return frames, nil
				}
				n := copy(p.body[p.bPos:], data)
				p.bPos += n
				data = data[n:]
				if p.bPos < len(p.body) {
					return frames, nil
				}
			}
			f, err := p.onBodyComplete()
			if err != nil {
				p.fatal = err
				return frames, err
			}
			frames = append(frames, f)
		}
	}
}

func (p *Parser) onHeaderComplete() error {
	p.hVersion = p.header[0]
	p.hFlags = p.header[1]
	p.hStream = int8(p.header[2])
	p.hOpcode = Opcode(p.header[3])
	length := int32(uint32(p.header[4])<<24 | uint32(p.header[5])<<16 | uint32(p.header[6])<<8 | uint32(p.header[7]))

	if length < 0 {
		return &ProtocolError{Kind: OversizedFrame, Detail: fmt.Sprintf("negative length %d", length)}
	}
	if int(length) > p.maxBodyLength {
		return &ProtocolError{Kind: OversizedFrame, Detail: fmt.Sprintf("length %d exceeds %d", length, p.maxBodyLength)}
	}
	if !knownOpcode(p.hOpcode) {
		return &ProtocolError{Kind: UnknownOpcode, Detail: fmt.Sprintf("opcode 0x%02X", byte(p.hOpcode))}
	}
	p.hLength = int(length)
	if cap(p.body) >= p.hLength {
		p.body = p.body[:p.hLength]
	} else {
		p.body = make([]byte, p.hLength)
	}
	p.bPos = 0
	p.state = parsingBody
	return nil
}

func (p *Parser) onBodyComplete() (*Frame, error) {
	decoded, err := DecodeBody(p.hOpcode, p.body)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		Version: p.hVersion,
		Flags:   p.hFlags,
		Stream:  p.hStream,
		Opcode:  p.hOpcode,
		Body:    decoded,
	}
	p.hPos = 0
	p.bPos = 0
	p.state = parsingHeader
	return f, nil
}

func knownOpcode(o Opcode) bool {
	switch o {
	case OpError, OpStartup, OpReady, OpAuthenticate, OpCredentials,
		OpOptions, OpSupported, OpQuery, OpResult, OpPrepare, OpExecute,
		OpRegister, OpEvent:
		return true
	}
	return false
}
