package frame

// PrepareBody is the PREPARE opcode payload: the CQL text to compile on
// the server.
type PrepareBody struct {
	CQL string
}

func (b *PrepareBody) Opcode() Opcode { return OpPrepare }

func (b *PrepareBody) writeTo(w *Writer) error {
	w.LongString(b.CQL)
	return nil
}

func decodePrepareBody(r *Reader) (*PrepareBody, error) {
	cql, err := r.LongString()
	if err != nil {
		return nil, err
	}
	return &PrepareBody{CQL: cql}, nil
}
