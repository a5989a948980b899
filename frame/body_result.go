package frame

// ResultBody is the RESULT opcode payload. Only the kind-specific fields
// relevant to connection bookkeeping are decoded; ROWS stays opaque since
// row decoding is outside this driver's scope.
type ResultBody struct {
	Kind ResultKind

	// ResultSetKeyspace
	Keyspace string

	// ResultPrepared
	PreparedID []byte
	// Metadata trailing the prepared id is retained undecoded: its shape
	// depends on result-set metadata this driver never parses.
	PreparedMetadata []byte

	// ResultSchemaChange
	ChangeType     string
	ChangeKeyspace string
	ChangeObject   string

	// ResultRows (and any other kind): the remainder of the body,
	// untouched.
	Opaque []byte
}

func (b *ResultBody) Opcode() Opcode { return OpResult }

func (b *ResultBody) writeTo(w *Writer) error {
	w.Int(int32(b.Kind))
	switch b.Kind {
	case ResultVoid:
		return nil
	case ResultSetKeyspace:
		return w.String(b.Keyspace)
	case ResultPrepared:
		if err := w.ShortBytes(b.PreparedID); err != nil {
			return err
		}
		w.buf = append(w.buf, b.PreparedMetadata...)
		return nil
	case ResultSchemaChange:
		if err := w.String(b.ChangeType); err != nil {
			return err
		}
		if err := w.String(b.ChangeKeyspace); err != nil {
			return err
		}
		return w.String(b.ChangeObject)
	default:
		w.buf = append(w.buf, b.Opaque...)
		return nil
	}
}

func decodeResultBody(r *Reader) (*ResultBody, error) {
	kindVal, err := r.Int()
	if err != nil {
		return nil, err
	}
	kind := ResultKind(kindVal)
	b := &ResultBody{Kind: kind}

	switch kind {
	case ResultVoid:
		// no payload
	case ResultSetKeyspace:
		ks, err := r.String()
		if err != nil {
			return nil, err
		}
		b.Keyspace = ks
	case ResultPrepared:
		id, err := r.ShortBytes()
		if err != nil {
			return nil, err
		}
		b.PreparedID = id
		b.PreparedMetadata = append([]byte(nil), r.buf[r.pos:]...)
		r.pos = len(r.buf)
	case ResultSchemaChange:
		ct, err := r.String()
		if err != nil {
			return nil, err
		}
		ks, err := r.String()
		if err != nil {
			return nil, err
		}
		obj, err := r.String()
		if err != nil {
			return nil, err
		}
		b.ChangeType, b.ChangeKeyspace, b.ChangeObject = ct, ks, obj
	default:
		b.Opaque = append([]byte(nil), r.buf[r.pos:]...)
		r.pos = len(r.buf)
	}
	return b, nil
}
