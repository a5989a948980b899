package frame

// QueryBody is the QUERY opcode payload. Optional fields are gated by
// individual bits in Flags and, when present, contribute exactly once to
// the wire encoding in a fixed order: values, page-size, paging-state,
// serial-consistency.
type QueryBody struct {
	CQL                  string
	Consistency          Consistency
	Values               [][]byte
	SkipMetadata         bool
	PageSize             int32
	HasPageSize          bool
	PagingState          []byte
	HasPagingState       bool
	SerialConsistency    Consistency
	HasSerialConsistency bool
}

// QUERY flag bits. Each set flag contributes exactly once to the body,
// in the fixed order values, page-size, paging-state, serial-consistency.
const (
	queryFlagValues            byte = 0x01
	queryFlagSkipMetadata      byte = 0x02
	queryFlagPageSize          byte = 0x04
	queryFlagPagingState       byte = 0x08
	queryFlagSerialConsistency byte = 0x10
)

func (b *QueryBody) flags() byte {
	var f byte
	if len(b.Values) > 0 {
		f |= queryFlagValues
	}
	if b.SkipMetadata {
		f |= queryFlagSkipMetadata
	}
	if b.HasPageSize {
		f |= queryFlagPageSize
	}
	if b.HasPagingState {
		f |= queryFlagPagingState
	}
	if b.HasSerialConsistency {
		f |= queryFlagSerialConsistency
	}
	return f
}

func (b *QueryBody) Opcode() Opcode { return OpQuery }

func (b *QueryBody) writeTo(w *Writer) error {
	w.LongString(b.CQL)
	w.Short(uint16(b.Consistency))
	flags := b.flags()
	w.Byte(flags)
	if flags&queryFlagValues != 0 {
		if len(b.Values) > 0xFFFF {
			return invalid("too many query values")
		}
		w.Short(uint16(len(b.Values)))
		for _, v := range b.Values {
			w.BytesValue(v)
		}
	}
	if flags&queryFlagPageSize != 0 {
		w.Int(b.PageSize)
	}
	if flags&queryFlagPagingState != 0 {
		w.BytesValue(b.PagingState)
	}
	if flags&queryFlagSerialConsistency != 0 {
		w.Short(uint16(b.SerialConsistency))
	}
	return nil
}

func decodeQueryBody(r *Reader) (*QueryBody, error) {
	cql, err := r.LongString()
	if err != nil {
		return nil, err
	}
	cons, err := r.Short()
	if err != nil {
		return nil, err
	}
	flags, err := r.Byte()
	if err != nil {
		return nil, err
	}
	b := &QueryBody{CQL: cql, Consistency: Consistency(cons)}
	b.SkipMetadata = flags&queryFlagSkipMetadata != 0

	if flags&queryFlagValues != 0 {
		n, err := r.Short()
		if err != nil {
			return nil, err
		}
		b.Values = make([][]byte, 0, n)
		for i := uint16(0); i < n; i++ {
			v, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			b.Values = append(b.Values, v)
		}
	}
	if flags&queryFlagPageSize != 0 {
		ps, err := r.Int()
		if err != nil {
			return nil, err
		}
		b.PageSize = ps
		b.HasPageSize = true
	}
	if flags&queryFlagPagingState != 0 {
		ps, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		b.PagingState = ps
		b.HasPagingState = true
	}
	if flags&queryFlagSerialConsistency != 0 {
		sc, err := r.Short()
		if err != nil {
			return nil, err
		}
		b.SerialConsistency = Consistency(sc)
		b.HasSerialConsistency = true
	}
	return b, nil
}
