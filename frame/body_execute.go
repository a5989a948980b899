package frame

// ExecuteBody is the EXECUTE opcode payload: a prepared statement id plus
// the same parameter shape as QueryBody.
type ExecuteBody struct {
	PreparedID []byte
	Query      QueryParams
}

// QueryParams is the QUERY-shaped parameter block shared by QueryBody and
// ExecuteBody, factored out so EXECUTE doesn't carry a redundant CQL string.
type QueryParams struct {
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

func (p *QueryParams) flags() byte {
	var f byte
	if len(p.Values) > 0 {
		f |= queryFlagValues
	}
	if p.SkipMetadata {
		f |= queryFlagSkipMetadata
	}
	if p.HasPageSize {
		f |= queryFlagPageSize
	}
	if p.HasPagingState {
		f |= queryFlagPagingState
	}
	if p.HasSerialConsistency {
		f |= queryFlagSerialConsistency
	}
	return f
}

func (p *QueryParams) writeTo(w *Writer) error {
	w.Short(uint16(p.Consistency))
	flags := p.flags()
	w.Byte(flags)
	if flags&queryFlagValues != 0 {
		if len(p.Values) > 0xFFFF {
			return invalid("too many execute values")
		}
		w.Short(uint16(len(p.Values)))
		for _, v := range p.Values {
			w.BytesValue(v)
		}
	}
	if flags&queryFlagPageSize != 0 {
		w.Int(p.PageSize)
	}
	if flags&queryFlagPagingState != 0 {
		w.BytesValue(p.PagingState)
	}
	if flags&queryFlagSerialConsistency != 0 {
		w.Short(uint16(p.SerialConsistency))
	}
	return nil
}

func decodeQueryParams(r *Reader) (QueryParams, error) {
	var p QueryParams
	cons, err := r.Short()
	if err != nil {
		return p, err
	}
	flags, err := r.Byte()
	if err != nil {
		return p, err
	}
	p.Consistency = Consistency(cons)
	p.SkipMetadata = flags&queryFlagSkipMetadata != 0

	if flags&queryFlagValues != 0 {
		n, err := r.Short()
		if err != nil {
			return p, err
		}
		p.Values = make([][]byte, 0, n)
		for i := uint16(0); i < n; i++ {
			v, err := r.Bytes()
			if err != nil {
				return p, err
			}
			p.Values = append(p.Values, v)
		}
	}
	if flags&queryFlagPageSize != 0 {
		ps, err := r.Int()
		if err != nil {
			return p, err
		}
		p.PageSize = ps
		p.HasPageSize = true
	}
	if flags&queryFlagPagingState != 0 {
		ps, err := r.Bytes()
		if err != nil {
			return p, err
		}
		p.PagingState = ps
		p.HasPagingState = true
	}
	if flags&queryFlagSerialConsistency != 0 {
		sc, err := r.Short()
		if err != nil {
			return p, err
		}
		p.SerialConsistency = Consistency(sc)
		p.HasSerialConsistency = true
	}
	return p, nil
}

func (b *ExecuteBody) Opcode() Opcode { return OpExecute }

func (b *ExecuteBody) writeTo(w *Writer) error {
	if err := w.ShortBytes(b.PreparedID); err != nil {
		return err
	}
	return b.Query.writeTo(w)
}

func decodeExecuteBody(r *Reader) (*ExecuteBody, error) {
	id, err := r.ShortBytes()
	if err != nil {
		return nil, err
	}
	params, err := decodeQueryParams(r)
	if err != nil {
		return nil, err
	}
	return &ExecuteBody{PreparedID: id, Query: params}, nil
}
