package frame

// ErrorBody is the ERROR opcode payload: a server-assigned error code and a
// human-readable message.
type ErrorBody struct {
	Code    int32
	Message string
}

func (b *ErrorBody) Opcode() Opcode { return OpError }

func (b *ErrorBody) writeTo(w *Writer) error {
	w.Int(b.Code)
	return w.String(b.Message)
}

func decodeErrorBody(r *Reader) (*ErrorBody, error) {
	code, err := r.Int()
	if err != nil {
		return nil, err
	}
	msg, err := r.String()
	if err != nil {
		return nil, err
	}
	return &ErrorBody{Code: code, Message: msg}, nil
}
