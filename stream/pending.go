package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mickamy/cqlcore/frame"
)

// Pending is a future-like handle for one in-flight request. It is
// constructed by the caller, handed to the connection, and fulfilled
// exactly once — by the matching response, a connection-level failure,
// or an explicit cancellation. The ready flag is safe to read from any
// goroutine without holding a lock.
type Pending struct {
	ready atomic.Bool
	done  chan struct{}
	once  sync.Once

	resp *frame.Frame
	err  error

	callback func(*frame.Frame, error)
}

// NewPending returns an unfulfilled handle.
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// OnComplete registers a callback invoked on a worker goroutine (never
// the connection's I/O loop) after the handle is fulfilled. Must be
// called before the handle is submitted to the connection; registering
// after completion is a no-op.
func (p *Pending) OnComplete(cb func(*frame.Frame, error)) {
	p.callback = cb
}

// Complete fulfills the handle with a response frame.
func (p *Pending) Complete(f *frame.Frame) {
	p.finish(f, nil)
}

// Fail fulfills the handle with an error (connection loss, cancellation,
// or a server-reported failure on this stream).
func (p *Pending) Fail(err error) {
	p.finish(nil, err)
}

func (p *Pending) finish(f *frame.Frame, err error) {
	p.once.Do(func() {
		p.resp = f
		p.err = err
		p.ready.Store(true)
		close(p.done)
		if p.callback != nil {
			go p.callback(f, err)
		}
	})
}

// Ready reports whether the handle has been fulfilled.
func (p *Pending) Ready() bool {
	return p.ready.Load()
}

// Wait blocks until the handle is fulfilled.
func (p *Pending) Wait() (*frame.Frame, error) {
	<-p.done
	return p.resp, p.err
}

// WaitContext blocks until the handle is fulfilled or ctx is done,
// whichever comes first. A context timeout does not release the stream
// ID; that happens only on server response or connection close.
func (p *Pending) WaitContext(ctx context.Context) (*frame.Frame, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
