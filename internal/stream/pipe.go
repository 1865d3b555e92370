package stream

import (
	"context"
	"io"
	"sync"
)

// Pipe is a channel-backed Stream fed by a producer goroutine.
//
// The producer calls Send for each value and CloseWithError (or Close) when
// the sequence ends. The consumer reads through Next and may call Close to
// release the producer early; pending and future Send calls then fail with
// ErrClosed.
type Pipe[T any] struct {
	ch chan T

	ended   chan struct{} // closed by the producer
	endOnce sync.Once
	err     error

	done     chan struct{} // closed by the consumer
	doneOnce sync.Once
}

// NewPipe creates a Pipe buffering up to size values. size 0 makes every
// Send wait for the matching Next.
func NewPipe[T any](size int) *Pipe[T] {
	if size < 0 {
		size = 0
	}
	return &Pipe[T]{
		ch:    make(chan T, size),
		ended: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Send hands v to the consumer, blocking while the buffer is full.
func (p *Pipe[T]) Send(ctx context.Context, v T) error {
	select {
	case <-p.done:
		return ErrClosed
	case <-p.ended:
		return ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrClosed
	case p.ch <- v:
		return nil
	}
}

// CloseWithError ends the sequence. Values already sent are still delivered;
// afterwards Next returns err, or io.EOF when err is nil.
func (p *Pipe[T]) CloseWithError(err error) {
	p.endOnce.Do(func() {
		if err == nil {
			err = io.EOF
		}
		p.err = err
		close(p.ended)
	})
}

// End is CloseWithError(nil).
func (p *Pipe[T]) End() { p.CloseWithError(nil) }

// Done is closed once the consumer has closed the pipe.
func (p *Pipe[T]) Done() <-chan struct{} { return p.done }

// Next implements Stream.
func (p *Pipe[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-p.done:
		return zero, ErrClosed
	case v := <-p.ch:
		return v, nil
	case <-p.ended:
		// Drain values sent before the producer ended.
		select {
		case v := <-p.ch:
			return v, nil
		default:
		}
		return zero, p.err
	}
}

// Close implements Stream; it is the consumer-side close.
func (p *Pipe[T]) Close() error {
	p.doneOnce.Do(func() { close(p.done) })
	return nil
}
