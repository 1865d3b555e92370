// Package stream provides lazily pulled, cancellable sequences.
//
// A Stream yields values through Next until it returns an error. io.EOF marks
// the normal end of the sequence; any other error is a fatal terminal value.
package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned when reading from or writing to a stream whose
// consumer has already closed it.
var ErrClosed = errors.New("stream closed")

// Stream is a pull-based sequence of values.
type Stream[T any] interface {
	// Next blocks until the next value is available, the sequence ends
	// (io.EOF), it fails, or ctx is done.
	Next(ctx context.Context) (T, error)
	// Close releases the producer. Values not yet pulled are discarded.
	Close() error
}

// ---------------------------------------------------------------------------
// Fixed sequences
// ---------------------------------------------------------------------------

type sliceStream[T any] struct {
	mu    sync.Mutex
	items []T
	err   error
}

// Of returns a stream yielding items in order, then io.EOF.
func Of[T any](items ...T) Stream[T] {
	return &sliceStream[T]{items: items, err: io.EOF}
}

// Empty returns a stream that ends immediately.
func Empty[T any]() Stream[T] {
	return &sliceStream[T]{err: io.EOF}
}

// Fail returns a stream whose first Next fails with err.
func Fail[T any](err error) Stream[T] {
	return &sliceStream[T]{err: err}
}

func (s *sliceStream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return zero, s.err
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v, nil
}

func (s *sliceStream[T]) Close() error {
	s.mu.Lock()
	s.items = nil
	s.err = ErrClosed
	s.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// Function-backed sequences
// ---------------------------------------------------------------------------

type funcStream[T any] struct {
	next  func(ctx context.Context) (T, error)
	close func() error
}

// Func adapts a generator function into a Stream. onClose may be nil.
func Func[T any](next func(ctx context.Context) (T, error), onClose func() error) Stream[T] {
	return &funcStream[T]{next: next, close: onClose}
}

func (s *funcStream[T]) Next(ctx context.Context) (T, error) { return s.next(ctx) }

func (s *funcStream[T]) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Collect drains s into a slice. It returns the values read so far together
// with the first non-EOF error.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	defer s.Close()
	var out []T
	for {
		v, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}
