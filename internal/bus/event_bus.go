package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/openchatops/oco/internal/event"
)

const DefaultBufferSize = 64

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// EventBus carries emitted events to the robot's dispatch loop. Publishers
// block while the buffer is full, until ctx is done or the bus closes.
type EventBus struct {
	ch chan event.Event

	done      chan struct{}
	closeOnce sync.Once
}

func NewEventBus(bufSize int) *EventBus {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &EventBus{
		ch:   make(chan event.Event, bufSize),
		done: make(chan struct{}),
	}
}

// Publish queues ev for dispatch.
func (b *EventBus) Publish(ctx context.Context, ev event.Event) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	case b.ch <- ev:
		return nil
	}
}

// Consume blocks for the next event. ok is false once ctx is done or the
// bus is closed.
func (b *EventBus) Consume(ctx context.Context) (ev event.Event, ok bool) {
	select {
	case <-ctx.Done():
		return event.Event{}, false
	case <-b.done:
		return event.Event{}, false
	case ev = <-b.ch:
		return ev, true
	}
}

// Events returns the receive side for use in a select. It is never closed;
// pair it with Done.
func (b *EventBus) Events() <-chan event.Event { return b.ch }

// Done is closed by Close.
func (b *EventBus) Done() <-chan struct{} { return b.done }

// Len is the number of queued events.
func (b *EventBus) Len() int { return len(b.ch) }

// Close stops the bus. Queued events are dropped.
func (b *EventBus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
