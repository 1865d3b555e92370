package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openchatops/oco/internal/event"
)

func TestEventBus_PublishConsumeOrder(t *testing.T) {
	b := NewEventBus(4)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := b.Publish(ctx, event.New(name, nil)); err != nil {
			t.Fatalf("Publish(%s): %v", name, err)
		}
	}
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	for _, want := range []string{"a", "b", "c"} {
		ev, ok := b.Consume(ctx)
		if !ok {
			t.Fatalf("Consume: bus unexpectedly closed")
		}
		if ev.Name != want {
			t.Errorf("got %q, want %q", ev.Name, want)
		}
	}
}

func TestEventBus_PublishBlocksUntilContextDone(t *testing.T) {
	b := NewEventBus(1)
	if err := b.Publish(context.Background(), event.New("fill", nil)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Publish(ctx, event.New("overflow", nil))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestEventBus_Close(t *testing.T) {
	b := NewEventBus(0)
	b.Close()
	b.Close() // idempotent

	if err := b.Publish(context.Background(), event.New("late", nil)); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close: err = %v, want ErrClosed", err)
	}
	if _, ok := b.Consume(context.Background()); ok {
		t.Error("Consume after Close should report !ok")
	}
	select {
	case <-b.Done():
	default:
		t.Error("Done not closed")
	}
}
