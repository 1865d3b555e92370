package callback

import (
	"context"
	"log/slog"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
)

// Robot is the handle a callback receives. It carries no per-call state and
// is safe to use from several callbacks at once.
type Robot interface {
	Name() string
	Logger() *slog.Logger

	SendMessage(ctx context.Context, msg chat.OutgoingMessage) error
	SetTopic(ctx context.Context, r room.Room, topic string) error
	Join(ctx context.Context, r room.Room) error
	Part(ctx context.Context, r room.Room) error

	// Get and Set read and write the robot's storage.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// Emit queues an event for dispatch to event routes.
	Emit(ctx context.Context, ev event.Event) error
}

// Replies is the lazy sequence of messages a callback produces.
type Replies = stream.Stream[chat.OutgoingMessage]

// ChatCallback processes an incoming message that matched one of its routes.
type ChatCallback interface {
	HandleMessage(ctx context.Context, robot Robot, msg chat.IncomingMessage) (Replies, error)
}

// EventCallback processes an event it was routed.
type EventCallback interface {
	HandleEvent(ctx context.Context, robot Robot, ev event.Event) (Replies, error)
}

// ChatFunc adapts a function to ChatCallback.
type ChatFunc func(ctx context.Context, robot Robot, msg chat.IncomingMessage) (Replies, error)

func (f ChatFunc) HandleMessage(ctx context.Context, robot Robot, msg chat.IncomingMessage) (Replies, error) {
	return f(ctx, robot, msg)
}

// EventFunc adapts a function to EventCallback.
type EventFunc func(ctx context.Context, robot Robot, ev event.Event) (Replies, error)

func (f EventFunc) HandleEvent(ctx context.Context, robot Robot, ev event.Event) (Replies, error) {
	return f(ctx, robot, ev)
}

// Reply returns a finished sequence of msgs.
func Reply(msgs ...chat.OutgoingMessage) Replies {
	return stream.Of(msgs...)
}

// NoReply returns an empty sequence.
func NoReply() Replies {
	return stream.Empty[chat.OutgoingMessage]()
}
