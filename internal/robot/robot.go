package robot

import (
	"context"
	"log/slog"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/room"
)

var _ callback.Robot = (*Robot)(nil)

// Robot is the handle callbacks receive. It has no state of its own; every
// call goes to the brain's adapters.
type Robot struct {
	brain *Brain
}

func (r *Robot) Name() string         { return r.brain.name }
func (r *Robot) Logger() *slog.Logger { return r.brain.logger }

func (r *Robot) SendMessage(ctx context.Context, msg chat.OutgoingMessage) error {
	return r.brain.SendMessage(ctx, msg)
}

func (r *Robot) SetTopic(ctx context.Context, rm room.Room, topic string) error {
	return r.brain.SetTopic(ctx, rm, topic)
}

func (r *Robot) Join(ctx context.Context, rm room.Room) error { return r.brain.Join(ctx, rm) }
func (r *Robot) Part(ctx context.Context, rm room.Room) error { return r.brain.Part(ctx, rm) }

func (r *Robot) Get(ctx context.Context, key string) (string, error) {
	return r.brain.storage.Get(ctx, key)
}

func (r *Robot) Set(ctx context.Context, key, value string) error {
	return r.brain.storage.Set(ctx, key, value)
}

func (r *Robot) Emit(ctx context.Context, ev event.Event) error {
	return r.brain.Emit(ctx, ev)
}
