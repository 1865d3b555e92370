package builtin

import (
	"context"
	"strings"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/room"
)

// Greeter announces the robot in Room when it receives an event, usually
// startup.
type Greeter struct {
	Room    room.Room
	Message string
}

func (g *Greeter) HandleEvent(_ context.Context, robot callback.Robot, ev event.Event) (callback.Replies, error) {
	if g.Room.IsZero() {
		robot.Logger().Debug("greeter has no room", "event", ev.Name)
		return callback.NoReply(), nil
	}
	text := g.Message
	if text == "" {
		text = "{name} is online."
	}
	text = strings.ReplaceAll(text, "{name}", robot.Name())
	return callback.Reply(chat.ToRoom(text, g.Room)), nil
}

// announce posts the event's "message" payload to its "room" payload. The
// scheduler emits events in this shape.
func announce(_ context.Context, robot callback.Robot, ev event.Event) (callback.Replies, error) {
	text := ev.Get("message")
	target := ev.Get("room")
	if text == "" || target == "" {
		robot.Logger().Warn("announce event without room or message", "event", ev.Name)
		return callback.NoReply(), nil
	}
	return callback.Reply(chat.ToRoom(text, room.New(target))), nil
}
