package builtin

import (
	"context"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
)

func ping(_ context.Context, _ callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	return callback.Reply(chat.Reply(msg, "pong")), nil
}

// echo repeats everything after the command word.
func echo(_ context.Context, _ callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	text := argument(msg.Body())
	if text == "" {
		return callback.NoReply(), nil
	}
	return callback.Reply(chat.Reply(msg, text)), nil
}
