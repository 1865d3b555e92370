package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
)

const memoryPrefix = "memory:"

// remember handles "remember <key> is <value>" and "remember <key> <value>".
func remember(ctx context.Context, robot callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	key, value, ok := strings.Cut(argument(msg.Body()), " ")
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "is "))
	if !ok || key == "" || value == "" {
		return callback.Reply(chat.Reply(msg, "Usage: remember <key> is <value>")), nil
	}
	if err := robot.Set(ctx, memoryPrefix+strings.ToLower(key), value); err != nil {
		return nil, fmt.Errorf("remember %s: %w", key, err)
	}
	return callback.Reply(chat.Reply(msg, fmt.Sprintf("OK, %s is %s.", key, value))), nil
}

// recall handles "recall <key>".
func recall(ctx context.Context, robot callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	key := strings.TrimSuffix(argument(msg.Body()), "?")
	if key == "" {
		return callback.Reply(chat.Reply(msg, "Usage: recall <key>")), nil
	}
	value, err := robot.Get(ctx, memoryPrefix+strings.ToLower(key))
	switch {
	case errs.IsMissing(err):
		return callback.Reply(chat.Reply(msg, fmt.Sprintf("I don't know anything about %s.", key))), nil
	case err != nil:
		return nil, fmt.Errorf("recall %s: %w", key, err)
	}
	return callback.Reply(chat.Reply(msg, fmt.Sprintf("%s is %s.", key, value))), nil
}
