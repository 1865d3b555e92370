package builtin

import (
	"context"
	"fmt"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/room"
)

func setTopic(ctx context.Context, robot callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	r, ok := msg.Room()
	if !ok {
		return callback.Reply(chat.Reply(msg, "Topics can only be set in a room.")), nil
	}
	topic := argument(msg.Body())
	if err := robot.SetTopic(ctx, r, topic); err != nil {
		return roomCapabilityReply(robot, msg, "Setting the topic", err)
	}
	return callback.NoReply(), nil
}

func join(ctx context.Context, robot callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	id := argument(msg.Body())
	if id == "" {
		return callback.Reply(chat.Reply(msg, "Usage: join <room>")), nil
	}
	if err := robot.Join(ctx, room.New(id)); err != nil {
		return roomCapabilityReply(robot, msg, "Joining rooms", err)
	}
	return callback.Reply(chat.Reply(msg, fmt.Sprintf("Joined %s.", id))), nil
}

// part leaves the named room, or the current one.
func part(ctx context.Context, robot callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	target, _ := msg.Room()
	if id := argument(msg.Body()); id != "" {
		target = room.New(id)
	}
	if target.IsZero() {
		return callback.Reply(chat.Reply(msg, "Usage: part <room>")), nil
	}
	if err := robot.Part(ctx, target); err != nil {
		return roomCapabilityReply(robot, msg, "Leaving rooms", err)
	}
	if cur, ok := msg.Room(); ok && cur == target {
		return callback.NoReply(), nil
	}
	return callback.Reply(chat.Reply(msg, fmt.Sprintf("Left %s.", target.ID()))), nil
}

// roomCapabilityReply degrades gracefully when the adapter lacks a
// capability and fails the callback otherwise.
func roomCapabilityReply(robot callback.Robot, msg chat.IncomingMessage, what string, err error) (callback.Replies, error) {
	if errs.IsUnimplemented(err) {
		robot.Logger().Debug("capability not supported", "capability", what)
		return callback.Reply(chat.Reply(msg, what+" is not supported on this chat service.")), nil
	}
	return nil, err
}
