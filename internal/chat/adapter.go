package chat

import (
	"context"

	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
)

// Adapter bridges the robot to one chat service.
//
// Run and SendMessage are required. SetTopic, Join and Part are optional
// capabilities; adapters that do not support them embed Unsupported, which
// answers errs.ErrUnimplemented.
type Adapter interface {
	// Name returns the adapter identifier (e.g. "slack").
	Name() string
	// Run connects and returns the stream of incoming messages. The stream
	// ends with io.EOF on shutdown and with any other error on
	// unrecoverable failure.
	Run(ctx context.Context) (stream.Stream[IncomingMessage], error)
	// SendMessage delivers msg.
	SendMessage(ctx context.Context, msg OutgoingMessage) error
	// SetTopic sets the topic of r.
	SetTopic(ctx context.Context, r room.Room, topic string) error
	// Join makes the robot join r.
	Join(ctx context.Context, r room.Room) error
	// Part makes the robot leave r.
	Part(ctx context.Context, r room.Room) error
}

// Unsupported provides the default implementation of the optional
// capabilities. Embed it and override what the service supports.
type Unsupported struct{}

func (Unsupported) SetTopic(context.Context, room.Room, string) error { return errs.ErrUnimplemented }
func (Unsupported) Join(context.Context, room.Room) error             { return errs.ErrUnimplemented }
func (Unsupported) Part(context.Context, room.Room) error             { return errs.ErrUnimplemented }
