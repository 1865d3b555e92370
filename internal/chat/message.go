// Package chat defines textual chat messages and the chat adapter contract.
package chat

import (
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/user"
)

// IncomingMessage is one inbound textual chat message.
type IncomingMessage struct {
	body string
	room room.Room // zero = direct message
	user user.User
}

// NewIncomingMessage creates an IncomingMessage. Pass the zero Room for
// messages that were not sent in a room.
func NewIncomingMessage(body string, u user.User, r room.Room) IncomingMessage {
	return IncomingMessage{body: body, user: u, room: r}
}

func (m IncomingMessage) Body() string    { return m.body }
func (m IncomingMessage) User() user.User { return m.user }

// Room returns the room the message was sent from, if any.
func (m IncomingMessage) Room() (room.Room, bool) { return m.room, !m.room.IsZero() }

// Preview returns a short snippet of the body for logging.
func (m IncomingMessage) Preview() string { return preview(m.body) }

// OutgoingMessage is one textual chat message to be delivered by an adapter.
// The room and user determine the target: room broadcast, direct message, or
// a message addressed to a user inside a room.
type OutgoingMessage struct {
	body string
	room room.Room
	user user.User
}

// ToRoom creates a message for everyone in r.
func ToRoom(body string, r room.Room) OutgoingMessage {
	return OutgoingMessage{body: body, room: r}
}

// ToUser creates a direct message to u.
func ToUser(body string, u user.User) OutgoingMessage {
	return OutgoingMessage{body: body, user: u}
}

// ToUserInRoom creates a message in r addressed to u.
func ToUserInRoom(body string, r room.Room, u user.User) OutgoingMessage {
	return OutgoingMessage{body: body, room: r, user: u}
}

// Reply targets the origin of in: its room when it has one, otherwise its
// sender as a direct message.
func Reply(in IncomingMessage, body string) OutgoingMessage {
	if r, ok := in.Room(); ok {
		return ToRoom(body, r)
	}
	return ToUser(body, in.User())
}

func (m OutgoingMessage) Body() string { return m.body }

// Room returns the target room, if any.
func (m OutgoingMessage) Room() (room.Room, bool) { return m.room, !m.room.IsZero() }

// User returns the target or addressed user, if any.
func (m OutgoingMessage) User() (user.User, bool) { return m.user, !m.user.IsZero() }

func (m OutgoingMessage) Preview() string { return preview(m.body) }

func preview(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
