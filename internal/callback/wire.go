package callback

import (
	"fmt"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/user"
)

// Request kinds sent to remote callbacks.
const (
	KindChat  = "chat"
	KindEvent = "event"
)

// Frame types returned by remote callbacks.
const (
	FrameMessage = "message"
	FrameError   = "error"
	FrameDone    = "done"
)

// WireUser is the JSON form of a user.
type WireUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MentionName string `json:"mentionName,omitempty"`
}

// WireMessage is the JSON form of an incoming or outgoing message.
type WireMessage struct {
	Body string    `json:"body"`
	Room string    `json:"room,omitempty"`
	User *WireUser `json:"user,omitempty"`
}

// Request is what a remote callback receives for one invocation.
type Request struct {
	Kind    string       `json:"kind"`
	Robot   string       `json:"robot"`
	Route   string       `json:"route"`
	Message *WireMessage `json:"message,omitempty"`
	Event   *event.Event `json:"event,omitempty"`
}

// Frame is one unit of a remote callback's response stream.
type Frame struct {
	Type    string       `json:"type"`
	Message *WireMessage `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func encodeUser(u user.User) *WireUser {
	if u.IsZero() {
		return nil
	}
	w := &WireUser{ID: u.ID(), Name: u.Name()}
	if m := u.MentionName(); m != u.Name() {
		w.MentionName = m
	}
	return w
}

func decodeUser(w *WireUser) user.User {
	if w == nil {
		return user.User{}
	}
	if w.MentionName != "" {
		return user.NewWithMention(w.ID, w.Name, w.MentionName)
	}
	return user.New(w.ID, w.Name)
}

// EncodeIncoming converts msg to its JSON form.
func EncodeIncoming(msg chat.IncomingMessage) *WireMessage {
	w := &WireMessage{Body: msg.Body(), User: encodeUser(msg.User())}
	if r, ok := msg.Room(); ok {
		w.Room = r.ID()
	}
	return w
}

// DecodeIncoming converts w back into an IncomingMessage.
func DecodeIncoming(w *WireMessage) chat.IncomingMessage {
	return chat.NewIncomingMessage(w.Body, decodeUser(w.User), room.New(w.Room))
}

// EncodeOutgoing converts msg to its JSON form.
func EncodeOutgoing(msg chat.OutgoingMessage) *WireMessage {
	w := &WireMessage{Body: msg.Body()}
	if r, ok := msg.Room(); ok {
		w.Room = r.ID()
	}
	if u, ok := msg.User(); ok {
		w.User = encodeUser(u)
	}
	return w
}

// DecodeOutgoing converts w into an OutgoingMessage. A message must name a
// room, a user, or both.
func DecodeOutgoing(w *WireMessage) (chat.OutgoingMessage, error) {
	if w == nil {
		return chat.OutgoingMessage{}, fmt.Errorf("message frame without message")
	}
	r := room.New(w.Room)
	u := decodeUser(w.User)
	switch {
	case !r.IsZero() && !u.IsZero():
		return chat.ToUserInRoom(w.Body, r, u), nil
	case !r.IsZero():
		return chat.ToRoom(w.Body, r), nil
	case !u.IsZero():
		return chat.ToUser(w.Body, u), nil
	default:
		return chat.OutgoingMessage{}, fmt.Errorf("outgoing message has neither room nor user")
	}
}

// decodeFrame turns one response frame into the next stream step. done is
// true when the frame ends the sequence normally.
func decodeFrame(f Frame) (msg chat.OutgoingMessage, done bool, err error) {
	switch f.Type {
	case FrameMessage, "":
		msg, err = DecodeOutgoing(f.Message)
		return msg, false, err
	case FrameDone:
		return chat.OutgoingMessage{}, true, nil
	case FrameError:
		return chat.OutgoingMessage{}, false, fmt.Errorf("remote callback: %s", f.Error)
	default:
		return chat.OutgoingMessage{}, false, fmt.Errorf("unknown frame type %q", f.Type)
	}
}
