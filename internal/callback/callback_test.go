package callback

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
	"github.com/openchatops/oco/internal/user"
)

// stubRobot satisfies Robot for invoker tests that only need a name.
type stubRobot struct{}

func (stubRobot) Name() string                                          { return "testbot" }
func (stubRobot) Logger() *slog.Logger                                  { return slog.Default() }
func (stubRobot) SendMessage(context.Context, chat.OutgoingMessage) error { return nil }
func (stubRobot) SetTopic(context.Context, room.Room, string) error     { return nil }
func (stubRobot) Join(context.Context, room.Room) error                 { return nil }
func (stubRobot) Part(context.Context, room.Room) error                 { return nil }
func (stubRobot) Get(context.Context, string) (string, error)           { return "", nil }
func (stubRobot) Set(context.Context, string, string) error             { return nil }
func (stubRobot) Emit(context.Context, event.Event) error               { return nil }

func incoming() chat.IncomingMessage {
	return chat.NewIncomingMessage("ping", user.New("U1", "alice"), room.New("C1"))
}

func TestResolver_Local(t *testing.T) {
	reg := NewRegistry()
	addr := reg.RegisterChat("ping", ChatFunc(func(ctx context.Context, _ Robot, msg chat.IncomingMessage) (Replies, error) {
		return Reply(chat.Reply(msg, "pong")), nil
	}))
	res := NewResolver(reg)

	cb, err := res.Chat(addr)
	require.NoError(t, err)

	replies, err := cb.HandleMessage(context.Background(), stubRobot{}, incoming())
	require.NoError(t, err)
	out, err := stream.Collect(context.Background(), replies)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "pong", out[0].Body())

	_, err = res.Chat(Local("missing"))
	assert.Error(t, err)
	_, err = res.Event(addr)
	assert.Error(t, err, "chat registration must not satisfy event lookups")
}

func TestResolver_Check(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterChat("ping", ChatFunc(nil))
	res := NewResolver(reg)

	tbl := NewTable()
	tbl.AddChat(mustChatRoute(t, "ping", "ping"))
	assert.NoError(t, res.Check(tbl))

	tbl.AddEvent(mustEventRoute(t, "nobody", "startup"))
	assert.Error(t, res.Check(tbl))
}

func TestHTTPCallback_StreamsNDJSON(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, jsonDecode(r, &got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"type":"message","message":{"body":"one","room":"C1"}}` + "\n"))
		_, _ = w.Write([]byte(`{"type":"message","message":{"body":"two","user":{"id":"U1","name":"alice"}}}` + "\n"))
		_, _ = w.Write([]byte(`{"type":"done"}` + "\n"))
	}))
	defer srv.Close()

	res := NewResolver(nil, WithHTTPClient(srv.Client()))
	cb, err := res.Chat(MustParseAddress(srv.URL + "/hook"))
	require.NoError(t, err)

	replies, err := cb.HandleMessage(context.Background(), stubRobot{}, incoming())
	require.NoError(t, err)
	out, err := stream.Collect(context.Background(), replies)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "one", out[0].Body())
	r, ok := out[0].Room()
	assert.True(t, ok)
	assert.Equal(t, "C1", r.ID())
	u, ok := out[1].User()
	assert.True(t, ok)
	assert.Equal(t, "alice", u.Name())

	assert.Equal(t, KindChat, got.Kind)
	assert.Equal(t, "testbot", got.Robot)
	require.NotNil(t, got.Message)
	assert.Equal(t, "ping", got.Message.Body)
	assert.Equal(t, "C1", got.Message.Room)
}

func TestHTTPCallback_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := NewHTTPCallback(srv.URL, srv.Client())
	_, err := cb.HandleEvent(context.Background(), stubRobot{}, event.New("startup", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPCallback_ErrorFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"message","message":{"body":"partial","room":"C1"}}` + "\n"))
		_, _ = w.Write([]byte(`{"type":"error","error":"exploded"}` + "\n"))
	}))
	defer srv.Close()

	cb := NewHTTPCallback(srv.URL, srv.Client())
	replies, err := cb.HandleMessage(context.Background(), stubRobot{}, incoming())
	require.NoError(t, err)

	out, err := stream.Collect(context.Background(), replies)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exploded")
	require.Len(t, out, 1)
	assert.Equal(t, "partial", out[0].Body())
}

func TestWebSocketCallback_Frames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteJSON(Frame{Type: FrameMessage, Message: &WireMessage{Body: "event:" + req.Event.Name, Room: "C9"}})
		_ = conn.WriteJSON(Frame{Type: FrameDone})
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	res := NewResolver(nil)
	cb, err := res.Event(MustParseAddress(wsURL))
	require.NoError(t, err)

	replies, err := cb.HandleEvent(context.Background(), stubRobot{}, event.New("deploy", nil))
	require.NoError(t, err)
	out, err := stream.Collect(context.Background(), replies)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "event:deploy", out[0].Body())
}

func TestDecodeOutgoing_RequiresTarget(t *testing.T) {
	_, err := DecodeOutgoing(&WireMessage{Body: "lost"})
	assert.Error(t, err)

	msg, err := DecodeOutgoing(&WireMessage{Body: "hi", Room: "C1", User: &WireUser{ID: "U1", Name: "alice", MentionName: "al"}})
	require.NoError(t, err)
	u, ok := msg.User()
	require.True(t, ok)
	assert.Equal(t, "al", u.MentionName())
	_, ok = msg.Room()
	assert.True(t, ok)
}
