package channels

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config/channel"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
	"github.com/openchatops/oco/internal/user"
)

var errBridgeNotConnected = errors.New("bridge not connected")

// bridgeFrame is the JSON frame exchanged with a bridge process.
//
//	→ {"type":"auth","token":"..."}
//	← {"type":"message","room":"r1","user":{"id":"u1","name":"Ann"},"body":"ping"}
//	→ {"type":"send","room":"r1","user":{"id":"u1"},"body":"pong"}
//	→ {"type":"join","room":"r1"} / {"type":"part","room":"r1"}
//	← {"type":"status","status":"connected"} / {"type":"error","error":"..."}
type bridgeFrame struct {
	Type   string      `json:"type"`
	Token  string      `json:"token,omitempty"`
	Room   string      `json:"room,omitempty"`
	User   *bridgeUser `json:"user,omitempty"`
	Body   string      `json:"body,omitempty"`
	Status string      `json:"status,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type bridgeUser struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	MentionName string `json:"mentionName,omitempty"`
}

// BridgeAdapter connects to an external bridge process over a websocket and
// exchanges JSON frames with it. Lost connections are re-dialled; only
// exhausting MaxReconnects ends the incoming stream with an error.
type BridgeAdapter struct {
	Base
	chat.Unsupported
	cfg    channel.BridgeConfig
	dialer *websocket.Dialer

	mu   sync.Mutex // guards conn and serialises writes
	conn *websocket.Conn
}

func NewBridgeAdapter(cfg channel.BridgeConfig, logger *slog.Logger) *BridgeAdapter {
	if cfg.URL == "" {
		cfg.URL = channel.DefaultBridgeConfig().URL
	}
	return &BridgeAdapter{
		Base:   NewBase(channel.AdapterBridge, cfg.AllowFrom, logger),
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
	}
}

func (b *BridgeAdapter) Run(ctx context.Context) (stream.Stream[chat.IncomingMessage], error) {
	pipe := newIncoming()
	b.logger.Info("connecting to bridge", "url", b.cfg.URL)

	go func() {
		failures := 0
		for {
			connected, err := b.connectOnce(ctx, pipe)
			select {
			case <-ctx.Done():
				pipe.End()
				return
			case <-pipe.Done():
				return
			default:
			}
			if connected {
				failures = 0
			} else {
				failures++
			}
			if b.cfg.MaxReconnects > 0 && failures > b.cfg.MaxReconnects {
				pipe.CloseWithError(errs.IO("bridge connect", err))
				return
			}

			delay := time.Duration(b.cfg.ReconnectDelay) * time.Second
			b.logger.Warn("bridge connection lost, reconnecting", "err", err, "delay", delay)
			select {
			case <-ctx.Done():
				pipe.End()
				return
			case <-pipe.Done():
				return
			case <-time.After(delay):
			}
		}
	}()
	return pipe, nil
}

// connectOnce dials the bridge and reads frames until the connection
// fails. connected reports whether the dial succeeded.
func (b *BridgeAdapter) connectOnce(ctx context.Context, pipe *stream.Pipe[chat.IncomingMessage]) (connected bool, err error) {
	conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	if b.cfg.Token != "" {
		if err := conn.WriteJSON(bridgeFrame{Type: "auth", Token: b.cfg.Token}); err != nil {
			conn.Close()
			return false, err
		}
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	b.logger.Info("connected to bridge")

	stop := make(chan struct{})
	defer func() {
		close(stop)
		b.mu.Lock()
		b.conn = nil
		b.mu.Unlock()
		conn.Close()
	}()
	// Unblock ReadMessage on shutdown.
	go func() {
		select {
		case <-ctx.Done():
		case <-pipe.Done():
		case <-stop:
			return
		}
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		if !b.handleFrame(ctx, pipe, raw) {
			return true, stream.ErrClosed
		}
	}
}

func (b *BridgeAdapter) handleFrame(ctx context.Context, pipe *stream.Pipe[chat.IncomingMessage], raw []byte) bool {
	var f bridgeFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		b.logger.Warn("invalid bridge frame", "err", err)
		return true
	}
	switch f.Type {
	case "message":
		msg, ok := decodeBridgeMessage(f)
		if !ok {
			b.logger.Warn("bridge message without user or body")
			return true
		}
		return b.HandleMessage(ctx, pipe, msg.User().ID(), msg)
	case "status":
		b.logger.Info("bridge status", "status", f.Status)
	case "error":
		b.logger.Error("bridge error", "error", f.Error)
	default:
		b.logger.Debug("ignoring bridge frame", "type", f.Type)
	}
	return true
}

func decodeBridgeMessage(f bridgeFrame) (chat.IncomingMessage, bool) {
	if f.User == nil || f.User.ID == "" || f.Body == "" {
		return chat.IncomingMessage{}, false
	}
	name := f.User.Name
	if name == "" {
		name = f.User.ID
	}
	u := user.New(f.User.ID, name)
	if f.User.MentionName != "" {
		u = user.NewWithMention(f.User.ID, name, f.User.MentionName)
	}
	return chat.NewIncomingMessage(f.Body, u, room.New(f.Room)), true
}

func (b *BridgeAdapter) SendMessage(_ context.Context, msg chat.OutgoingMessage) error {
	f := bridgeFrame{Type: "send", Body: msg.Body()}
	if r, ok := msg.Room(); ok {
		f.Room = r.ID()
	}
	if u, ok := msg.User(); ok {
		f.User = &bridgeUser{ID: u.ID(), Name: u.Name(), MentionName: u.MentionName()}
	}
	if f.Room == "" && f.User == nil {
		return errs.Generic("bridge send: message has no room or user")
	}
	return errs.IO("bridge send", b.write(f))
}

func (b *BridgeAdapter) Join(_ context.Context, r room.Room) error {
	return errs.IO("bridge join", b.write(bridgeFrame{Type: "join", Room: r.ID()}))
}

func (b *BridgeAdapter) Part(_ context.Context, r room.Room) error {
	return errs.IO("bridge part", b.write(bridgeFrame{Type: "part", Room: r.ID()}))
}

func (b *BridgeAdapter) write(f bridgeFrame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return errBridgeNotConnected
	}
	return b.conn.WriteJSON(f)
}
