package callback

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/stream"
)

// WebSocketCallback invokes a remote callback over a short-lived websocket:
// one Request frame out, Frames back until "done" or "error".
type WebSocketCallback struct {
	url    string
	dialer *websocket.Dialer
}

// NewWebSocketCallback returns the callback reachable at url.
func NewWebSocketCallback(url string, dialer *websocket.Dialer) *WebSocketCallback {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WebSocketCallback{url: url, dialer: dialer}
}

func (w *WebSocketCallback) HandleMessage(ctx context.Context, robot Robot, msg chat.IncomingMessage) (Replies, error) {
	return w.call(ctx, Request{
		Kind:    KindChat,
		Robot:   robot.Name(),
		Route:   w.url,
		Message: EncodeIncoming(msg),
	})
}

func (w *WebSocketCallback) HandleEvent(ctx context.Context, robot Robot, ev event.Event) (Replies, error) {
	return w.call(ctx, Request{
		Kind:  KindEvent,
		Robot: robot.Name(),
		Route: w.url,
		Event: &ev,
	})
}

func (w *WebSocketCallback) call(ctx context.Context, req Request) (Replies, error) {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, errs.IO("dial "+w.url, err)
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, errs.IO("write "+w.url, err)
	}

	var closeOnce sync.Once
	closeConn := func() error {
		var err error
		closeOnce.Do(func() {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			err = conn.Close()
		})
		return err
	}

	finished := false
	next := func(ctx context.Context) (chat.OutgoingMessage, error) {
		if finished {
			return chat.OutgoingMessage{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return chat.OutgoingMessage{}, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(deadline)
		}
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				finished = true
				return chat.OutgoingMessage{}, io.EOF
			}
			return chat.OutgoingMessage{}, errs.IO("read "+w.url, err)
		}
		msg, done, err := decodeFrame(f)
		if done {
			finished = true
			return chat.OutgoingMessage{}, io.EOF
		}
		if err != nil {
			return chat.OutgoingMessage{}, fmt.Errorf("%s: %w", w.url, err)
		}
		return msg, nil
	}
	return stream.Func(next, closeConn), nil
}
