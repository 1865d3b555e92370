package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/stream"
)

const maxErrorBody = 4096

// HTTPCallback invokes a remote callback by POSTing a Request and reading
// an NDJSON stream of Frames from the response body.
type HTTPCallback struct {
	url    string
	client *http.Client
}

// NewHTTPCallback returns the callback reachable at url.
func NewHTTPCallback(url string, client *http.Client) *HTTPCallback {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPCallback{url: url, client: client}
}

func (h *HTTPCallback) HandleMessage(ctx context.Context, robot Robot, msg chat.IncomingMessage) (Replies, error) {
	return h.call(ctx, Request{
		Kind:    KindChat,
		Robot:   robot.Name(),
		Route:   h.url,
		Message: EncodeIncoming(msg),
	})
}

func (h *HTTPCallback) HandleEvent(ctx context.Context, robot Robot, ev event.Event) (Replies, error) {
	return h.call(ctx, Request{
		Kind:  KindEvent,
		Robot: robot.Name(),
		Route: h.url,
		Event: &ev,
	})
}

func (h *HTTPCallback) call(ctx context.Context, req Request) (Replies, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode callback request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build callback request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, errs.IO("post "+h.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, errs.Genericf("callback %s: status %d: %s", h.url, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return NoReply(), nil
	}

	dec := json.NewDecoder(resp.Body)
	finished := false
	next := func(ctx context.Context) (chat.OutgoingMessage, error) {
		if finished {
			return chat.OutgoingMessage{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return chat.OutgoingMessage{}, err
		}
		var f Frame
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				finished = true
				return chat.OutgoingMessage{}, io.EOF
			}
			return chat.OutgoingMessage{}, errs.IO("read "+h.url, err)
		}
		msg, done, err := decodeFrame(f)
		if done {
			finished = true
			return chat.OutgoingMessage{}, io.EOF
		}
		return msg, err
	}
	return stream.Func(next, resp.Body.Close), nil
}
