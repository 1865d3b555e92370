// Package channels provides the concrete chat adapters.
package channels

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/stream"
)

const incomingBuffer = 32

// Base holds state and helpers shared by all adapters: the allowlist and
// the pipe feeding the incoming stream.
type Base struct {
	name      string
	allowFrom []string // empty = allow all
	logger    *slog.Logger
}

// NewBase creates a Base with the given adapter name and allowlist.
func NewBase(name string, allowFrom []string, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.Default()
	}
	return Base{name: name, allowFrom: allowFrom, logger: logger.With("component", "chat", "adapter", name)}
}

func (b *Base) Name() string { return b.name }

// IsAllowed checks whether senderID is on the allowlist.
// senderID may be "id|username" (Telegram) or a plain string.
func (b *Base) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, allowed := range b.allowFrom {
		if allowed == senderID {
			return true
		}
	}
	if strings.Contains(senderID, "|") {
		for _, part := range strings.Split(senderID, "|") {
			if part == "" {
				continue
			}
			for _, allowed := range b.allowFrom {
				if allowed == part {
					return true
				}
			}
		}
	}
	return false
}

// newIncoming creates the pipe an adapter's Run hands out.
func newIncoming() *stream.Pipe[chat.IncomingMessage] {
	return stream.NewPipe[chat.IncomingMessage](incomingBuffer)
}

// HandleMessage verifies the sender is allowed, then hands msg to the
// incoming stream. It returns false once the stream's consumer is gone.
func (b *Base) HandleMessage(ctx context.Context, in *stream.Pipe[chat.IncomingMessage], senderID string, msg chat.IncomingMessage) bool {
	if !b.IsAllowed(senderID) {
		b.logger.Warn("access denied", "sender", senderID)
		return true
	}
	if err := in.Send(ctx, msg); err != nil {
		b.logger.Debug("incoming stream closed", "err", err)
		return false
	}
	return true
}

// splitMessage splits content into chunks that fit within maxLen,
// preferring newline breaks, then space breaks, then hard cut.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = maxLen
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t\n")
	}
	return chunks
}
