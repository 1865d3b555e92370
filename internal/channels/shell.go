package channels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config/channel"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/stream"
	"github.com/openchatops/oco/internal/user"
)

var shellExitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

// ShellAdapter chats over a terminal: every input line is a message from
// the configured user in the configured room, and replies are printed.
type ShellAdapter struct {
	Base
	chat.Unsupported

	cfg channel.ShellConfig
	in  io.Reader

	mu  sync.Mutex
	out io.Writer
}

func NewShellAdapter(cfg channel.ShellConfig, in io.Reader, out io.Writer, logger *slog.Logger) *ShellAdapter {
	if cfg.User == "" {
		cfg.User = "shell"
	}
	return &ShellAdapter{
		Base: NewBase(channel.AdapterShell, nil, logger),
		cfg:  cfg,
		in:   in,
		out:  out,
	}
}

// Run starts reading lines. The stream ends on end of input, an exit
// command, or ctx cancellation.
func (s *ShellAdapter) Run(ctx context.Context) (stream.Stream[chat.IncomingMessage], error) {
	pipe := newIncoming()
	u := user.New(s.cfg.User, s.cfg.User)
	r := room.New(s.cfg.Room)

	go func() {
		scanner := bufio.NewScanner(s.in)
		s.prompt()
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				s.prompt()
				continue
			}
			if shellExitCommands[strings.ToLower(line)] {
				pipe.End()
				return
			}
			if !s.HandleMessage(ctx, pipe, s.cfg.User, chat.NewIncomingMessage(line, u, r)) {
				return
			}
		}
		pipe.CloseWithError(scanner.Err())
	}()

	go func() {
		select {
		case <-ctx.Done():
			pipe.End()
		case <-pipe.Done():
		}
	}()
	return pipe, nil
}

func (s *ShellAdapter) SendMessage(_ context.Context, msg chat.OutgoingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := msg.Body()
	if u, ok := msg.User(); ok {
		text = "@" + u.MentionName() + ": " + text
	}
	if _, err := fmt.Fprintf(s.out, "%s\n", text); err != nil {
		return errs.IO("shell write", err)
	}
	if s.cfg.Prompt != "" {
		_, _ = io.WriteString(s.out, s.cfg.Prompt)
	}
	return nil
}

func (s *ShellAdapter) prompt() {
	if s.cfg.Prompt == "" {
		return
	}
	s.mu.Lock()
	_, _ = io.WriteString(s.out, s.cfg.Prompt)
	s.mu.Unlock()
}
