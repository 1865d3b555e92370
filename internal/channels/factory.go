package channels

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config/channel"
)

// Kinds lists the adapter kinds New accepts.
var Kinds = []string{channel.AdapterShell, channel.AdapterSlack, channel.AdapterTelegram, channel.AdapterBridge}

// New builds the adapter selected by cfg.Adapter.
func New(cfg channel.ChatConfig, logger *slog.Logger) (chat.Adapter, error) {
	switch cfg.Adapter {
	case "", channel.AdapterShell:
		return NewShellAdapter(cfg.Shell, os.Stdin, os.Stdout, logger), nil
	case channel.AdapterSlack:
		return NewSlackAdapter(cfg.Slack, logger), nil
	case channel.AdapterTelegram:
		return NewTelegramAdapter(cfg.Telegram, logger), nil
	case channel.AdapterBridge:
		return NewBridgeAdapter(cfg.Bridge, logger), nil
	default:
		return nil, fmt.Errorf("unknown chat adapter %q (want one of %v)", cfg.Adapter, Kinds)
	}
}
