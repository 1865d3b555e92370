package channel

// Adapter kinds.
const (
	AdapterShell    = "shell"
	AdapterSlack    = "slack"
	AdapterTelegram = "telegram"
	AdapterBridge   = "bridge"
)

// ChatConfig selects the chat adapter and holds per-adapter settings. Only
// the section named by Adapter is used.
type ChatConfig struct {
	Adapter  string         `json:"adapter" yaml:"adapter"`
	Shell    ShellConfig    `json:"shell" yaml:"shell"`
	Slack    SlackConfig    `json:"slack" yaml:"slack"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Bridge   BridgeConfig   `json:"bridge" yaml:"bridge"`
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Adapter:  AdapterShell,
		Shell:    DefaultShellConfig(),
		Slack:    DefaultSlackConfig(),
		Telegram: DefaultTelegramConfig(),
		Bridge:   DefaultBridgeConfig(),
	}
}
