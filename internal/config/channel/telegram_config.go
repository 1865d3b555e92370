package channel

// TelegramConfig configures the Telegram adapter.
type TelegramConfig struct {
	Token       string   `json:"token" yaml:"token"`
	AllowFrom   []string `json:"allowFrom" yaml:"allowFrom"` // user IDs or usernames
	Proxy       string   `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	PollTimeout int      `json:"pollTimeout" yaml:"pollTimeout"` // seconds
}

func DefaultTelegramConfig() TelegramConfig {
	return TelegramConfig{AllowFrom: []string{}, PollTimeout: 30}
}
