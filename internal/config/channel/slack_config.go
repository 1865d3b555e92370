package channel

// SlackConfig configures the Slack adapter. Only Socket Mode is supported.
type SlackConfig struct {
	BotToken  string   `json:"botToken" yaml:"botToken"`
	AppToken  string   `json:"appToken" yaml:"appToken"`
	AllowFrom []string `json:"allowFrom" yaml:"allowFrom"` // Slack user IDs
	Debug     bool     `json:"debug,omitempty" yaml:"debug,omitempty"`
}

func DefaultSlackConfig() SlackConfig {
	return SlackConfig{AllowFrom: []string{}}
}
