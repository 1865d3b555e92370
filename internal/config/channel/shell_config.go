package channel

// ShellConfig configures the stdin/stdout adapter.
type ShellConfig struct {
	User   string `json:"user" yaml:"user"`
	Room   string `json:"room" yaml:"room"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

func DefaultShellConfig() ShellConfig {
	return ShellConfig{User: "shell", Room: "shell", Prompt: "> "}
}
