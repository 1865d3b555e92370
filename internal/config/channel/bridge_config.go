package channel

// BridgeConfig configures the websocket bridge adapter.
type BridgeConfig struct {
	URL       string   `json:"url" yaml:"url"`
	Token     string   `json:"token" yaml:"token"`
	AllowFrom []string `json:"allowFrom" yaml:"allowFrom"`
	// ReconnectDelay is the pause between reconnect attempts, in seconds.
	ReconnectDelay int `json:"reconnectDelay" yaml:"reconnectDelay"`
	// MaxReconnects bounds consecutive failed connects; 0 retries forever.
	MaxReconnects int `json:"maxReconnects" yaml:"maxReconnects"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{URL: "ws://localhost:3001", AllowFrom: []string{}, ReconnectDelay: 5}
}
