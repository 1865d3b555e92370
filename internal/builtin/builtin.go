// Package builtin provides the in-process callbacks shipped with oco. They
// are registered under fixed local:// names and routed by configuration like
// any other callback.
package builtin

import (
	"net/http"
	"strings"
	"time"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/room"
)

// Registered callback names.
const (
	Ping     = "ping"
	Echo     = "echo"
	Remember = "remember"
	Recall   = "recall"
	Link     = "link"
	Topic    = "topic"
	Join     = "join"
	Part     = "part"
	Greet    = "greet"
	Announce = "announce"
)

// Options configures the builtins that need more than the robot handle.
type Options struct {
	// HTTPClient fetches pages for the link callback.
	HTTPClient *http.Client
	// GreetRoom receives the greeting on startup. The zero Room disables it.
	GreetRoom    room.Room
	GreetMessage string
}

// Register adds every builtin to reg.
func Register(reg *callback.Registry, opts Options) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	reg.RegisterChat(Ping, callback.ChatFunc(ping))
	reg.RegisterChat(Echo, callback.ChatFunc(echo))
	reg.RegisterChat(Remember, callback.ChatFunc(remember))
	reg.RegisterChat(Recall, callback.ChatFunc(recall))
	reg.RegisterChat(Link, NewLinkPreview(opts.HTTPClient))
	reg.RegisterChat(Topic, callback.ChatFunc(setTopic))
	reg.RegisterChat(Join, callback.ChatFunc(join))
	reg.RegisterChat(Part, callback.ChatFunc(part))

	reg.RegisterEvent(Greet, &Greeter{Room: opts.GreetRoom, Message: opts.GreetMessage})
	reg.RegisterEvent(Announce, callback.EventFunc(announce))
}

// argument returns what follows the first word of body, trimmed.
func argument(body string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(body), " ")
	return strings.TrimSpace(rest)
}
