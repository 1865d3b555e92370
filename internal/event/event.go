// Package event defines named pub-sub events routed to event callbacks.
package event

import "time"

// Startup is emitted once when the robot begins dispatching.
const Startup = "startup"

// Event is a named occurrence with an optional string payload.
type Event struct {
	Name    string            `json:"name"`
	Payload map[string]string `json:"payload,omitempty"`
	At      time.Time         `json:"at"`
}

// New creates an Event stamped with the current time.
func New(name string, payload map[string]string) Event {
	return Event{Name: name, Payload: payload, At: time.Now().UTC()}
}

// Get returns the payload value for key, or "".
func (e Event) Get(key string) string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload[key]
}
