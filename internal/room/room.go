// Package room identifies chat channels and conversations.
package room

// Room is an opaque handle for a chat channel or conversation context.
// The id is assigned by the chat adapter and is only meaningful to it.
type Room struct {
	id string
}

// New returns the Room identified by id.
func New(id string) Room { return Room{id: id} }

// ID returns the adapter-specific identifier.
func (r Room) ID() string { return r.id }

func (r Room) String() string { return r.id }

// IsZero reports whether r is the "no room" value.
func (r Room) IsZero() bool { return r.id == "" }
