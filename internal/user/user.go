// Package user describes the people who send and receive chat messages.
package user

// User is a chat participant observed by a chat adapter.
// Values are immutable once constructed.
type User struct {
	id          string // stable identifier within the chat service
	name        string // display name
	mentionName string // alternate form used for mentions
	hasMention  bool
}

// New creates a User without an explicit mention name.
func New(id, name string) User {
	return User{id: id, name: name}
}

// NewWithMention creates a User with an explicit mention name, which is
// kept as given even when empty.
func NewWithMention(id, name, mentionName string) User {
	return User{id: id, name: name, mentionName: mentionName, hasMention: true}
}

// ID is the user's unique identifier. Not intended for display.
func (u User) ID() string { return u.id }

// Name is the user's display name.
func (u User) Name() string { return u.name }

// MentionName is the form of the name used to mention the user in chat.
// It falls back to Name when no mention name was given.
func (u User) MentionName() string {
	if u.hasMention {
		return u.mentionName
	}
	return u.name
}

// IsZero reports whether u is the zero User.
func (u User) IsZero() bool { return u.id == "" && u.name == "" }
