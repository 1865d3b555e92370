package callback

import (
	"fmt"
	"regexp"
	"sort"
)

// ChatRoute routes incoming messages whose body matches pattern to the
// callback at address.
type ChatRoute struct {
	address Address
	pattern string
	re      *regexp.Regexp
}

// NewChatRoute compiles pattern as a regular expression.
func NewChatRoute(address Address, pattern string) (ChatRoute, error) {
	if address.IsZero() {
		return ChatRoute{}, fmt.Errorf("chat route %q: missing address", pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ChatRoute{}, fmt.Errorf("chat route %q: %w", pattern, err)
	}
	return ChatRoute{address: address, pattern: pattern, re: re}, nil
}

func (r ChatRoute) Address() Address { return r.address }
func (r ChatRoute) Pattern() string  { return r.pattern }

// Match reports whether body matches the route pattern.
func (r ChatRoute) Match(body string) bool {
	return r.re != nil && r.re.MatchString(body)
}

// Submatches returns the pattern's capture groups for body, or nil.
func (r ChatRoute) Submatches(body string) []string {
	if r.re == nil {
		return nil
	}
	return r.re.FindStringSubmatch(body)
}

// EventRoute routes events named event to the callback at address.
type EventRoute struct {
	address Address
	event   string
}

// NewEventRoute creates an EventRoute.
func NewEventRoute(address Address, event string) (EventRoute, error) {
	if address.IsZero() {
		return EventRoute{}, fmt.Errorf("event route %q: missing address", event)
	}
	if event == "" {
		return EventRoute{}, fmt.Errorf("event route for %s: missing event name", address)
	}
	return EventRoute{address: address, event: event}, nil
}

func (r EventRoute) Address() Address { return r.address }
func (r EventRoute) Event() string    { return r.event }

// Table holds the chat and event routes of one robot in registration order.
//
// A Table is filled during setup and only read afterwards; replace a whole
// Table rather than mutating one that a running robot is reading.
type Table struct {
	chat   []ChatRoute
	events map[string][]EventRoute
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{events: make(map[string][]EventRoute)}
}

// AddChat appends a chat route.
func (t *Table) AddChat(r ChatRoute) { t.chat = append(t.chat, r) }

// AddEvent appends an event route under its event name.
func (t *Table) AddEvent(r EventRoute) {
	t.events[r.event] = append(t.events[r.event], r)
}

// MatchChat returns every chat route whose pattern matches body, in
// registration order.
func (t *Table) MatchChat(body string) []ChatRoute {
	var out []ChatRoute
	for _, r := range t.chat {
		if r.Match(body) {
			out = append(out, r)
		}
	}
	return out
}

// EventRoutes returns the routes registered for exactly name, in
// registration order.
func (t *Table) EventRoutes(name string) []EventRoute {
	routes := t.events[name]
	out := make([]EventRoute, len(routes))
	copy(out, routes)
	return out
}

// ChatRoutes returns all chat routes in registration order.
func (t *Table) ChatRoutes() []ChatRoute {
	out := make([]ChatRoute, len(t.chat))
	copy(out, t.chat)
	return out
}

// EventNames returns the registered event names, sorted.
func (t *Table) EventNames() []string {
	names := make([]string, 0, len(t.events))
	for n := range t.events {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of chat and event routes.
func (t *Table) Len() (chat, events int) {
	for _, rs := range t.events {
		events += len(rs)
	}
	return len(t.chat), events
}
