package config

import (
	"fmt"

	"github.com/openchatops/oco/internal/callback"
)

// BuildTable turns route declarations into a route table, keeping their
// order. It parses addresses and compiles patterns but does not check that
// local callbacks exist; the resolver does that.
func BuildTable(rc RoutesConfig) (*callback.Table, error) {
	t := callback.NewTable()
	for i, r := range rc.Chat {
		addr, err := callback.ParseAddress(r.Address)
		if err != nil {
			return nil, fmt.Errorf("routes.chat[%d]: %w", i, err)
		}
		route, err := callback.NewChatRoute(addr, r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("routes.chat[%d]: %w", i, err)
		}
		t.AddChat(route)
	}
	for i, r := range rc.Events {
		addr, err := callback.ParseAddress(r.Address)
		if err != nil {
			return nil, fmt.Errorf("routes.events[%d]: %w", i, err)
		}
		route, err := callback.NewEventRoute(addr, r.Event)
		if err != nil {
			return nil, fmt.Errorf("routes.events[%d]: %w", i, err)
		}
		t.AddEvent(route)
	}
	return t, nil
}
