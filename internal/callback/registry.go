package callback

import (
	"sort"
	"sync"
)

// Registry holds the callbacks reachable through local:// addresses.
type Registry struct {
	mu     sync.RWMutex
	chat   map[string]ChatCallback
	events map[string]EventCallback
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		chat:   make(map[string]ChatCallback),
		events: make(map[string]EventCallback),
	}
}

// RegisterChat makes cb reachable as local://name. A later registration
// under the same name replaces the earlier one.
func (r *Registry) RegisterChat(name string, cb ChatCallback) Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat[name] = cb
	return Local(name)
}

// RegisterEvent makes cb reachable as local://name for event routes.
func (r *Registry) RegisterEvent(name string, cb EventCallback) Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[name] = cb
	return Local(name)
}

func (r *Registry) Chat(name string) (ChatCallback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.chat[name]
	return cb, ok
}

func (r *Registry) Event(name string) (EventCallback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.events[name]
	return cb, ok
}

// ChatNames returns the registered chat callback names, sorted.
func (r *Registry) ChatNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.chat)
}

// EventNames returns the registered event callback names, sorted.
func (r *Registry) EventNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.events)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
