package callback

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Resolver turns addresses into invocable callbacks: local names through a
// Registry, http(s) and ws(s) URLs through remote invokers.
type Resolver struct {
	registry   *Registry
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets the client used for http(s) callbacks.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.httpClient = c }
}

// WithDialer sets the dialer used for ws(s) callbacks.
func WithDialer(d *websocket.Dialer) ResolverOption {
	return func(r *Resolver) { r.dialer = d }
}

// NewResolver creates a Resolver over registry.
func NewResolver(registry *Registry, opts ...ResolverOption) *Resolver {
	if registry == nil {
		registry = NewRegistry()
	}
	r := &Resolver{registry: registry}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the local callback registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// Chat resolves addr to a ChatCallback.
func (r *Resolver) Chat(addr Address) (ChatCallback, error) {
	switch addr.Scheme() {
	case SchemeLocal:
		cb, ok := r.registry.Chat(addr.Target())
		if !ok {
			return nil, fmt.Errorf("no chat callback registered as %s", addr)
		}
		return cb, nil
	case SchemeHTTP, SchemeHTTPS:
		return NewHTTPCallback(addr.Target(), r.httpClient), nil
	case SchemeWS, SchemeWSS:
		return NewWebSocketCallback(addr.Target(), r.dialer), nil
	default:
		return nil, fmt.Errorf("cannot resolve callback address %q", addr.String())
	}
}

// Event resolves addr to an EventCallback.
func (r *Resolver) Event(addr Address) (EventCallback, error) {
	switch addr.Scheme() {
	case SchemeLocal:
		cb, ok := r.registry.Event(addr.Target())
		if !ok {
			return nil, fmt.Errorf("no event callback registered as %s", addr)
		}
		return cb, nil
	case SchemeHTTP, SchemeHTTPS:
		return NewHTTPCallback(addr.Target(), r.httpClient), nil
	case SchemeWS, SchemeWSS:
		return NewWebSocketCallback(addr.Target(), r.dialer), nil
	default:
		return nil, fmt.Errorf("cannot resolve callback address %q", addr.String())
	}
}

// Check reports whether every route in t resolves.
func (r *Resolver) Check(t *Table) error {
	for _, route := range t.ChatRoutes() {
		if _, err := r.Chat(route.Address()); err != nil {
			return fmt.Errorf("chat route %q: %w", route.Pattern(), err)
		}
	}
	for _, name := range t.EventNames() {
		for _, route := range t.EventRoutes(name) {
			if _, err := r.Event(route.Address()); err != nil {
				return fmt.Errorf("event route %q: %w", name, err)
			}
		}
	}
	return nil
}
