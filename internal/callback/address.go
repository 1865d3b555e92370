// Package callback describes where callbacks live, which messages and events
// route to them, and how an address resolves to an invocation.
package callback

import (
	"fmt"
	"net/url"
	"strings"
)

// Address schemes understood by the Resolver.
const (
	SchemeLocal = "local"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeWS    = "ws"
	SchemeWSS   = "wss"
)

// Address describes how to reach one callback.
//
// "local://name" names a callback registered in-process; http(s) and ws(s)
// URLs name remote callbacks. The canonical String form identifies the
// callback uniquely and stably.
type Address struct {
	scheme string
	target string // registry name for local, full URL otherwise
}

// Local returns the address of the in-process callback registered as name.
func Local(name string) Address {
	return Address{scheme: SchemeLocal, target: name}
}

// ParseAddress parses s. A value without a scheme is taken as a local name.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("empty callback address")
	}
	if !strings.Contains(s, "://") {
		return Local(s), nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return Address{}, fmt.Errorf("parse callback address %q: %w", s, err)
	}
	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case SchemeLocal:
		name := u.Host + u.Path
		name = strings.Trim(name, "/")
		if name == "" {
			return Address{}, fmt.Errorf("callback address %q: missing local name", s)
		}
		return Local(name), nil
	case SchemeHTTP, SchemeHTTPS, SchemeWS, SchemeWSS:
		if u.Host == "" {
			return Address{}, fmt.Errorf("callback address %q: missing host", s)
		}
		u.Scheme = scheme
		return Address{scheme: scheme, target: u.String()}, nil
	default:
		return Address{}, fmt.Errorf("callback address %q: unsupported scheme %q", s, u.Scheme)
	}
}

// MustParseAddress is ParseAddress that panics on error. For tests and
// static tables.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) Scheme() string { return a.scheme }
func (a Address) Target() string { return a.target }

// IsLocal reports whether the callback runs in-process.
func (a Address) IsLocal() bool { return a.scheme == SchemeLocal }

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool { return a.scheme == "" }

func (a Address) String() string {
	if a.scheme == SchemeLocal {
		return SchemeLocal + "://" + a.target
	}
	return a.target
}
