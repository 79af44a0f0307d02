package auth

import (
	"errors"
	"time"
)

// ErrNotAuthenticated is returned by LoadToken when no usable token is stored
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'carepoint login' first")

// TokenStore defines the interface for token storage operations.
// Tokens are keyed by server so one machine can hold sessions for several portals.
type TokenStore interface {
	// SaveToken persists the token; it stops being returned after ttl
	SaveToken(server, token string, ttl time.Duration) error
	// LoadToken returns ErrNotAuthenticated when nothing usable is stored
	LoadToken(server string) (string, error)
	// DeleteToken is a no-op when nothing is stored
	DeleteToken(server string) error
}

// Backend names accepted by Open
const (
	BackendKeyring = "keyring"
	BackendCookie  = "cookie"
)

// Open returns the token store for a backend name. Empty means keyring.
func Open(backend string) (TokenStore, error) {
	switch backend {
	case "", BackendKeyring:
		return NewKeyringStore(), nil
	case BackendCookie:
		return NewDefaultCookieStore()
	default:
		return nil, errors.New("unknown token store '" + backend + "' (expected keyring or cookie)")
	}
}
