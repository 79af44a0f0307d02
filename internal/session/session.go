// Package session holds who is signed in to the portal: the user profile,
// the bearer token and the loading/error flags around the calls that change them.
//
// A Container is the single owner of that state. It keeps the persisted token
// and the API client's Authorization header in step with the in-memory session
// and tells subscribers about every change.
package session

import (
	"errors"
	"time"

	"github.com/carepoint-health/carepoint/internal/cli/client"
	"github.com/carepoint-health/carepoint/internal/roles"
)

// TokenTTL is how long a persisted token is kept
const TokenTTL = 7 * 24 * time.Hour

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in user
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrSuperseded is returned when a response arrived after a newer
	// login, register, initialize or logout had already changed the session.
	// The response was discarded.
	ErrSuperseded = errors.New("session: superseded by a newer operation")
)

// Session is a read-only snapshot of the container state.
// IsAuthenticated is true exactly when User is non-nil and Token is non-empty.
type Session struct {
	User            client.Profile
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Role returns the signed-in user's role, or "" when signed out
func (s Session) Role() roles.Role {
	if s.User == nil {
		return ""
	}
	return roles.Role(s.User.Role())
}

// DashboardPath returns where the current user should land
func (s Session) DashboardPath() string {
	if !s.IsAuthenticated {
		return roles.LoginPath
	}
	return roles.DashboardPathFor(s.Role())
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}

func authenticated(user client.Profile, token string) Session {
	return Session{
		User:            user.Clone(),
		Token:           token,
		IsAuthenticated: user != nil && token != "",
	}
}

// Error is a failed network operation. Message is suitable for showing to a user:
// the API's own message when it sent one, otherwise a generic one.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorMessage extracts the API's message, falling back to a static one
func errorMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
