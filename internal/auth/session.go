package auth

import (
	"time"

	"github.com/carepoint-health/carepoint/internal/roles"
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Role      roles.Role `json:"role"`
	TokenID   string     `json:"token_id"` // jti, used to revoke on logout
	ExpiresAt time.Time  `json:"expires_at"`
}

// IsAdmin reports whether the session belongs to an administrator
func (s *SessionData) IsAdmin() bool {
	return s.Role == roles.Admin
}
