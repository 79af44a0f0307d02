// Package revocation keeps track of bearer tokens that were logged out before
// their natural expiry.
package revocation

import (
	"context"
	"time"
)

// Store records revoked token IDs (JWT jti) until they expire
type Store interface {
	Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
