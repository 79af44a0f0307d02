package revocation

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carepoint-health/carepoint/internal/models"
)

// GormStore keeps revocations in the revoked_tokens table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed revocation store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Revoke inserts the token ID. Revoking the same token twice is a no-op.
func (s *GormStore) Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error {
	record := &models.RevokedToken{
		ID:        tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked
func (s *GormStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return count > 0, nil
}

// Purge deletes revocations whose token expired before the given time.
// Expired tokens fail validation on their own, so the rows are no longer needed.
func (s *GormStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", before.UTC()).
		Delete(&models.RevokedToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
