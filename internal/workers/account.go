package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/notify"
	"github.com/carepoint-health/carepoint/internal/roles"
	"github.com/carepoint-health/carepoint/internal/tasks"
)

// HandleAccountRegistered sends the welcome email for a new account
func HandleAccountRegistered(ctx context.Context, t *asynq.Task, db *gorm.DB, mailer notify.Mailer, logger zerolog.Logger) error {
	payload, err := tasks.ParseAccountPayload(t)
	if err != nil {
		// Malformed payloads will never succeed
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", payload.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Str("user_id", payload.UserID).Msg("Account deleted before welcome email was sent")
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	msg := notify.WelcomeMessage(user.FullName(), user.Email, roles.DashboardPathFor(user.Role))
	if err := mailer.Send(ctx, msg); err != nil {
		return err
	}

	logger.Info().Str("user_id", user.ID).Msg("Welcome email sent")
	return nil
}
