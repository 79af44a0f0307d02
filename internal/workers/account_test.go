package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/notify"
	"github.com/carepoint-health/carepoint/internal/roles"
	"github.com/carepoint-health/carepoint/internal/tasks"
)

type recordingMailer struct {
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg notify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestHandleAccountRegistered(t *testing.T) {
	db := openTestDB(t)
	user := &models.User{
		Email:        "Jane@Example.com",
		PasswordHash: "x",
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         roles.Doctor,
	}
	require.NoError(t, db.Create(user).Error)

	task, err := tasks.NewAccountRegisteredTask(user.ID)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	require.NoError(t, HandleAccountRegistered(context.Background(), task, db, mailer, zerolog.Nop()))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "jane@example.com", msg.ToEmail)
	assert.Equal(t, "Jane Doe", msg.ToName)
	assert.Contains(t, msg.Text, "/doctor/dashboard")
}

func TestHandleAccountRegistered_BadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(tasks.TypeAccountRegistered, []byte("not json"))

	err := HandleAccountRegistered(context.Background(), task, openTestDB(t), &recordingMailer{}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleAccountRegistered_DeletedUser(t *testing.T) {
	task, err := tasks.NewAccountRegisteredTask("01J00000000000000000000000")
	require.NoError(t, err)

	mailer := &recordingMailer{}
	require.NoError(t, HandleAccountRegistered(context.Background(), task, openTestDB(t), mailer, zerolog.Nop()))
	assert.Empty(t, mailer.sent)
}

func TestHandleAccountRegistered_MailerFailureRetries(t *testing.T) {
	db := openTestDB(t)
	user := &models.User{Email: "a@b.com", PasswordHash: "x", Role: roles.Patient}
	require.NoError(t, db.Create(user).Error)

	task, err := tasks.NewAccountRegisteredTask(user.ID)
	require.NoError(t, err)

	boom := errors.New("smtp down")
	err = HandleAccountRegistered(context.Background(), task, db, &recordingMailer{err: boom}, zerolog.Nop())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
