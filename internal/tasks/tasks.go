package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Sent after a successful self-registration
	TypeAccountRegistered = "account:registered"

	// Scheduled cleanup of logged-out tokens that have since expired
	TypePurgeRevokedTokens = "auth:purge_revoked_tokens"
)

// Queue names
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// AccountPayload is the payload for account tasks
type AccountPayload struct {
	UserID string `json:"user_id"`
}

// NewAccountRegisteredTask creates a task that welcomes a freshly registered user
func NewAccountRegisteredTask(userID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AccountPayload{
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeAccountRegistered, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewPurgeRevokedTokensTask creates a task that removes expired revocations
func NewPurgeRevokedTokensTask() *asynq.Task {
	return asynq.NewTask(TypePurgeRevokedTokens, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// ParseAccountPayload parses an account payload from an Asynq task
func ParseAccountPayload(task *asynq.Task) (AccountPayload, error) {
	var payload AccountPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.UserID == "" {
		return payload, fmt.Errorf("payload is missing user_id")
	}
	return payload, nil
}
