package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	service = "carepoint-cli"
)

// getKeyringKey returns a unique key for storing tokens per server
func getKeyringKey(server string) string {
	return fmt.Sprintf("token-%s", server)
}

type keyringEntry struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KeyringStore persists tokens in the OS keychain/credential manager.
// The keychain has no expiry of its own, so the deadline is stored next to the token.
type KeyringStore struct {
	now func() time.Time
}

// NewKeyringStore creates a keyring-backed token store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{now: time.Now}
}

// SaveToken persists the token securely in the OS keychain/credential manager
func (s *KeyringStore) SaveToken(server, token string, ttl time.Duration) error {
	data, err := json.Marshal(keyringEntry{
		Token:     token,
		ExpiresAt: s.now().Add(ttl).UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := keyring.Set(service, getKeyringKey(server), string(data)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain/credential manager
func (s *KeyringStore) LoadToken(server string) (string, error) {
	raw, err := keyring.Get(service, getKeyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	var entry keyringEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Token == "" {
		// Unreadable entry, treat it like a missing one
		_ = s.DeleteToken(server)
		return "", ErrNotAuthenticated
	}

	if !s.now().Before(entry.ExpiresAt) {
		_ = s.DeleteToken(server)
		return "", ErrNotAuthenticated
	}

	return entry.Token, nil
}

// DeleteToken removes the token from the OS keychain/credential manager
func (s *KeyringStore) DeleteToken(server string) error {
	if err := keyring.Delete(service, getKeyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
