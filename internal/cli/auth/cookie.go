package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CookieName is the name of the persisted session cookie
const CookieName = "token"

const cookieJarFileName = "cookies.json"

// CookieStore persists tokens as cookies in a JSON jar on disk, one cookie per server.
// Expired cookies are dropped on read.
type CookieStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewCookieStore creates a cookie jar store backed by the given file
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path, now: time.Now}
}

// NewDefaultCookieStore stores the jar at ~/.config/carepoint/cookies.json
func NewDefaultCookieStore() (*CookieStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return NewCookieStore(filepath.Join(homeDir, ".config", "carepoint", cookieJarFileName)), nil
}

// Path returns the jar location
func (s *CookieStore) Path() string {
	return s.path
}

// SaveToken writes the cookie with Expires = now + ttl
func (s *CookieStore) SaveToken(server, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.read()
	if err != nil {
		return err
	}

	jar[server] = &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Domain:   cookieDomain(server),
		Path:     "/",
		Expires:  s.now().Add(ttl).UTC(),
		Secure:   isHTTPS(server),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}

	return s.write(jar)
}

// LoadToken returns the cookie value, or ErrNotAuthenticated if absent or expired
func (s *CookieStore) LoadToken(server string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.read()
	if err != nil {
		return "", err
	}

	cookie, ok := jar[server]
	if !ok || cookie.Value == "" {
		return "", ErrNotAuthenticated
	}

	if !s.now().Before(cookie.Expires) {
		delete(jar, server)
		if err := s.write(jar); err != nil {
			return "", err
		}
		return "", ErrNotAuthenticated
	}

	return cookie.Value, nil
}

// DeleteToken removes the server's cookie
func (s *CookieStore) DeleteToken(server string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := jar[server]; !ok {
		return nil
	}

	delete(jar, server)
	return s.write(jar)
}

func (s *CookieStore) read() (map[string]*http.Cookie, error) {
	jar := map[string]*http.Cookie{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return jar, nil
		}
		return nil, fmt.Errorf("failed to read cookie jar: %w", err)
	}

	if len(data) == 0 {
		return jar, nil
	}

	if err := json.Unmarshal(data, &jar); err != nil {
		return nil, fmt.Errorf("failed to parse cookie jar: %w", err)
	}
	return jar, nil
}

// write replaces the jar atomically so a crash never leaves half a file behind
func (s *CookieStore) write(jar map[string]*http.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create cookie jar directory: %w", err)
	}

	data, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookie jar: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookie jar: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write cookie jar: %w", err)
	}
	return nil
}

func cookieDomain(server string) string {
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return server
	}
	return u.Hostname()
}

func isHTTPS(server string) bool {
	u, err := url.Parse(server)
	return err == nil && u.Scheme == "https"
}
