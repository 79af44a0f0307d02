package auth

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCookieStore(t *testing.T) (*CookieStore, *time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewCookieStore(filepath.Join(t.TempDir(), "carepoint", cookieJarFileName))
	store.now = func() time.Time { return now }
	return store, &now
}

func TestCookieStore_SaveLoadDelete(t *testing.T) {
	store, _ := newTestCookieStore(t)
	server := "https://portal.example.com"

	_, err := store.LoadToken(server)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, store.SaveToken(server, "tok", 7*24*time.Hour))

	token, err := store.LoadToken(server)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, store.DeleteToken(server))
	_, err = store.LoadToken(server)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Deleting twice is fine
	require.NoError(t, store.DeleteToken(server))
}

func TestCookieStore_CookieAttributes(t *testing.T) {
	store, now := newTestCookieStore(t)

	require.NoError(t, store.SaveToken("https://portal.example.com", "secure-tok", time.Hour))
	require.NoError(t, store.SaveToken("http://localhost:8080", "plain-tok", time.Hour))

	jar, err := store.read()
	require.NoError(t, err)

	secure := jar["https://portal.example.com"]
	require.NotNil(t, secure)
	assert.Equal(t, CookieName, secure.Name)
	assert.Equal(t, "portal.example.com", secure.Domain)
	assert.True(t, secure.Secure)
	assert.True(t, secure.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, secure.SameSite)
	assert.True(t, now.Add(time.Hour).Equal(secure.Expires))

	plain := jar["http://localhost:8080"]
	require.NotNil(t, plain)
	assert.Equal(t, "localhost", plain.Domain)
	assert.False(t, plain.Secure)
}

func TestCookieStore_Expiry(t *testing.T) {
	store, now := newTestCookieStore(t)
	server := "https://portal.example.com"

	require.NoError(t, store.SaveToken(server, "tok", 7*24*time.Hour))

	*now = now.Add(7*24*time.Hour - time.Second)
	token, err := store.LoadToken(server)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	*now = now.Add(time.Second)
	_, err = store.LoadToken(server)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	jar, err := store.read()
	require.NoError(t, err)
	assert.NotContains(t, jar, server, "expired cookie is removed")
}

func TestCookieStore_ServersAreIndependent(t *testing.T) {
	store, _ := newTestCookieStore(t)

	require.NoError(t, store.SaveToken("https://a.example.com", "a", time.Hour))
	require.NoError(t, store.SaveToken("https://b.example.com", "b", time.Hour))
	require.NoError(t, store.DeleteToken("https://a.example.com"))

	token, err := store.LoadToken("https://b.example.com")
	require.NoError(t, err)
	assert.Equal(t, "b", token)
}

func TestCookieStore_FilePermissions(t *testing.T) {
	store, _ := newTestCookieStore(t)
	require.NoError(t, store.SaveToken("https://portal.example.com", "tok", time.Hour))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCookieStore_CorruptJar(t *testing.T) {
	store, _ := newTestCookieStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.LoadToken("https://portal.example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAuthenticated)
}
