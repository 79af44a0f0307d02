package serverselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-health/carepoint/internal/cli/config"
	"github.com/carepoint-health/carepoint/internal/cli/userconfig"
)

func twoServers() *config.Config {
	return &config.Config{Servers: []config.Server{
		{URL: "https://portal.example.com", Alias: "production"},
		{URL: "http://localhost:8080", Alias: "local"},
	}}
}

func TestResolveServer_Override(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	server, err := ResolveServer(twoServers(), "local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", server.URL)

	_, err = ResolveServer(twoServers(), "staging")
	assert.ErrorIs(t, err, config.ErrServerNotFound)
}

func TestResolveServer_RemembersSelection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("http://localhost:8080"))

	server, err := ResolveServer(twoServers(), "")
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)
}

func TestResolveServer_SingleServerIsSaved(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := &config.Config{Servers: []config.Server{{URL: "https://portal.example.com", Alias: "production"}}}

	server, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "production", server.Alias)

	selected, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", selected)
}

func TestResolveServer_StaleSelectionIsCleared(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://gone.example.com"))
	cfg := &config.Config{Servers: []config.Server{{URL: "https://portal.example.com", Alias: "production"}}}

	server, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "production", server.Alias)
}

func TestPromptServerSelection_NoServers(t *testing.T) {
	_, err := PromptServerSelection(&config.Config{})
	assert.Error(t, err)
}
