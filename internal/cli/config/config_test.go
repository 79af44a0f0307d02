package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
servers:
  - url: https://portal.example.com
    alias: production
  - url: http://localhost:8080
    alias: local
token_store: cookie
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, "https://portal.example.com", cfg.Servers[0].URL)
	assert.Equal(t, "local", cfg.Servers[1].Alias)
	assert.Equal(t, "cookie", cfg.TokenStore)
}

func TestLoad_InvalidTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("servers: []\ntoken_store: vault\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token_store")
}

func TestLoad_DuplicateAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
servers:
  - url: https://a.example.com
    alias: prod
  - url: https://b.example.com
    alias: prod
`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate server alias")
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := &Config{TokenStore: "keyring"}
	cfg.AddServer("portal.example.com", "production")

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"portal.example.com", "https://portal.example.com"},
		{"https://portal.example.com/", "https://portal.example.com"},
		{"http://localhost:8080", "http://localhost:8080"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestAddServer(t *testing.T) {
	cfg := &Config{}

	first, added := cfg.AddServer("https://a.example.com", "")
	assert.True(t, added)
	assert.Equal(t, "server-1", first.Alias)

	_, added = cfg.AddServer("a.example.com/", "other")
	assert.False(t, added, "same URL after normalization")

	second, added := cfg.AddServer("https://b.example.com", "staging")
	assert.True(t, added)
	assert.Equal(t, "staging", second.Alias)
	assert.Len(t, cfg.Servers, 2)
}

func TestGetServerByURLOrAlias(t *testing.T) {
	cfg := &Config{Servers: []Server{
		{URL: "https://a.example.com", Alias: "prod"},
		{URL: "http://localhost:8080", Alias: "local"},
	}}

	server, err := cfg.GetServerByURLOrAlias("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", server.URL)

	server, err = cfg.GetServerByURLOrAlias("a.example.com")
	require.NoError(t, err)
	assert.Equal(t, "prod", server.Alias)

	_, err = cfg.GetServerByURLOrAlias("missing")
	assert.ErrorIs(t, err, ErrServerNotFound)
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(filepath.Join(root, ConfigFileName), &Config{}))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	path, err := FindConfigFile()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, ConfigFileName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetDefaultServer_Empty(t *testing.T) {
	_, err := (&Config{}).GetDefaultServer()
	assert.Error(t, err)
}
