package userconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	selected, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Empty(t, selected, "missing file means nothing selected")

	require.NoError(t, SetSelectedServer("https://portal.example.com"))

	selected, err = GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", selected)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "carepoint", "config.json"), path)
}
