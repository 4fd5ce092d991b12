package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	path, err := ParseConfigPath("server.port")
	require.NoError(t, err)
	assert.Equal(t, []string{"server", "port"}, path)

	_, err = ParseConfigPath("")
	assert.Error(t, err)

	_, err = ParseConfigPath("server..port")
	assert.Error(t, err)

	_, err = ParseConfigPath("bots.__proto__.secret")
	assert.Error(t, err)
}

func TestGetSetUnsetValueAtPath(t *testing.T) {
	raw := map[string]any{}

	SetValueAtPath(raw, []string{"server", "port"}, 9000)
	val, ok := GetValueAtPath(raw, []string{"server", "port"})
	require.True(t, ok)
	assert.Equal(t, 9000, val)

	// Intermediate maps are created as needed.
	SetValueAtPath(raw, []string{"bots", "alice", "working_dir"}, "/srv/alice")
	val, ok = GetValueAtPath(raw, []string{"bots", "alice", "working_dir"})
	require.True(t, ok)
	assert.Equal(t, "/srv/alice", val)

	_, ok = GetValueAtPath(raw, []string{"bots", "bob", "secret"})
	assert.False(t, ok)

	assert.True(t, UnsetValueAtPath(raw, []string{"server", "port"}))
	_, ok = GetValueAtPath(raw, []string{"server", "port"})
	assert.False(t, ok)
	assert.False(t, UnsetValueAtPath(raw, []string{"server", "port"}))
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestSaveRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := map[string]any{
		"server": map[string]any{"port": 8048},
	}
	require.NoError(t, SaveRaw(path, raw))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(loaded, []string{"server", "port"})
	require.True(t, ok)
	assert.Equal(t, 8048, val)
}

func TestIsSensitivePath(t *testing.T) {
	assert.True(t, IsSensitivePath([]string{"bots", "alice", "secret"}))
	assert.True(t, IsSensitivePath([]string{"bots", "alice", "nextcloud_password"}))
	assert.False(t, IsSensitivePath([]string{"server", "port"}))
	assert.False(t, IsSensitivePath(nil))
}
