package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsHonorsHomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("TALKBRIDGE_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
}

func TestResolvePathsDefaultsToHomeDir(t *testing.T) {
	t.Setenv("TALKBRIDGE_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".talkbridge"), p.Base)
}

func TestEnsureDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested")
	t.Setenv("TALKBRIDGE_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	for _, d := range []string{p.Base, p.Data, p.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestDatabasePath(t *testing.T) {
	p := Paths{Data: "/var/lib/tb/data"}
	cfg := Defaults()
	assert.Equal(t, filepath.Join("/var/lib/tb/data", "talkbridge.db"), p.DatabasePath(&cfg))

	cfg.Store.Path = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", p.DatabasePath(&cfg))
}
