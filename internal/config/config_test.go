package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8048, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, 300, cfg.Server.SignatureWindowSeconds)
	assert.Equal(t, 100, cfg.Session.HistoryCap)
	assert.Equal(t, 30, cfg.Session.LockWaitSeconds)
	assert.Equal(t, "claude", cfg.Invoker.Command)
	assert.Equal(t, 10, cfg.Invoker.TimeoutMinutes)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadParsesBots(t *testing.T) {
	path := writeConfig(t, `
nextcloud:
  base_url: https://cloud.example.com
bots:
  alice:
    secret: s3cret
    working_dir: /srv/alice
    config_dir: /srv/alice/.claude
    nextcloud_user: svc-alice
    nextcloud_password: pw
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Contains(t, cfg.Bots, "alice")
	bot := cfg.Bots["alice"]
	assert.Equal(t, "alice", bot.Username)
	assert.Equal(t, "s3cret", bot.Secret)
	assert.Equal(t, "/srv/alice", bot.WorkingDir)
	assert.Equal(t, "/srv/alice/.claude", bot.ConfigDir)
	assert.True(t, bot.HasNextcloudAccount())
	assert.Equal(t, "https://cloud.example.com", cfg.Nextcloud.BaseURL)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
session:
  history_cap: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Session.HistoryCap)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, 30, cfg.Session.LockWaitSeconds)
}

func TestLoadExpandsEnvSecrets(t *testing.T) {
	t.Setenv("TB_TEST_SECRET", "expanded-secret")
	path := writeConfig(t, `
bots:
  alice:
    secret: ${TB_TEST_SECRET}
    working_dir: /srv/alice
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-secret", cfg.Bots["alice"].Secret)
}

func TestLoadLeavesUnsetEnvVarsAlone(t *testing.T) {
	path := writeConfig(t, `
bots:
  alice:
    secret: ${TB_DOES_NOT_EXIST_12345}
    working_dir: /srv/alice
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${TB_DOES_NOT_EXIST_12345}", cfg.Bots["alice"].Secret)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TALKBRIDGE_PORT", "1234")
	t.Setenv("TALKBRIDGE_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [this is not\n  a mapping")
	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

