package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so secrets can be stored as ${ENV_VAR} in the file.
func expandSensitiveFields(cfg *Config) {
	for name, bot := range cfg.Bots {
		bot.Secret = expandEnvVars(bot.Secret)
		bot.TaskAPIKey = expandEnvVars(bot.TaskAPIKey)
		bot.TaskAPISecret = expandEnvVars(bot.TaskAPISecret)
		bot.NextcloudPassword = expandEnvVars(bot.NextcloudPassword)
		cfg.Bots[name] = bot
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)

	// The map key is the authoritative username.
	for name, bot := range cfg.Bots {
		bot.Username = name
		cfg.Bots[name] = bot
	}
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8048
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Server.SignatureWindowSeconds == 0 {
		cfg.Server.SignatureWindowSeconds = 300
	}
	if cfg.Session.HistoryCap == 0 {
		cfg.Session.HistoryCap = 100
	}
	if cfg.Session.LockWaitSeconds == 0 {
		cfg.Session.LockWaitSeconds = 30
	}
	if cfg.Invoker.Command == "" {
		cfg.Invoker.Command = "claude"
	}
	if cfg.Invoker.TimeoutMinutes == 0 {
		cfg.Invoker.TimeoutMinutes = 10
	}
	if cfg.Invoker.MaxReplyChars == 0 {
		cfg.Invoker.MaxReplyChars = 30000
	}
	if cfg.Transcribe.Python == "" {
		cfg.Transcribe.Python = "python3"
	}
	if cfg.Transcribe.Model == "" {
		cfg.Transcribe.Model = "base"
	}
	if cfg.Transcribe.TimeoutMinutes == 0 {
		cfg.Transcribe.TimeoutMinutes = 5
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = "pretty"
	}
}

// applyEnvOverrides reads TALKBRIDGE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TALKBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TALKBRIDGE_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("TALKBRIDGE_NEXTCLOUD_URL"); v != "" {
		cfg.Nextcloud.BaseURL = v
	}
	if v := os.Getenv("TALKBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
