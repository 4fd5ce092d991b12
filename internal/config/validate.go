package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.custom_bind_host",
			Message: "required when server.bind is custom",
		})
	}
	if cfg.Server.SignatureWindowSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "server.signature_window_seconds",
			Message: "must not be negative",
		})
	}

	if cfg.Nextcloud.BaseURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "nextcloud.base_url",
			Message: "base_url is required",
		})
	}

	if len(cfg.Bots) == 0 {
		issues = append(issues, ValidationIssue{
			Path:    "bots",
			Message: "at least one bot profile is required",
		})
	}
	for name, bot := range cfg.Bots {
		if bot.Secret == "" {
			issues = append(issues, ValidationIssue{
				Path:    "bots." + name + ".secret",
				Message: "secret is required",
			})
		}
		if bot.WorkingDir == "" {
			issues = append(issues, ValidationIssue{
				Path:    "bots." + name + ".working_dir",
				Message: "working_dir is required",
			})
		}
	}

	if cfg.Session.HistoryCap < 2 {
		issues = append(issues, ValidationIssue{
			Path:    "session.history_cap",
			Message: fmt.Sprintf("must be at least 2, got %d", cfg.Session.HistoryCap),
		})
	}
	if cfg.Session.LockWaitSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.lock_wait_seconds",
			Message: "must not be negative",
		})
	}

	validBackends := []string{"sqlite", "memory"}
	if cfg.Store.Backend != "" && !slices.Contains(validBackends, cfg.Store.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Store.Backend),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	return issues
}
