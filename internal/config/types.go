package config

import "github.com/impertio/talkbridge/internal/domain"

// Config is the root configuration for TalkBridge.
type Config struct {
	Server     ServerConfig                 `yaml:"server,omitempty"`
	Nextcloud  NextcloudConfig              `yaml:"nextcloud,omitempty"`
	Bots       map[string]domain.BotProfile `yaml:"bots,omitempty"`
	Session    SessionConfig                `yaml:"session,omitempty"`
	Invoker    InvokerConfig                `yaml:"invoker,omitempty"`
	Transcribe TranscribeConfig             `yaml:"transcribe,omitempty"`
	Store      StoreConfig                  `yaml:"store,omitempty"`
	Logging    LoggingConfig                `yaml:"logging,omitempty"`
}

// ServerConfig controls the webhook HTTP server.
type ServerConfig struct {
	Port           int    `yaml:"port,omitempty"`
	Bind           string `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string `yaml:"custom_bind_host,omitempty"`

	// SignatureWindowSeconds is the inbound signature freshness window.
	SignatureWindowSeconds int `yaml:"signature_window_seconds,omitempty"`
}

// NextcloudConfig points at the Nextcloud instance hosting Talk and Deck.
type NextcloudConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SessionConfig defines conversation history and locking behavior.
type SessionConfig struct {
	// HistoryCap bounds turns kept per conversation; oldest dropped first.
	HistoryCap int `yaml:"history_cap,omitempty"`

	// LockWaitSeconds bounds how long a request queues behind an
	// in-flight invocation for the same conversation before failing.
	LockWaitSeconds int `yaml:"lock_wait_seconds,omitempty"`
}

// InvokerConfig controls the assistant subprocess.
type InvokerConfig struct {
	Command        string `yaml:"command,omitempty"`
	TimeoutMinutes int    `yaml:"timeout_minutes,omitempty"`
	MaxReplyChars  int    `yaml:"max_reply_chars,omitempty"`
}

// TranscribeConfig controls the Whisper speech-to-text subprocess.
type TranscribeConfig struct {
	Enabled        bool   `yaml:"enabled,omitempty"`
	Python         string `yaml:"python,omitempty"`
	Model          string `yaml:"model,omitempty"`
	TimeoutMinutes int    `yaml:"timeout_minutes,omitempty"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite" | "memory"
	Path    string `yaml:"path,omitempty"`    // defaults to <data dir>/talkbridge.db
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "compact" | "json"
}
