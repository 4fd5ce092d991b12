package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:                   8048,
			Bind:                   "loopback",
			SignatureWindowSeconds: 300,
		},
		Session: SessionConfig{
			HistoryCap:      100,
			LockWaitSeconds: 30,
		},
		Invoker: InvokerConfig{
			Command:        "claude",
			TimeoutMinutes: 10,
			MaxReplyChars:  30000,
		},
		Transcribe: TranscribeConfig{
			Python:         "python3",
			Model:          "base",
			TimeoutMinutes: 5,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}
