package domain

// BotProfile holds the per-user bot registration: the shared webhook
// secret, the directories the assistant runs against, and credentials
// for the external services acting on this user's behalf. Profiles are
// loaded once at startup and read-only afterwards.
type BotProfile struct {
	Username string `json:"username" yaml:"-"`

	// Secret is the shared secret registered with the Talk bot. It
	// signs inbound webhooks and outbound bot messages. Never logged.
	Secret string `json:"-" yaml:"secret"`

	// WorkingDir is the assistant subprocess's working directory.
	WorkingDir string `json:"workingDir" yaml:"working_dir"`

	// ConfigDir becomes the subprocess's HOME, isolating its state.
	ConfigDir string `json:"configDir" yaml:"config_dir"`

	// Task-backend API credentials, optional.
	TaskAPIKey    string `json:"-" yaml:"task_api_key"`
	TaskAPISecret string `json:"-" yaml:"task_api_secret"`
	TaskUser      string `json:"taskUser,omitempty" yaml:"task_user"`

	// Nextcloud service account used for Deck, WebDAV and comments.
	NextcloudUser     string `json:"nextcloudUser,omitempty" yaml:"nextcloud_user"`
	NextcloudPassword string `json:"-" yaml:"nextcloud_password"`
}

// HasTaskCredentials reports whether this profile can call the task backend.
func (p *BotProfile) HasTaskCredentials() bool {
	return p.TaskAPIKey != "" && p.TaskAPISecret != ""
}

// HasNextcloudAccount reports whether this profile carries service-account
// credentials for Deck and file access.
func (p *BotProfile) HasNextcloudAccount() bool {
	return p.NextcloudUser != "" && p.NextcloudPassword != ""
}
