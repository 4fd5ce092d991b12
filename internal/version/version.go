// Package version holds build-time version information.
package version

import "fmt"

// These are set at build time via -ldflags:
//
//	go build -ldflags "-X github.com/impertio/talkbridge/internal/version.Version=v1.2.3"
var (
	// Version is the semantic version of this build.
	Version = "0.1.0-dev"

	// Commit is the git commit hash of this build.
	Commit = "unknown"
)

// Info returns a human-readable version string.
func Info() string {
	return fmt.Sprintf("talkbridge %s (%s)", Version, Commit)
}
