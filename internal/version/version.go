// Package version reports the running build. The variables are set with
// -ldflags "-X github.com/bissquit/firemap/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the release version.
	Version = "0.0.0"
	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
	// BuildDate is when the binary was built.
	BuildDate = "unknown"
)

// Info returns version fields keyed the way the /version endpoint serves them.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
	}
}

// String is the one-line form printed by `firemap version`.
func String() string {
	return fmt.Sprintf("firemap %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
