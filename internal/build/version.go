// Package build provides version and build information for relnote.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// UserAgent is sent with tracker requests.
func UserAgent() string {
	return "relnote/" + Version
}

// Info returns the one-line version banner.
func Info() string {
	return fmt.Sprintf("relnote %s (commit %s, built %s)", Version, Commit, BuildDate)
}
