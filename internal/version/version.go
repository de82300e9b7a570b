// Package version provides a single source of truth for Argus's build
// version, overridable at link time.
package version

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/argus-review/argus/internal/version.Version=1.0.0 -X github.com/argus-review/argus/internal/version.Commit=abc123"
var (
	// Version is Argus's semantic version.
	Version = "0.1.0"

	// Commit is the git commit hash (set at build time).
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time).
	BuildDate = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information.
func Full() string {
	return "argus version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
