// Package version holds the CLI version string. Default is "dev"; release
// builds set it via: go build -ldflags "-X gai/cli/internal/version.Version=v1.0.0"
package version

// Version is the gai CLI version. Set at build time for releases.
var Version = "dev"

// Commit is the short git commit hash. Set at build time via ldflags.
var Commit = ""

// String returns the version for display (e.g. --version).
// Dev builds with Commit set render as "dev (abc1234)".
func String() string {
	if Version != "dev" || Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
