// Package version holds build-time version metadata, set via -ldflags.
package version

var (
	// Version is the semantic version of this build, e.g. v0.3.0.
	// "dev" means a build from source without version information.
	Version = "dev"
	// GitCommit is the git commit hash this binary was built from.
	GitCommit = "unknown"
)
