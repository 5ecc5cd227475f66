// Package version exposes the build metadata stamped into the binary.
package version

// Populated by the release build via -ldflags; the zero values identify a
// local development build.
var (
	// Version is the semantic version of this build.
	Version = "dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"

	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)

// Full renders the version together with commit and build time.
func Full() string {
	return Version + " (" + GitCommit + ") built at " + BuildTime
}
