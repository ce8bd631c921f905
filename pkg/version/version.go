// Package version carries the build-stamped version metadata.
package version

// Build metadata, overridden at link time via -ldflags.
//
//nolint:gochecknoglobals // set by the build.
var (
	Version = "0.1.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
)
