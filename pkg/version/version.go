// Package version holds build-time version metadata, injected via -ldflags.
package version

// Populated at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
