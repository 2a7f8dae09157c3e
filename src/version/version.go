// Package version exposes the build version string.
package version

// Version is the semantic version of this build. Release tooling rewrites it
// via -ldflags at link time.
var Version = "0.1.0"
