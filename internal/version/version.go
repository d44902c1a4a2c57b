// internal/version/version.go

// Package version carries the build version, set with
// -ldflags "-X github.com/natir/pcon/internal/version.Version=...".
package version

var Version = "0.1.0-dev"
