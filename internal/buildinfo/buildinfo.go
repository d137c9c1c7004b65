// Package buildinfo exposes values stamped into the binary at link time.
package buildinfo

// Version is set with -ldflags "-X prettybuild/internal/buildinfo.Version=...".
var Version = "dev"
