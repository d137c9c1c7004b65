//go:build !debug

// Package check provides invariant assertions that cost nothing in release
// builds. Build with -tags debug to turn them into panics.
package check

// Assert is a no-op in release builds.
func Assert(bool, string) {}

// Assertf is a no-op in release builds.
func Assertf(bool, string, ...any) {}
