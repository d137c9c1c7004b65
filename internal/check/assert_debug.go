//go:build debug

// Package check provides invariant assertions that cost nothing in release
// builds. Build with -tags debug to turn them into panics.
package check

import "fmt"

// Assert panics with msg if cond is false.
func Assert(cond bool, msg string) {
	if !cond {
		panic("prettybuild: assertion failed: " + msg)
	}
}

// Assertf panics with a formatted message if cond is false.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("prettybuild: assertion failed: " + fmt.Sprintf(format, args...))
	}
}
