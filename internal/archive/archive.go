// Package archive keeps the raw output of a build on disk while the live
// display owns the terminal.
package archive

import (
	"fmt"
	"os"
	"sync"
)

const pattern = "prettybuild-*.log"

// Archive is a build output file that is safe for concurrent writers.
type Archive struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

// Create opens a new archive file in dir, or in the system temp directory
// when dir is empty.
func Create(dir string) (*Archive, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &Archive{f: f}, nil
}

// Path returns the location of the archive file.
func (a *Archive) Path() string {
	return a.f.Name()
}

// Write appends p. Writes from different goroutines are never interleaved
// within one call.
func (a *Archive) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, os.ErrClosed
	}
	return a.f.Write(p)
}

// Close flushes and closes the file. It is safe to call more than once.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	return a.f.Close()
}
