// Package tail follows a growing line-oriented file.
package tail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval bounds the delay on filesystems that do not deliver write
// notifications.
const pollInterval = 500 * time.Millisecond

// ErrRemoved is returned when the followed file is removed or renamed.
var ErrRemoved = errors.New("file removed")

// Follow hands every complete line of path to fn, starting at the
// beginning of the file and then waiting for appended data. A trailing line
// without a newline is held back until it is completed. The slice passed to
// fn is only valid during the call.
//
// Follow returns nil once fn reports stop, ctx.Err() when ctx is done, and
// ErrRemoved once the file is removed or replaced, after handing over the
// complete lines it still held. Truncation is not detected.
func Follow(ctx context.Context, path string, fn func(line []byte) (stop bool)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	lr := &lineReader{r: bufio.NewReaderSize(f, 64*1024), fn: fn}
	if stop, err := lr.drain(); stop || err != nil {
		return err
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Linux holds back the delete while f is open and reports
			// only the link count change as Chmod.
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Chmod) {
				if gone(path, info) {
					return lr.finish(path)
				}
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch file", "path", path, "err", err)
			continue
		case <-poll.C:
			if gone(path, info) {
				return lr.finish(path)
			}
		}

		if stop, err := lr.drain(); stop || err != nil {
			return err
		}
	}
}

// gone reports whether path no longer names the file described by info.
func gone(path string, info os.FileInfo) bool {
	cur, err := os.Stat(path)
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	return !os.SameFile(info, cur)
}

type lineReader struct {
	r       *bufio.Reader
	fn      func([]byte) bool
	partial []byte
}

// finish hands over what is left of a removed file and reports ErrRemoved,
// unless fn asked to stop first.
func (l *lineReader) finish(path string) error {
	stop, err := l.drain()
	if err != nil {
		return err
	}
	if stop {
		return nil
	}
	return fmt.Errorf("%s: %w", path, ErrRemoved)
}

// drain passes every complete line currently available to fn.
func (l *lineReader) drain() (stop bool, err error) {
	for {
		chunk, err := l.r.ReadBytes('\n')
		l.partial = append(l.partial, chunk...)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read: %w", err)
		}
		line := bytes.TrimRight(l.partial, "\r\n")
		stop := l.fn(line)
		l.partial = l.partial[:0]
		if stop {
			return true, nil
		}
	}
}
