package wire

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"prettybuild/internal/progress"
)

const maxLineSize = 4 * 1024 * 1024

// NewScanner returns a line scanner sized for event lines.
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// Feed decodes one line and applies it to sink. Blank lines are ignored;
// lines that fail to decode are logged and skipped.
func Feed(sink progress.Sink, line []byte) (ended bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}
	m, err := Decode(line)
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			slog.Warn("skip unknown build event", "err", err)
		} else {
			slog.Warn("skip malformed build event", "err", err)
		}
		return false
	}
	return Apply(sink, m)
}

// Pump feeds every line of r into sink until the session ends, r is
// exhausted or ctx is done. r is read on its own goroutine so that a reader
// blocked on an idle terminal does not delay cancellation; that goroutine
// exits on the next read once Pump has returned. Pump does not close sink.
func Pump(ctx context.Context, r io.Reader, sink progress.Sink) (ended bool, err error) {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- bytes.Clone(scanner.Bytes()):
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return false, fmt.Errorf("read events: %w", err)
				}
				return false, nil
			}
			if err := ctx.Err(); err != nil {
				return false, err
			}
			if Feed(sink, line) {
				return true, nil
			}
		}
	}
}

// Writer is a Sink that encodes everything it receives as protocol lines.
// The first write error is kept and returned by Err; later writes are
// skipped.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
	err    error
}

var _ progress.Sink = (*Writer)(nil)

// NewWriter returns a Writer on w. Marked writers prefix every line with
// Marker so the stream can share w with ordinary output.
func NewWriter(w io.Writer, marked bool) *Writer {
	out := &Writer{w: w}
	if marked {
		out.prefix = Marker
	}
	return out
}

func (w *Writer) Seed(items ...progress.Item) {
	m := Message{Event: SessionStarted, Projects: make([]Project, 0, len(items))}
	for _, item := range items {
		p := Project{ID: item.ID}
		if item.Name != item.ID {
			p.Name = item.Name
		}
		m.Projects = append(m.Projects, p)
	}
	w.write(m)
}

func (w *Writer) Publish(ev progress.Event) {
	w.write(FromEvent(ev))
}

func (w *Writer) Close() {
	w.write(Message{Event: SessionEnded})
}

// Err returns the first error hit while writing.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) write(m Message) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	data, err := Encode(m)
	if err != nil {
		w.err = err
		return
	}
	line := make([]byte, 0, len(w.prefix)+len(data)+1)
	line = append(line, w.prefix...)
	line = append(line, data...)
	line = append(line, '\n')
	if _, err := w.w.Write(line); err != nil {
		w.err = fmt.Errorf("write event %s: %w", m.Event, err)
	}
}
