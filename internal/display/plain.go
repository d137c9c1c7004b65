package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"prettybuild/internal/check"
	"prettybuild/internal/progress"
	"prettybuild/internal/render"
)

// Plain is a Sink that prints one line whenever an item changes status. It
// never moves the cursor, which makes it suitable for CI logs and pipes.
type Plain struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *render.Renderer
	opts     Options
	log      *slog.Logger

	order  []string
	last   map[string]progress.Snapshot
	closed bool
}

var _ progress.Sink = (*Plain)(nil)

// NewPlain returns a Plain printer writing to w. renderer should use the
// ASCII colour profile.
func NewPlain(w io.Writer, renderer *render.Renderer, opts Options) *Plain {
	check.Assert(w != nil && renderer != nil, "display.NewPlain: nil writer or renderer")
	opts = opts.withDefaults()
	return &Plain{
		w:        w,
		renderer: renderer,
		opts:     opts,
		log:      opts.Logger.With("component", "display"),
		last:     make(map[string]progress.Snapshot),
	}
}

func (p *Plain) Seed(items ...progress.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, item := range items {
		if _, known := p.last[item.ID]; !known {
			p.publishLocked(progress.Planning(item))
		}
	}
}

func (p *Plain) Publish(ev progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishLocked(ev)
}

// publishLocked folds ev and prints on a status change. Caller must hold
// p.mu.
func (p *Plain) publishLocked(ev progress.Event) {
	if p.closed {
		return
	}
	last, known := p.last[ev.Item.ID]
	var prev *progress.Snapshot
	if known {
		if last.Status.Settled() {
			p.log.Debug("drop late event", "item", ev.Item.ID, "status", ev.Status)
			return
		}
		prev = &last
	} else {
		p.order = append(p.order, ev.Item.ID)
	}

	next := progress.Fold(ev, prev)
	p.last[ev.Item.ID] = next
	if known && next.Status == last.Status {
		return
	}
	p.println(p.formatLine(next))
}

// Close prints the summary and the archive footer. Later events are
// ignored.
func (p *Plain) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	var counts render.Counts
	for _, key := range p.order {
		counts.Add(p.last[key].Status)
	}
	p.println(p.renderer.Summary(counts))
	if p.opts.ArchivePath != "" {
		p.println("Build output available in " + p.opts.ArchivePath)
	}
}

// Start is a no-op; Plain prints synchronously.
func (p *Plain) Start(context.Context) {}

// Wait is a no-op; every line is written by the time Publish returns.
func (p *Plain) Wait() {}

func (p *Plain) formatLine(s progress.Snapshot) string {
	prefix := "[..]"
	switch s.Status {
	case progress.Building:
		prefix = "[->]"
	case progress.Succeeded:
		prefix = "[ok]"
	case progress.Failed:
		prefix = "[x]"
	case progress.Skipped:
		prefix = "[--]"
	}

	label := s.Item.Label()
	if !s.Status.Settled() {
		return fmt.Sprintf("%s %s", prefix, label)
	}
	if history := p.renderer.History(s, 0); history != "" {
		return fmt.Sprintf("%s %s: %s", prefix, label, history)
	}
	return fmt.Sprintf("%s %s", prefix, label)
}

// println writes one line. Caller must hold p.mu.
func (p *Plain) println(line string) {
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		p.log.Warn("write line", "err", err)
	}
}
