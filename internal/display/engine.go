// Package display draws item snapshots to a terminal.
//
// Engine redraws a compact live region in place on a fixed tick; Plain
// prints one line per status change for logs and dumb terminals. Both are
// progress.Sink implementations and can be fed from any goroutine.
package display

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"prettybuild/internal/check"
	"prettybuild/internal/progress"
	"prettybuild/internal/render"
	"prettybuild/internal/termtext"

	"github.com/muesli/termenv"
)

const (
	// DefaultInterval is the time between two frames.
	DefaultInterval = 50 * time.Millisecond
	// DefaultMoreMarker replaces the tail of lines that do not fit.
	DefaultMoreMarker = ">"

	clockWrap = 10000
)

// Options configure an Engine or a Plain printer. Zero values select the
// defaults.
type Options struct {
	Interval    time.Duration
	Period      int
	MoreMarker  string
	ArchivePath string // announced once the display finishes
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Period <= 0 {
		o.Period = render.DefaultPeriod
	}
	if o.MoreMarker == "" {
		o.MoreMarker = DefaultMoreMarker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Renderer formats the lines of a frame.
type Renderer interface {
	Line(s progress.Snapshot, clock int) string
	Summary(c render.Counts) string
}

// Engine aggregates events into per-item snapshots and redraws them on a
// Surface. Finished items are printed once above the live region and never
// touched again; everything else is erased and redrawn every tick, followed
// by a summary line.
type Engine struct {
	store    *Store
	surface  Surface
	renderer Renderer
	opts     Options
	log      *slog.Logger

	frame  bytes.Buffer
	cursor *termenv.Output

	clock      int
	lastActive int
	closed     atomic.Bool

	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
}

var _ progress.Sink = (*Engine)(nil)

// NewEngine returns an Engine drawing the contents of store on surface.
func NewEngine(store *Store, surface Surface, renderer Renderer, opts Options) *Engine {
	check.Assert(store != nil, "display.NewEngine: store is required")
	check.Assert(surface != nil, "display.NewEngine: surface is required")
	check.Assert(renderer != nil, "display.NewEngine: renderer is required")

	opts = opts.withDefaults()
	e := &Engine{
		store:    store,
		surface:  surface,
		renderer: renderer,
		opts:     opts,
		log:      opts.Logger.With("component", "display"),
		done:     make(chan struct{}),
	}
	e.cursor = termenv.NewOutput(&e.frame, termenv.WithProfile(termenv.Ascii))
	return e
}

// Seed registers items known up front.
func (e *Engine) Seed(items ...progress.Item) {
	e.store.Seed(items...)
}

// Publish queues ev. Events for items already retired are dropped.
func (e *Engine) Publish(ev progress.Event) {
	if !e.store.Enqueue(ev) {
		e.log.Debug("drop event for retired item", "item", ev.Item.ID, "status", ev.Status)
	}
}

// Close marks the event stream as ended. Run returns once every queued
// event has been drawn.
func (e *Engine) Close() {
	e.closed.Store(true)
}

// Start runs the engine on its own goroutine until the stream is closed and
// drained or ctx is done.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.started.Store(true)
		go func() {
			defer close(e.done)
			e.Run(ctx)
		}()
	})
}

// Wait blocks until the goroutine started by Start has flushed its last
// frame. It returns immediately if the engine was never started.
func (e *Engine) Wait() {
	if !e.started.Load() {
		return
	}
	<-e.done
}

// Run ticks until the stream was closed before a tick that found nothing to
// do, then writes the archive footer. Cancelling ctx stops early without
// error.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	for {
		// Read the flag first: events published before Close are then
		// guaranteed to be visible to this tick.
		closed := e.closed.Load()
		if idle := e.Tick(); idle && closed {
			break
		}
		select {
		case <-ctx.Done():
			e.log.Debug("display cancelled", "err", ctx.Err())
			e.footer()
			return
		case <-ticker.C:
		}
	}
	e.footer()
}

// Tick advances every item by at most one event and redraws the live
// region. It reports whether no item had a pending event.
func (e *Engine) Tick() (idle bool) {
	e.clock = (e.clock + 1) % clockWrap
	width := e.surface.Width()
	idle = true

	var (
		retired []string
		active  []string
		counts  render.Counts
	)
	for _, key := range e.store.Keys() {
		last := e.store.Last(key)
		if e.store.Retired(key) {
			counts.Add(last.Status)
			continue
		}
		if ev, ok := e.store.Pop(key); ok {
			idle = false
			next := progress.Fold(ev, last)
			e.store.Put(key, next)
			last = &next
		}
		if last == nil {
			continue
		}
		counts.Add(last.Status)

		if last.Status.Settled() {
			e.store.Retire(key)
			retired = append(retired, e.line(*last, width))
			continue
		}
		active = append(active, e.line(*last, width))
	}

	e.frame.Reset()
	for range e.lastActive {
		e.cursor.CursorUp(1)
		e.cursor.ClearLine()
	}
	for _, l := range retired {
		e.frame.WriteString(l)
		e.frame.WriteByte('\n')
	}
	for _, l := range active {
		e.frame.WriteString(l)
		e.frame.WriteByte('\n')
	}
	e.frame.WriteString(e.fit(e.renderer.Summary(counts), width))
	e.frame.WriteByte('\n')
	e.flush()

	e.lastActive = len(active) + 1
	return idle
}

// line renders one snapshot, falling back to an unstyled line if the
// renderer panics.
func (e *Engine) line(s progress.Snapshot, width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("render item", "item", s.Item.ID, "panic", r)
			out = e.fit(s.Item.Label()+" "+s.Status.String(), width)
		}
	}()
	return e.fit(e.renderer.Line(s, e.clock), width)
}

func (e *Engine) fit(s string, width int) string {
	return termtext.TruncateWith(s, width, e.opts.MoreMarker, termtext.VisibleWidth(e.opts.MoreMarker))
}

func (e *Engine) flush() {
	if e.frame.Len() == 0 {
		return
	}
	if _, err := e.surface.Write(e.frame.Bytes()); err != nil {
		e.log.Warn("write frame", "err", err)
	}
}

func (e *Engine) footer() {
	if e.opts.ArchivePath == "" {
		return
	}
	if _, err := fmt.Fprintf(e.surface, "Build output available in %s\n", e.opts.ArchivePath); err != nil {
		e.log.Warn("write footer", "err", err)
	}
}
