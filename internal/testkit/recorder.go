// Package testkit holds test doubles shared by package tests.
package testkit

import (
	"slices"
	"sync"

	"prettybuild/internal/progress"
)

// Recorder is a progress.Sink that remembers every call.
type Recorder struct {
	mu     sync.Mutex
	seeded []progress.Item
	events []progress.Event
	closed int
}

var _ progress.Sink = (*Recorder)(nil)

func (r *Recorder) Seed(items ...progress.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeded = append(r.seeded, items...)
}

func (r *Recorder) Publish(ev progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
}

// Seeded returns every seeded item in call order.
func (r *Recorder) Seeded() []progress.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.seeded)
}

// Events returns every published event in call order.
func (r *Recorder) Events() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Closed returns how many times Close was called.
func (r *Recorder) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Trace returns the events of one item as "status" or "status step-label
// step-kind" strings, which keeps expectations in tests short.
func (r *Recorder) Trace(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, ev := range r.events {
		if ev.Item.ID != id {
			continue
		}
		s := ev.Status.String()
		if ev.Step != nil {
			s += " " + ev.Step.Label() + " " + ev.Step.Kind.String()
		}
		out = append(out, s)
	}
	return out
}
