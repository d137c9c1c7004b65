// Package render turns item snapshots into single display lines.
package render

import (
	"fmt"
	"strings"

	"prettybuild/internal/check"
	"prettybuild/internal/progress"

	"github.com/charmbracelet/lipgloss"
)

// DefaultPeriod is the number of ticks each ellipsis frame stays on screen.
// At the default 50ms tick that is half a second per frame.
const DefaultPeriod = 10

var ellipsisFrames = [...]string{"․", "‥", "…"}

// marker pairs a status with its glyph and style.
type marker struct {
	status progress.Status
	glyph  string
	style  func(Styles) lipgloss.Style
}

var markers = []marker{
	{progress.Planned, "⧖", func(s Styles) lipgloss.Style { return s.Planned }},
	{progress.Building, ellipsisFrames[0], func(s Styles) lipgloss.Style { return s.Building }},
	{progress.Succeeded, "✔", func(s Styles) lipgloss.Style { return s.Succeeded }},
	{progress.Failed, "✘", func(s Styles) lipgloss.Style { return s.Failed }},
	{progress.Skipped, "⊘", func(s Styles) lipgloss.Style { return s.Skipped }},
}

// Renderer formats snapshots. It is safe for concurrent use.
type Renderer struct {
	styles Styles
	period int

	glyphs   []string // indexed by Status.Index
	ellipsis [len(ellipsisFrames)]string
}

// New returns a Renderer emitting escapes for r's colour profile. period is
// the number of ticks per ellipsis frame; values below 1 mean DefaultPeriod.
func New(r *lipgloss.Renderer, period int) *Renderer {
	if period < 1 {
		period = DefaultPeriod
	}
	styles := NewStyles(r)
	out := &Renderer{
		styles: styles,
		period: period,
		glyphs: make([]string, len(progress.Statuses())),
	}
	for _, m := range markers {
		out.glyphs[m.status.Index()] = m.style(styles).Render(m.glyph)
	}
	for _, s := range progress.Statuses() {
		check.Assertf(out.glyphs[s.Index()] != "", "render.New: no glyph for status %v", s)
	}
	for i, f := range ellipsisFrames {
		out.ellipsis[i] = styles.Building.Render(f)
	}
	return out
}

// Glyph returns the status marker. Building animates with clock.
func (r *Renderer) Glyph(s progress.Status, clock int) string {
	if s == progress.Building {
		return r.Ellipsis(clock)
	}
	return r.glyphs[s.Index()]
}

// Ellipsis returns the animation frame for clock.
func (r *Renderer) Ellipsis(clock int) string {
	if clock < 0 {
		clock = -clock
	}
	return r.ellipsis[(clock/r.period)%len(r.ellipsis)]
}

// Line renders "<glyph> <name>: <history>".
func (r *Renderer) Line(s progress.Snapshot, clock int) string {
	head := r.Glyph(s.Status, clock) + " " + s.Item.Label()
	history := r.History(s, clock)
	if history == "" {
		return head
	}
	return head + ": " + history
}

// History summarises the steps an item went through.
//
// Succeeded items show only the first and last distinct label, muted. Any
// other item lists every distinct label followed by the step in progress,
// which carries the animated ellipsis.
func (r *Renderer) History(s progress.Snapshot, clock int) string {
	labels := s.Labels()
	if s.Status == progress.Succeeded {
		switch len(labels) {
		case 0:
			return ""
		case 1:
			return r.styles.History.Render(labels[0])
		default:
			return r.styles.History.Render(labels[0] + " … " + labels[len(labels)-1])
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(labels, ", "))
	if s.Current == nil {
		return b.String()
	}
	current := s.Current.Label()
	switch {
	case len(labels) == 0:
		b.WriteString(current)
	case labels[len(labels)-1] != current:
		b.WriteString(", ")
		b.WriteString(current)
	}
	b.WriteString(r.Ellipsis(clock))
	return b.String()
}

// Counts tallies items per status for the summary line.
type Counts struct {
	Total     int
	Planned   int
	Building  int
	Succeeded int
	Failed    int
	Skipped   int
}

// Add counts one item with status s.
func (c *Counts) Add(s progress.Status) {
	c.Total++
	switch s {
	case progress.Planned:
		c.Planned++
	case progress.Building:
		c.Building++
	case progress.Succeeded:
		c.Succeeded++
	case progress.Failed:
		c.Failed++
	case progress.Skipped:
		c.Skipped++
	}
}

// Summary renders the trailing status line of a frame.
func (r *Renderer) Summary(c Counts) string {
	built := r.styles.Bold.Render(fmt.Sprintf("%d/%d", c.Succeeded, c.Total))
	return fmt.Sprintf("Built %s projects... Failed: %d - Success: %d - Planned: %d - Skipped: %d",
		built, c.Failed, c.Succeeded, c.Planned, c.Skipped)
}
