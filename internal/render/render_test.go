package render

import (
	"io"
	"strings"
	"testing"

	"prettybuild/internal/progress"
	"prettybuild/internal/termtext"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var core = progress.Item{ID: "org.example:core", Name: "core"}

func plainRenderer(period int) *Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return New(r, period)
}

func step(phase string, kind progress.StepKind) *progress.Step {
	return &progress.Step{Plugin: "maven-" + phase + "-plugin", Goal: phase, Phase: phase, Kind: kind}
}

func steps(phases ...string) []progress.Step {
	out := make([]progress.Step, 0, len(phases))
	for _, p := range phases {
		out = append(out, *step(p, progress.StepSucceeded))
	}
	return out
}

func TestLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		snap  progress.Snapshot
		clock int
		want  string
	}{
		{
			name: "planned",
			snap: progress.Snapshot{Item: core, Status: progress.Planned},
			want: "⧖ core",
		},
		{
			name: "building without steps",
			snap: progress.Snapshot{Item: core, Status: progress.Building},
			want: "․ core",
		},
		{
			name: "first step running",
			snap: progress.Snapshot{Item: core, Status: progress.Building, Current: step("compile", progress.StepStarted)},
			want: "․ core: compile․",
		},
		{
			name:  "second animation frame",
			snap:  progress.Snapshot{Item: core, Status: progress.Building, Current: step("compile", progress.StepStarted)},
			clock: 10,
			want:  "‥ core: compile‥",
		},
		{
			name:  "animation wraps",
			snap:  progress.Snapshot{Item: core, Status: progress.Building},
			clock: 35,
			want:  "․ core",
		},
		{
			name: "new step after history",
			snap: progress.Snapshot{
				Item:     core,
				Status:   progress.Building,
				Current:  step("test", progress.StepStarted),
				Previous: steps("resources", "compile"),
			},
			clock: 20,
			want:  "… core: resources, compile, test…",
		},
		{
			name: "current repeats last label",
			snap: progress.Snapshot{
				Item:     core,
				Status:   progress.Building,
				Current:  step("compile", progress.StepSucceeded),
				Previous: steps("resources", "compile"),
			},
			want: "․ core: resources, compile․",
		},
		{
			name: "succeeded collapses history",
			snap: progress.Snapshot{Item: core, Status: progress.Succeeded, Previous: steps("resources", "compile", "test", "install")},
			want: "✔ core: resources … install",
		},
		{
			name: "succeeded with one label",
			snap: progress.Snapshot{Item: core, Status: progress.Succeeded, Previous: steps("compile", "compile")},
			want: "✔ core: compile",
		},
		{
			name: "succeeded without history",
			snap: progress.Snapshot{Item: core, Status: progress.Succeeded},
			want: "✔ core",
		},
		{
			name: "failed keeps full history",
			snap: progress.Snapshot{Item: core, Status: progress.Failed, Previous: steps("compile", "test")},
			want: "✘ core: compile, test",
		},
		{
			name: "skipped",
			snap: progress.Snapshot{Item: core, Status: progress.Skipped},
			want: "⊘ core",
		},
	}

	r := plainRenderer(DefaultPeriod)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Line(tc.snap, tc.clock); got != tc.want {
				t.Fatalf("Line() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEveryStatusHasGlyph(t *testing.T) {
	t.Parallel()

	r := plainRenderer(DefaultPeriod)
	seen := make(map[string]progress.Status)
	for _, s := range progress.Statuses() {
		g := r.Glyph(s, 0)
		if g == "" {
			t.Fatalf("Glyph(%v) is empty", s)
		}
		if other, ok := seen[g]; ok {
			t.Fatalf("Glyph(%v) = %q, same as %v", s, g, other)
		}
		seen[g] = s
	}
}

func TestNewFallsBackToDefaultPeriod(t *testing.T) {
	t.Parallel()

	r := plainRenderer(0)
	if got := r.Ellipsis(DefaultPeriod); got != "‥" {
		t.Fatalf("Ellipsis(%d) = %q, want ‥", DefaultPeriod, got)
	}
	if got := r.Ellipsis(DefaultPeriod - 1); got != "․" {
		t.Fatalf("Ellipsis(%d) = %q, want ․", DefaultPeriod-1, got)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	var c Counts
	for _, s := range []progress.Status{
		progress.Succeeded, progress.Succeeded, progress.Failed,
		progress.Planned, progress.Skipped, progress.Building,
	} {
		c.Add(s)
	}

	want := "Built 2/6 projects... Failed: 1 - Success: 2 - Planned: 1 - Skipped: 1"
	if got := plainRenderer(DefaultPeriod).Summary(c); got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
	if c.Building != 1 {
		t.Fatalf("Building = %d, want 1", c.Building)
	}
}

func TestColorProfileEmitsEscapes(t *testing.T) {
	t.Parallel()

	lr := lipgloss.NewRenderer(io.Discard)
	lr.SetColorProfile(termenv.ANSI256)
	r := New(lr, DefaultPeriod)

	line := r.Line(progress.Snapshot{Item: core, Status: progress.Succeeded, Previous: steps("compile", "install")}, 0)
	if !strings.Contains(line, "\x1b[") {
		t.Fatalf("Line() = %q, want ANSI escapes", line)
	}
	if got, want := termtext.Strip(line), "✔ core: compile … install"; got != want {
		t.Fatalf("Strip(Line()) = %q, want %q", got, want)
	}
}

func TestStatusColours(t *testing.T) {
	t.Parallel()

	lr := lipgloss.NewRenderer(io.Discard)
	lr.SetColorProfile(termenv.ANSI256)
	r := New(lr, DefaultPeriod)

	testCases := []struct {
		status progress.Status
		want   string
	}{
		{status: progress.Planned, want: "38;5;33"},
		{status: progress.Building, want: "38;5;214"},
		{status: progress.Succeeded, want: "38;5;76"},
		{status: progress.Failed, want: "38;5;204"},
	}
	for _, tc := range testCases {
		if got := r.Glyph(tc.status, 0); !strings.Contains(got, tc.want) {
			t.Fatalf("Glyph(%v) = %q, want colour %s", tc.status, got, tc.want)
		}
	}
}
