package democmd

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"prettybuild/internal/progress"
	"prettybuild/internal/testkit"
)

func TestPlanNamesProjects(t *testing.T) {
	t.Parallel()

	plan := Plan(12)
	if len(plan.Projects) != 12 {
		t.Fatalf("len(Projects) = %d, want 12", len(plan.Projects))
	}
	if got := plan.Projects[1]; got.ID != "org.example:core" || got.Name != "core" {
		t.Fatalf("Projects[1] = %+v", got)
	}
	if got := plan.Projects[11].Name; got != "module-11" {
		t.Fatalf("Projects[11].Name = %q, want module-11", got)
	}
}

func TestRunFeedsSink(t *testing.T) {
	t.Parallel()

	var rec testkit.Recorder
	if err := run(context.Background(), &rec, Options{Projects: 3, Threads: 2}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if got := len(rec.Seeded()); got != 3 {
		t.Fatalf("seeded %d projects, want 3", got)
	}
	trace := rec.Trace("org.example:core")
	if len(trace) != 2+2*len(lifecycle) {
		t.Fatalf("Trace(core) has %d events: %v", len(trace), trace)
	}
	if trace[0] != "building" || trace[len(trace)-1] != "succeeded" {
		t.Fatalf("Trace(core) = %v", trace)
	}
	if rec.Closed() != 1 {
		t.Fatalf("Closed() = %d, want 1", rec.Closed())
	}
}

func TestRunFailureSkipsLaterProjects(t *testing.T) {
	t.Parallel()

	var rec testkit.Recorder
	err := run(context.Background(), &rec, Options{Projects: 4, Threads: 1, Fail: "core"})
	if err == nil || !strings.Contains(err.Error(), "core: tests failed") {
		t.Fatalf("run() error = %v, want test failure", err)
	}

	outcome := func(id string) string {
		trace := rec.Trace(id)
		if len(trace) == 0 {
			return ""
		}
		return trace[len(trace)-1]
	}
	if got := outcome("org.example:parent"); got != progress.Succeeded.String() {
		t.Fatalf("parent outcome = %q, want succeeded", got)
	}
	if got := outcome("org.example:core"); got != progress.Failed.String() {
		t.Fatalf("core outcome = %q, want failed", got)
	}
	for _, id := range []string{"org.example:model", "org.example:persistence"} {
		if got := rec.Trace(id); !reflect.DeepEqual(got, []string{"skipped"}) {
			t.Fatalf("Trace(%s) = %v, want [skipped]", id, got)
		}
	}
	if rec.Closed() != 1 {
		t.Fatalf("Closed() = %d, want 1", rec.Closed())
	}
}
