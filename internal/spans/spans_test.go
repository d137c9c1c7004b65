package spans

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"prettybuild/internal/progress"
	"prettybuild/internal/testkit"
	"prettybuild/pkg/buildtrace"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func newTracer(t *testing.T, rec *testkit.Recorder) trace.Tracer {
	t.Helper()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewProcessor(rec)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider.Tracer("spans-test")
}

func TestProcessorMapsSessionToEvents(t *testing.T) {
	t.Parallel()

	var rec testkit.Recorder
	tracer := newTracer(t, &rec)

	session, err := buildtrace.StartSession(context.Background(), tracer, "build", buildtrace.Plan{Projects: []buildtrace.PlannedProject{
		{ID: "core", Name: "Core"},
		{ID: "api", Name: "API"},
		{ID: "web"},
	}})
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	compile := buildtrace.Step{Plugin: "maven-compiler-plugin", Goal: "compile", Phase: "compile", Execution: "default-compile"}
	test := buildtrace.Step{Plugin: "maven-surefire-plugin", Goal: "test", Phase: "test"}
	_ = session.RunProject(session.Context(), "core", func(ctx context.Context, run *buildtrace.ProjectRun) error {
		return run.RunStep(ctx, compile, func(context.Context) error { return nil })
	})
	_ = session.RunProject(session.Context(), "api", func(ctx context.Context, run *buildtrace.ProjectRun) error {
		return run.RunStep(ctx, test, func(context.Context) error { return errors.New("2 tests failed") })
	})
	session.SkipProject(session.Context(), "web", "dependency failed")

	if rec.Closed() != 0 {
		t.Fatal("sink closed before the session ended")
	}
	session.End(nil)

	wantSeeded := []progress.Item{{ID: "core", Name: "Core"}, {ID: "api", Name: "API"}, {ID: "web"}}
	if got := rec.Seeded(); !reflect.DeepEqual(got, wantSeeded) {
		t.Fatalf("Seeded() = %v, want %v", got, wantSeeded)
	}

	testCases := []struct {
		id   string
		want []string
	}{
		{id: "core", want: []string{"building", "building compile started", "building compile succeeded", "succeeded"}},
		{id: "api", want: []string{"building", "building test started", "building test failed", "failed"}},
		{id: "web", want: []string{"skipped"}},
	}
	for _, tc := range testCases {
		if got := rec.Trace(tc.id); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Trace(%s) = %v, want %v", tc.id, got, tc.want)
		}
	}

	events := rec.Events()
	if events[0].Item.Name != "Core" {
		t.Fatalf("project name = %q, want Core", events[0].Item.Name)
	}
	if step := events[1].Step; step == nil || step.ExecutionID != "default-compile" || step.Plugin != "maven-compiler-plugin" {
		t.Fatalf("step = %+v", step)
	}
	if rec.Closed() != 1 {
		t.Fatalf("Closed() = %d, want 1", rec.Closed())
	}
}

func TestProcessorIgnoresUnrelatedSpans(t *testing.T) {
	t.Parallel()

	var rec testkit.Recorder
	tracer := newTracer(t, &rec)

	ctx, root := tracer.Start(context.Background(), "http.request")
	_, child := tracer.Start(ctx, "db.query")
	child.End()
	root.End()

	if len(rec.Events()) != 0 || len(rec.Seeded()) != 0 || rec.Closed() != 0 {
		t.Fatalf("unrelated spans produced events: %v seeded %v closed %d", rec.Events(), rec.Seeded(), rec.Closed())
	}
}
