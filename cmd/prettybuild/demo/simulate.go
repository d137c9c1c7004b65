package democmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"prettybuild/pkg/buildtrace"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Options shape a simulated build.
type Options struct {
	Projects  int
	Threads   int
	Fail      string        // id or name of a project whose tests fail
	StepDelay time.Duration // mean duration of one step
	Seed      uint64
}

var lifecycle = []buildtrace.Step{
	{Plugin: "maven-resources-plugin", Goal: "resources", Phase: "process-resources", Execution: "default-resources"},
	{Plugin: "maven-compiler-plugin", Goal: "compile", Phase: "compile", Execution: "default-compile"},
	{Plugin: "maven-resources-plugin", Goal: "testResources", Phase: "process-test-resources", Execution: "default-testResources"},
	{Plugin: "maven-compiler-plugin", Goal: "testCompile", Phase: "test-compile", Execution: "default-testCompile"},
	{Plugin: "maven-surefire-plugin", Goal: "test", Phase: "test", Execution: "default-test"},
	{Plugin: "maven-jar-plugin", Goal: "jar", Phase: "package", Execution: "default-jar"},
	{Plugin: "maven-install-plugin", Goal: "install", Phase: "install", Execution: "default-install"},
}

var moduleNames = []string{
	"parent", "core", "model", "persistence", "service",
	"api", "web", "cli", "integration-tests", "dist",
}

// Plan returns n projects in build order.
func Plan(n int) buildtrace.Plan {
	plan := buildtrace.Plan{Projects: make([]buildtrace.PlannedProject, 0, n)}
	for i := range n {
		name := fmt.Sprintf("module-%02d", i)
		if i < len(moduleNames) {
			name = moduleNames[i]
		}
		plan.Projects = append(plan.Projects, buildtrace.PlannedProject{ID: "org.example:" + name, Name: name})
	}
	return plan
}

// Simulate runs a fake multi-project build through tracer. Once a project
// fails, projects that have not started yet are skipped.
func Simulate(ctx context.Context, tracer trace.Tracer, opts Options) error {
	if opts.Projects <= 0 {
		return fmt.Errorf("simulate build: at least one project is required")
	}
	if opts.Threads <= 0 {
		opts.Threads = 1
	}

	plan := Plan(opts.Projects)
	session, err := buildtrace.StartSession(ctx, tracer, "demo", plan)
	if err != nil {
		return err
	}

	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	delays := make([][]time.Duration, len(plan.Projects))
	for i := range delays {
		delays[i] = make([]time.Duration, len(lifecycle))
		for j := range delays[i] {
			if opts.StepDelay > 0 {
				delays[i][j] = opts.StepDelay/2 + time.Duration(rng.Int64N(int64(opts.StepDelay)))
			}
		}
	}

	var (
		failed atomic.Bool
		g      errgroup.Group
	)
	g.SetLimit(opts.Threads)
	for i, p := range plan.Projects {
		g.Go(func() error {
			if failed.Load() {
				session.SkipProject(session.Context(), p.ID, "an earlier project failed")
				return nil
			}
			fail := opts.Fail != "" && (strings.EqualFold(opts.Fail, p.ID) || strings.EqualFold(opts.Fail, p.Name))
			err := session.RunProject(session.Context(), p.ID, func(ctx context.Context, run *buildtrace.ProjectRun) error {
				for j, step := range lifecycle {
					err := run.RunStep(ctx, step, func(ctx context.Context) error {
						if err := sleep(ctx, delays[i][j]); err != nil {
							return err
						}
						if fail && step.Goal == "test" {
							return fmt.Errorf("%s: tests failed", p.Name)
						}
						return nil
					})
					if err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				failed.Store(true)
			}
			return err
		})
	}

	err = g.Wait()
	session.End(err)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
