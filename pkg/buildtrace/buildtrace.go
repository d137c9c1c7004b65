// Package buildtrace lets Go build tools report progress as OpenTelemetry
// spans. A session span carries the plan of projects; every project and
// every step run inside it gets a child span annotated with the attributes
// below, which a prettybuild span processor turns into display events.
package buildtrace

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PlanEventName  = "prettybuild.plan"
	PlanVersion    = "1"
	PlanVersionKey = "prettybuild.plan.version"
	PlanJSONKey    = "prettybuild.plan.json"

	KindKey        = "prettybuild.kind"
	ProjectIDKey   = "prettybuild.project.id"
	ProjectNameKey = "prettybuild.project.name"
	PluginKey      = "prettybuild.step.plugin"
	GoalKey        = "prettybuild.step.goal"
	PhaseKey       = "prettybuild.step.phase"
	ExecutionKey   = "prettybuild.step.execution"
	OutcomeKey     = "prettybuild.outcome"

	KindProject    = "project"
	KindStep       = "step"
	OutcomeSkipped = "skipped"

	defaultSessionName = "build"
)

// PlannedProject is one entry of a build plan.
type PlannedProject struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Plan lists the projects of a build in build order.
type Plan struct {
	Projects []PlannedProject `json:"projects"`
}

// DecodePlan parses the value of PlanJSONKey.
func DecodePlan(data string) (Plan, error) {
	var plan Plan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	return plan, nil
}

// Step describes a goal run against a project.
type Step struct {
	Plugin    string
	Goal      string
	Phase     string
	Execution string
}

// Name returns the span name of the step.
func (s Step) Name() string {
	if s.Plugin == "" {
		return s.Goal
	}
	return s.Plugin + ":" + s.Goal
}

// Session is a build in progress.
type Session struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
	names  map[string]string
}

// StartSession opens the session span and publishes plan on it.
func StartSession(ctx context.Context, tracer trace.Tracer, name string, plan Plan) (*Session, error) {
	if tracer == nil {
		return nil, fmt.Errorf("start build session: tracer is required")
	}
	if err := validatePlan(plan); err != nil {
		return nil, fmt.Errorf("start build session: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultSessionName
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("start build session: marshal plan: %w", err)
	}

	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String(PlanVersionKey, PlanVersion),
		attribute.String(PlanJSONKey, string(planJSON)),
	))
	span.AddEvent(PlanEventName, trace.WithAttributes(
		attribute.String(PlanVersionKey, PlanVersion),
		attribute.Int("prettybuild.plan.projects", len(plan.Projects)),
	))

	names := make(map[string]string, len(plan.Projects))
	for _, p := range plan.Projects {
		names[strings.TrimSpace(p.ID)] = strings.TrimSpace(p.Name)
	}
	return &Session{ctx: spanCtx, tracer: tracer, span: span, names: names}, nil
}

func (s *Session) Context() context.Context {
	if s == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Session) projectAttrs(id string) []attribute.KeyValue {
	name := s.names[id]
	if name == "" {
		name = id
	}
	return []attribute.KeyValue{
		attribute.String(ProjectIDKey, id),
		attribute.String(ProjectNameKey, name),
	}
}

// RunProject runs fn inside a project span. An error from fn marks the
// project failed and is returned unchanged.
func (s *Session) RunProject(ctx context.Context, id string, fn func(context.Context, *ProjectRun) error) error {
	if fn == nil {
		return nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("run project: project id is required")
	}
	if s == nil || s.tracer == nil {
		return fn(ctx, &ProjectRun{id: id})
	}
	if ctx == nil {
		ctx = s.ctx
	}

	attrs := append(s.projectAttrs(id), attribute.String(KindKey, KindProject))
	projectCtx, span := s.tracer.Start(ctx, id, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(projectCtx, &ProjectRun{id: id, session: s})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

// SkipProject records that a project was not built.
func (s *Session) SkipProject(ctx context.Context, id, reason string) {
	id = strings.TrimSpace(id)
	if s == nil || s.tracer == nil || id == "" {
		return
	}
	if ctx == nil {
		ctx = s.ctx
	}

	attrs := append(s.projectAttrs(id),
		attribute.String(KindKey, KindProject),
		attribute.String(OutcomeKey, OutcomeSkipped),
	)
	_, span := s.tracer.Start(ctx, id, trace.WithAttributes(attrs...))
	if reason = strings.TrimSpace(reason); reason != "" {
		span.AddEvent("skipped", trace.WithAttributes(attribute.String("reason", reason)))
	}
	span.End()
}

// End closes the session span.
func (s *Session) End(err error) {
	if s == nil || s.span == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	s.span.End()
}

// ProjectRun is handed to the function run by RunProject.
type ProjectRun struct {
	id      string
	session *Session
}

// RunStep runs fn inside a step span of the project.
func (p *ProjectRun) RunStep(ctx context.Context, step Step, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	if strings.TrimSpace(step.Goal) == "" {
		return fmt.Errorf("run step: goal is required")
	}
	if p == nil || p.session == nil || p.session.tracer == nil {
		return fn(ctx)
	}
	if ctx == nil {
		ctx = p.session.ctx
	}

	attrs := append(p.session.projectAttrs(p.id),
		attribute.String(KindKey, KindStep),
		attribute.String(PluginKey, step.Plugin),
		attribute.String(GoalKey, step.Goal),
		attribute.String(PhaseKey, step.Phase),
		attribute.String(ExecutionKey, step.Execution),
	)
	stepCtx, span := p.session.tracer.Start(ctx, step.Name(), trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(stepCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

func validatePlan(plan Plan) error {
	seen := make(map[string]struct{}, len(plan.Projects))
	for i, p := range plan.Projects {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("project %d has empty id", i)
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("duplicate project id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
