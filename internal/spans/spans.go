// Package spans turns OpenTelemetry spans emitted through pkg/buildtrace
// into progress events.
package spans

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"prettybuild/internal/progress"
	"prettybuild/pkg/buildtrace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Processor is an sdktrace.SpanProcessor publishing to a progress.Sink.
// Ending a session span closes the sink.
type Processor struct {
	sink progress.Sink

	mu       sync.Mutex
	sessions map[trace.SpanID]struct{}
}

var _ sdktrace.SpanProcessor = (*Processor)(nil)

// NewProcessor returns a Processor feeding sink.
func NewProcessor(sink progress.Sink) *Processor {
	return &Processor{sink: sink, sessions: make(map[trace.SpanID]struct{})}
}

func (p *Processor) OnStart(_ context.Context, span sdktrace.ReadWriteSpan) {
	if p == nil || p.sink == nil {
		return
	}

	attrs := span.Attributes()
	switch attributeValue(attrs, buildtrace.KindKey) {
	case buildtrace.KindProject:
		if attributeValue(attrs, buildtrace.OutcomeKey) == buildtrace.OutcomeSkipped {
			return
		}
		p.sink.Publish(progress.Started(itemOf(attrs)))
		return
	case buildtrace.KindStep:
		p.sink.Publish(progress.Executing(itemOf(attrs), stepOf(attrs, progress.StepStarted)))
		return
	}

	if span.Parent().IsValid() {
		return
	}
	planJSON := attributeValue(attrs, buildtrace.PlanJSONKey)
	if strings.TrimSpace(planJSON) == "" {
		return
	}
	plan, err := buildtrace.DecodePlan(planJSON)
	if err != nil {
		slog.Warn("ignore build plan", "span", span.Name(), "err", err)
		return
	}

	p.mu.Lock()
	p.sessions[span.SpanContext().SpanID()] = struct{}{}
	p.mu.Unlock()

	items := make([]progress.Item, 0, len(plan.Projects))
	for _, planned := range plan.Projects {
		items = append(items, progress.Item{ID: planned.ID, Name: planned.Name})
	}
	p.sink.Seed(items...)
}

func (p *Processor) OnEnd(span sdktrace.ReadOnlySpan) {
	if p == nil || p.sink == nil {
		return
	}

	attrs := span.Attributes()
	failed := span.Status().Code == codes.Error
	switch attributeValue(attrs, buildtrace.KindKey) {
	case buildtrace.KindProject:
		status := progress.Succeeded
		switch {
		case attributeValue(attrs, buildtrace.OutcomeKey) == buildtrace.OutcomeSkipped:
			status = progress.Skipped
		case failed:
			status = progress.Failed
		}
		p.sink.Publish(progress.Outcome(itemOf(attrs), status))
		return
	case buildtrace.KindStep:
		kind := progress.StepSucceeded
		if failed {
			kind = progress.StepFailed
		}
		p.sink.Publish(progress.Executing(itemOf(attrs), stepOf(attrs, kind)))
		return
	}

	id := span.SpanContext().SpanID()
	p.mu.Lock()
	_, session := p.sessions[id]
	delete(p.sessions, id)
	p.mu.Unlock()
	if session {
		p.sink.Close()
	}
}

func (p *Processor) Shutdown(context.Context) error {
	return nil
}

func (p *Processor) ForceFlush(context.Context) error {
	return nil
}

func itemOf(attrs []attribute.KeyValue) progress.Item {
	return progress.Item{
		ID:   attributeValue(attrs, buildtrace.ProjectIDKey),
		Name: attributeValue(attrs, buildtrace.ProjectNameKey),
	}
}

func stepOf(attrs []attribute.KeyValue, kind progress.StepKind) progress.Step {
	return progress.Step{
		Plugin:      attributeValue(attrs, buildtrace.PluginKey),
		Goal:        attributeValue(attrs, buildtrace.GoalKey),
		Phase:       attributeValue(attrs, buildtrace.PhaseKey),
		ExecutionID: attributeValue(attrs, buildtrace.ExecutionKey),
		Kind:        kind,
	}
}

func attributeValue(attrs []attribute.KeyValue, key string) string {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value.AsString()
		}
	}
	return ""
}
