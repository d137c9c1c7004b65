// Package wire implements the JSON-lines build event protocol.
//
// Every line carries one Message. A build tool either writes the stream to a
// file of its own or interleaves it with ordinary output, in which case each
// event line starts with Marker.
package wire

import (
	"errors"
	"fmt"
	"strings"

	"prettybuild/internal/progress"

	json "github.com/goccy/go-json"
)

// Marker prefixes event lines embedded in a build's regular output.
const Marker = "##prettybuild "

// Event names.
const (
	SessionStarted   = "session_started"
	ProjectPlanned   = "project_planned"
	ProjectStarted   = "project_started"
	StepStarted      = "step_started"
	StepSucceeded    = "step_succeeded"
	StepFailed       = "step_failed"
	ProjectSucceeded = "project_succeeded"
	ProjectFailed    = "project_failed"
	ProjectSkipped   = "project_skipped"
	SessionEnded     = "session_ended"
)

// ErrUnknownEvent is returned by Decode for event names it does not know.
var ErrUnknownEvent = errors.New("unknown event")

// Project identifies one item of the build.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Step describes a goal executed against a project.
type Step struct {
	Plugin    string `json:"plugin,omitempty"`
	Goal      string `json:"goal,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Execution string `json:"execution,omitempty"`
}

// Message is one line of the protocol.
type Message struct {
	Event    string    `json:"event"`
	Projects []Project `json:"projects,omitempty"`
	Project  *Project  `json:"project,omitempty"`
	Step     *Step     `json:"step,omitempty"`
}

// Unmark returns the payload of a marked line.
func Unmark(line string) (string, bool) {
	return strings.CutPrefix(line, Marker)
}

// Decode parses and validates one line.
func Decode(line []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, fmt.Errorf("decode event: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Encode renders m as one line without the trailing newline.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", m.Event, err)
	}
	return data, nil
}

// Validate checks that m carries what its event needs.
func (m Message) Validate() error {
	switch m.Event {
	case SessionStarted:
		for _, p := range m.Projects {
			if strings.TrimSpace(p.ID) == "" {
				return fmt.Errorf("%s: project id is required", m.Event)
			}
		}
		return nil
	case SessionEnded:
		return nil
	case ProjectPlanned, ProjectStarted, ProjectSucceeded, ProjectFailed, ProjectSkipped:
		return m.validateProject()
	case StepStarted, StepSucceeded, StepFailed:
		if err := m.validateProject(); err != nil {
			return err
		}
		if m.Step == nil {
			return fmt.Errorf("%s: step is required", m.Event)
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownEvent, m.Event)
	}
}

func (m Message) validateProject() error {
	if m.Project == nil || strings.TrimSpace(m.Project.ID) == "" {
		return fmt.Errorf("%s: project id is required", m.Event)
	}
	return nil
}

func (p Project) item() progress.Item {
	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = p.ID
	}
	return progress.Item{ID: p.ID, Name: name}
}

func (s Step) step(kind progress.StepKind) progress.Step {
	return progress.Step{
		Plugin:      s.Plugin,
		Goal:        s.Goal,
		Phase:       s.Phase,
		ExecutionID: s.Execution,
		Kind:        kind,
	}
}

// Apply forwards m to sink. It reports whether m ended the session; the
// caller decides when to close the sink. m must be valid.
func Apply(sink progress.Sink, m Message) (ended bool) {
	switch m.Event {
	case SessionStarted:
		items := make([]progress.Item, 0, len(m.Projects))
		for _, p := range m.Projects {
			items = append(items, p.item())
		}
		sink.Seed(items...)
	case ProjectPlanned:
		sink.Publish(progress.Planning(m.Project.item()))
	case ProjectStarted:
		sink.Publish(progress.Started(m.Project.item()))
	case StepStarted:
		sink.Publish(progress.Executing(m.Project.item(), m.Step.step(progress.StepStarted)))
	case StepSucceeded:
		sink.Publish(progress.Executing(m.Project.item(), m.Step.step(progress.StepSucceeded)))
	case StepFailed:
		sink.Publish(progress.Executing(m.Project.item(), m.Step.step(progress.StepFailed)))
	case ProjectSucceeded:
		sink.Publish(progress.Outcome(m.Project.item(), progress.Succeeded))
	case ProjectFailed:
		sink.Publish(progress.Outcome(m.Project.item(), progress.Failed))
	case ProjectSkipped:
		sink.Publish(progress.Outcome(m.Project.item(), progress.Skipped))
	case SessionEnded:
		return true
	}
	return false
}

// FromEvent converts a progress event back into a protocol message.
func FromEvent(ev progress.Event) Message {
	project := &Project{ID: ev.Item.ID}
	if ev.Item.Name != ev.Item.ID {
		project.Name = ev.Item.Name
	}
	m := Message{Project: project}

	switch {
	case ev.Step != nil:
		m.Step = &Step{
			Plugin:    ev.Step.Plugin,
			Goal:      ev.Step.Goal,
			Phase:     ev.Step.Phase,
			Execution: ev.Step.ExecutionID,
		}
		switch ev.Step.Kind {
		case progress.StepSucceeded:
			m.Event = StepSucceeded
		case progress.StepFailed:
			m.Event = StepFailed
		default:
			m.Event = StepStarted
		}
	case ev.Status == progress.Building:
		m.Event = ProjectStarted
	case ev.Status == progress.Succeeded:
		m.Event = ProjectSucceeded
	case ev.Status == progress.Failed:
		m.Event = ProjectFailed
	case ev.Status == progress.Skipped:
		m.Event = ProjectSkipped
	default:
		m.Event = ProjectPlanned
	}
	return m
}
