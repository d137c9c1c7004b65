// Package progress models build items moving through their lifecycle and
// folds raw lifecycle events into immutable per-item snapshots.
package progress

import (
	"strings"
)

// Item identifies one unit of work, typically a project of a multi-module
// build. ID is the identity; Name is what gets displayed.
type Item struct {
	ID   string
	Name string
}

// Label returns the display name, falling back to the ID.
func (i Item) Label() string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return i.ID
}

// StepKind is the lifecycle notification that produced a Step.
type StepKind uint8

const (
	StepStarted StepKind = iota
	StepSucceeded
	StepFailed
)

func (k StepKind) String() string {
	switch k {
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	default:
		return "started"
	}
}

// Step records one goal executed against an item.
type Step struct {
	Plugin      string // artifact id of the plugin running the goal
	Goal        string
	Phase       string // optional lifecycle phase the goal is bound to
	ExecutionID string
	Kind        StepKind
}

const (
	pluginPrefix = "maven-"
	pluginSuffix = "-plugin"
)

// Label returns the short name shown in an item's history: the phase when
// known, otherwise "plugin:goal" with conventional plugin naming trimmed.
func (s Step) Label() string {
	if s.Phase != "" {
		return s.Phase
	}
	return s.ShortGoal()
}

// ShortGoal renders "plugin:goal", shortening "maven-xxx-plugin" to "xxx".
func (s Step) ShortGoal() string {
	plugin := s.Plugin
	if strings.HasPrefix(plugin, pluginPrefix) && strings.HasSuffix(plugin, pluginSuffix) &&
		len(plugin) > len(pluginPrefix)+len(pluginSuffix) {
		plugin = plugin[len(pluginPrefix) : len(plugin)-len(pluginSuffix)]
	}
	return plugin + ":" + s.Goal
}

// Event is a raw lifecycle notification waiting to be folded.
type Event struct {
	Item   Item
	Status Status
	Step   *Step
}

// Sink receives lifecycle notifications. Implementations must be safe for
// concurrent use by any number of producers.
type Sink interface {
	// Seed registers items known up front as Planned.
	Seed(items ...Item)
	// Publish queues one event.
	Publish(ev Event)
	// Close signals that the stream has ended.
	Close()
}

// Planning returns the seed event for item.
func Planning(item Item) Event {
	return Event{Item: item, Status: Planned}
}

// Started returns the event for an item whose build began.
func Started(item Item) Event {
	return Event{Item: item, Status: Building}
}

// Executing returns the event for a step notification against item.
func Executing(item Item, step Step) Event {
	return Event{Item: item, Status: Building, Step: &step}
}

// Outcome returns the event moving item into a settled status.
func Outcome(item Item, status Status) Event {
	return Event{Item: item, Status: status}
}
