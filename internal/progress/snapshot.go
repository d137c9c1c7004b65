package progress

// Snapshot is the immutable state of an item at one point in time.
type Snapshot struct {
	Item     Item
	Status   Status
	Current  *Step
	Previous []Step
}

// Fold applies ev on top of last, which is nil for the first event of an
// item. The previous current step is archived into Previous unless it only
// marked a goal as started. last is never modified.
//
// Fold does not guard settled snapshots; callers drop events for items that
// already settled.
func Fold(ev Event, last *Snapshot) Snapshot {
	next := Snapshot{
		Item:   ev.Item,
		Status: ev.Status,
	}
	if ev.Step != nil {
		step := *ev.Step
		next.Current = &step
	}
	if last == nil {
		return next
	}

	archive := last.Current != nil && last.Current.Kind != StepStarted
	n := len(last.Previous)
	if archive {
		n++
	}
	if n == 0 {
		return next
	}
	previous := make([]Step, 0, n)
	previous = append(previous, last.Previous...)
	if archive {
		previous = append(previous, *last.Current)
	}
	next.Previous = previous
	return next
}

// Labels returns the distinct labels of the archived steps in first-seen
// order.
func (s Snapshot) Labels() []string {
	if len(s.Previous) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(s.Previous))
	labels := make([]string, 0, len(s.Previous))
	for _, step := range s.Previous {
		label := step.Label()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
