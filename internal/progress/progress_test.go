package progress

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

var core = Item{ID: "org.example:core", Name: "core"}

func TestStepLabel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		step Step
		want string
	}{
		{name: "phase wins", step: Step{Plugin: "maven-compiler-plugin", Goal: "compile", Phase: "compile"}, want: "compile"},
		{name: "maven plugin shortened", step: Step{Plugin: "maven-surefire-plugin", Goal: "test"}, want: "surefire:test"},
		{name: "third party plugin kept", step: Step{Plugin: "jacoco-maven-plugin", Goal: "report"}, want: "jacoco-maven-plugin:report"},
		{name: "bare maven-plugin kept", step: Step{Plugin: "maven-plugin", Goal: "x"}, want: "maven-plugin:x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.step.Label(); got != tc.want {
				t.Fatalf("Label() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestItemLabelFallsBackToID(t *testing.T) {
	t.Parallel()

	if got := (Item{ID: "core"}).Label(); got != "core" {
		t.Fatalf("Label() = %q, want core", got)
	}
}

func TestStatusSets(t *testing.T) {
	t.Parallel()

	for _, s := range Statuses() {
		parsed, err := ParseStatus(s.String())
		if err != nil {
			t.Fatalf("ParseStatus(%q) error = %v", s, err)
		}
		if parsed != s {
			t.Fatalf("ParseStatus(%q) = %v", s, parsed)
		}
	}
	if _, err := ParseStatus("exploded"); err == nil {
		t.Fatal("ParseStatus(exploded) error = nil, want error")
	}
	if !Succeeded.Finished() || !Failed.Finished() || Skipped.Finished() {
		t.Fatal("only succeeded and failed are finished")
	}
	if !Skipped.Settled() || Building.Settled() || Planned.Settled() {
		t.Fatal("skipped must settle, planned and building must not")
	}
	var zero Status
	if zero != Planned {
		t.Fatalf("zero Status = %v, want planned", zero)
	}
}

func TestFoldArchivesCompletedSteps(t *testing.T) {
	t.Parallel()

	compileStart := Step{Plugin: "maven-compiler-plugin", Goal: "compile", Phase: "compile", Kind: StepStarted}
	compileDone := Step{Plugin: "maven-compiler-plugin", Goal: "compile", Phase: "compile", Kind: StepSucceeded}
	testDone := Step{Plugin: "maven-surefire-plugin", Goal: "test", Phase: "test", Kind: StepSucceeded}

	s := Fold(Planning(core), nil)
	if s.Status != Planned || s.Current != nil || len(s.Previous) != 0 {
		t.Fatalf("seed snapshot = %+v", s)
	}

	s = Fold(Executing(core, compileStart), &s)
	if len(s.Previous) != 0 {
		t.Fatalf("previous after first step = %v, want empty", s.Previous)
	}

	s = Fold(Executing(core, compileDone), &s)
	if len(s.Previous) != 0 {
		t.Fatalf("started marker archived: %v", s.Previous)
	}

	s = Fold(Executing(core, testDone), &s)
	if want := []Step{compileDone}; !reflect.DeepEqual(s.Previous, want) {
		t.Fatalf("previous = %v, want %v", s.Previous, want)
	}

	s = Fold(Outcome(core, Succeeded), &s)
	if want := []Step{compileDone, testDone}; !reflect.DeepEqual(s.Previous, want) {
		t.Fatalf("previous = %v, want %v", s.Previous, want)
	}
	if s.Current != nil || s.Status != Succeeded {
		t.Fatalf("final snapshot = %+v", s)
	}
}

func TestFoldDoesNotAliasPreviousSnapshot(t *testing.T) {
	t.Parallel()

	done := Step{Goal: "a", Phase: "a", Kind: StepSucceeded}
	first := Fold(Executing(core, done), nil)
	second := Fold(Executing(core, done), &first)
	third := Fold(Executing(core, Step{Goal: "b", Phase: "b", Kind: StepSucceeded}), &second)
	branch := Fold(Executing(core, Step{Goal: "c", Phase: "c", Kind: StepSucceeded}), &second)

	if len(second.Previous) != 1 {
		t.Fatalf("second.Previous = %v, want 1 step", second.Previous)
	}
	if third.Previous[1].Goal != "a" || branch.Previous[1].Goal != "a" {
		t.Fatalf("folds sharing a parent diverged: %v vs %v", third.Previous, branch.Previous)
	}
}

func TestSnapshotLabelsDistinct(t *testing.T) {
	t.Parallel()

	s := Snapshot{Previous: []Step{
		{Phase: "compile"},
		{Phase: "compile"},
		{Plugin: "maven-resources-plugin", Goal: "testResources"},
		{Phase: "compile"},
		{Phase: "test"},
	}}
	want := []string{"compile", "resources:testResources", "test"}
	if got := s.Labels(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
}

func TestFoldHistoryIsAppendOnly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kinds := rapid.SliceOf(rapid.SampledFrom([]StepKind{StepStarted, StepSucceeded, StepFailed})).Draw(t, "kinds")

		var last *Snapshot
		for i, kind := range kinds {
			ev := Executing(core, Step{Goal: "g", Phase: string(rune('a' + i%26)), Kind: kind})
			next := Fold(ev, last)
			if last != nil {
				if len(next.Previous) < len(last.Previous) {
					t.Fatalf("history shrank from %d to %d", len(last.Previous), len(next.Previous))
				}
				if len(last.Previous) > 0 && !reflect.DeepEqual(next.Previous[:len(last.Previous)], last.Previous) {
					t.Fatalf("history prefix changed: %v -> %v", last.Previous, next.Previous)
				}
			}
			last = &next
		}
	})
}
