package progress

import "fmt"

// Status is the lifecycle state of a tracked item.
//
// Status is a closed set: the only values are the package-level variables
// below, and the zero value is Planned.
type Status struct {
	code statusCode
}

type statusCode uint8

const (
	codePlanned statusCode = iota
	codeBuilding
	codeSucceeded
	codeFailed
	codeSkipped
)

var (
	Planned   = Status{codePlanned}
	Building  = Status{codeBuilding}
	Succeeded = Status{codeSucceeded}
	Failed    = Status{codeFailed}
	Skipped   = Status{codeSkipped}
)

var statusNames = [...]string{
	codePlanned:   "planned",
	codeBuilding:  "building",
	codeSucceeded: "succeeded",
	codeFailed:    "failed",
	codeSkipped:   "skipped",
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{Planned, Building, Succeeded, Failed, Skipped}
}

// ParseStatus converts a status name back into a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status{statusCode(i)}, nil
		}
	}
	return Status{}, fmt.Errorf("unknown status %q", name)
}

func (s Status) String() string {
	return statusNames[s.code]
}

// Index returns a dense index in [0, len(Statuses())) usable for lookup
// tables keyed by status.
func (s Status) Index() int {
	return int(s.code)
}

// Finished reports whether the item ended with an outcome.
func (s Status) Finished() bool {
	return s == Succeeded || s == Failed
}

// Settled reports whether no further transition can leave s. Skipped items
// never finish but can no longer change either.
func (s Status) Settled() bool {
	return s.Finished() || s == Skipped
}
