// Package audit grants an app-op to every installed package that declares
// the matching manifest permission, and records what happened to each one.
package audit

import "fmt"

// State is the terminal outcome assigned to a package.
type State int

const (
	SkippedNoPermission State = iota
	AlreadyAllowed
	SetSuccess
	SetFailed
	CheckFailed
)

// States lists every terminal state in report order.
var States = []State{AlreadyAllowed, SetSuccess, SetFailed, SkippedNoPermission, CheckFailed}

var stateNames = map[State]string{
	SkippedNoPermission: "skipped",
	AlreadyAllowed:      "already-allowed",
	SetSuccess:          "set-success",
	SetFailed:           "set-failed",
	CheckFailed:         "check-failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown audit state %q", name)
}

// Outcome is the result of processing one package.
type Outcome struct {
	Package string
	State   State
	Reason  string // why a failure state was assigned
}

// Report accumulates outcomes for one sweep.
type Report struct {
	Total        int  // packages enumerated
	UsedFallback bool // the unfiltered package list was used
	Outcomes     []Outcome
}

// Add records an outcome.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Count returns the number of packages in state s.
func (r *Report) Count(s State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == s {
			n++
		}
	}
	return n
}

// Packages returns the packages in state s, in processing order.
func (r *Report) Packages(s State) []string {
	var pkgs []string
	for _, o := range r.Outcomes {
		if o.State == s {
			pkgs = append(pkgs, o.Package)
		}
	}
	return pkgs
}

// Checked is the number of packages whose app-op was examined.
func (r *Report) Checked() int {
	return len(r.Outcomes) - r.Count(SkippedNoPermission)
}
