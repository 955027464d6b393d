// Package analogy classifies undecided examples by the causes found during
// induction.
package analogy

import (
	"gojsm/domain/jsm"
)

// Match reports which labels' causes are contained in v.
func Match(v jsm.Vector, causes jsm.CauseSet) (positive, negative bool) {
	return anyContained(v, causes.Positive), anyContained(v, causes.Negative)
}

// Decide maps the match outcome to the label an undecided example moves to.
// The second result is false when the example stays undecided.
func Decide(positive, negative bool) (jsm.Label, bool) {
	switch {
	case positive && negative:
		return jsm.Contradictory, true
	case positive:
		return jsm.Positive, true
	case negative:
		return jsm.Negative, true
	default:
		return jsm.Undecided, false
	}
}

// Transition records an example leaving the undecided partition.
type Transition struct {
	ID    jsm.ExampleID
	Label jsm.Label
	Step  int
}

// Classify evaluates every undecided example against the causes and returns
// the transitions for this step, in input order. The round has reached a
// fixed point when the result is empty.
func Classify(undecided []jsm.Example, causes jsm.CauseSet, step int) []Transition {
	var out []Transition
	for _, ex := range undecided {
		pos, neg := Match(ex.Vector, causes)
		label, moved := Decide(pos, neg)
		if !moved {
			continue
		}
		out = append(out, Transition{ID: ex.ID, Label: label, Step: step})
	}
	return out
}

func anyContained(v jsm.Vector, causes []jsm.Cause) bool {
	for _, c := range causes {
		if c.Intent.IsSubsetOf(v) {
			return true
		}
	}
	return false
}
