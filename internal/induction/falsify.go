package induction

import (
	"gojsm/domain/jsm"
)

// Falsify removes the candidates whose intent also appears among the opposing
// label's candidates. Extents are ignored for the comparison.
//
// With banCounterexamples set, a candidate is also rejected when its non-empty
// intent is contained in the vector of any single opposing example, i.e. the
// hypothesized cause is observed together with the opposite outcome.
func Falsify(candidates, opposing []jsm.Term, opposingExamples []jsm.Example, banCounterexamples bool) []jsm.Term {
	rival := make(map[string]struct{}, len(opposing))
	for _, t := range opposing {
		rival[t.Intent.Key()] = struct{}{}
	}

	out := make([]jsm.Term, 0, len(candidates))
	for _, c := range candidates {
		if _, clash := rival[c.Intent.Key()]; clash {
			continue
		}
		if banCounterexamples && hasCounterexample(c.Intent, opposingExamples) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasCounterexample(intent jsm.Vector, opposing []jsm.Example) bool {
	if intent.IsEmpty() {
		return false
	}
	for _, ex := range opposing {
		if intent.IsSubsetOf(ex.Vector) {
			return true
		}
	}
	return false
}
