// Package abduction checks whether the causes explain every known example.
package abduction

import (
	"gojsm/domain/jsm"
)

// Covered returns the union of the extents of causes.
func Covered(causes []jsm.Cause) jsm.IDSet {
	var out jsm.IDSet
	for _, c := range causes {
		out = out.Union(c.Extent)
	}
	return out
}

// Check computes the ids of positive and negative examples that no cause of
// their own label covers. The causal set is complete when both are empty.
func Check(causes jsm.CauseSet, positiveIDs, negativeIDs jsm.IDSet) jsm.Completeness {
	lostPos := positiveIDs.Difference(Covered(causes.Positive))
	lostNeg := negativeIDs.Difference(Covered(causes.Negative))
	return jsm.Completeness{
		Complete:     lostPos.IsEmpty() && lostNeg.IsEmpty(),
		LostPositive: lostPos,
		LostNegative: lostNeg,
	}
}
