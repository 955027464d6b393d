package closure

import (
	"gojsm/domain/jsm"
)

// Norris builds the term table incrementally, one example at a time in
// ascending id order.
//
// For example k every term present when its scan starts is intersected with
// v_k. A term already contained in v_k absorbs k into its extent. Otherwise
// the intersection m is materialized only if every earlier example that
// supports m is already in the term's extent; if one is missing, m is either
// produced from another term or not yet fully supported. Finally v_k itself
// becomes a singleton term unless it is implied by an earlier example.
type Norris struct{}

func (Norris) Name() string { return MethodNorris }

func (Norris) Exact() bool { return true }

func (Norris) Compute(examples []jsm.Example) []jsm.Term {
	objs := sortedByID(examples)
	var terms []jsm.Term

	for k, obj := range objs {
		prev := objs[:k]
		// An example contained in an earlier one is never a singleton term,
		// even when every existing term absorbs it (repeated vectors).
		canonical := !impliedByEarlier(obj.Vector, prev)

		// Terms appended while scanning k already include k.
		n := len(terms)
		for i := 0; i < n; i++ {
			t := terms[i]
			m := obj.Vector.Intersect(t.Intent)
			if m.Equal(t.Intent) {
				terms[i].Extent = t.Extent.Add(obj.ID)
				continue
			}

			if missingSupporter(m, t.Extent, prev) {
				continue
			}
			terms = append(terms, jsm.Term{Intent: m, Extent: t.Extent.Add(obj.ID)})
		}

		if canonical {
			terms = append(terms, jsm.Term{Intent: obj.Vector, Extent: jsm.NewIDSet(obj.ID)})
		}
	}
	return terms
}

// impliedByEarlier reports whether some earlier example contains v.
func impliedByEarlier(v jsm.Vector, prev []jsm.Example) bool {
	for _, p := range prev {
		if v.IsSubsetOf(p.Vector) {
			return true
		}
	}
	return false
}

// missingSupporter reports whether an earlier example contains m without
// being a member of extent.
func missingSupporter(m jsm.Vector, extent jsm.IDSet, prev []jsm.Example) bool {
	for _, p := range prev {
		if m.IsSubsetOf(p.Vector) && !extent.Contains(p.ID) {
			return true
		}
	}
	return false
}
