package jsm

import (
	"sort"
	"strconv"
	"strings"
)

// ExampleID identifies an example. IDs are totally ordered and the order is
// part of the closure contract: examples are always processed ascending.
type ExampleID int64

// IDSet is an immutable, sorted, duplicate-free set of example ids.
// The zero value is the empty set. Equality and union are value-based.
type IDSet struct {
	ids []ExampleID
}

// NewIDSet builds a set from arbitrary ids, sorting and removing duplicates.
func NewIDSet(ids ...ExampleID) IDSet {
	if len(ids) == 0 {
		return IDSet{}
	}
	sorted := make([]ExampleID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := sorted[:1]
	for _, id := range sorted[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return IDSet{ids: out}
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int { return len(s.ids) }

// IsEmpty reports whether the set has no members.
func (s IDSet) IsEmpty() bool { return len(s.ids) == 0 }

// Contains reports whether id is a member.
func (s IDSet) Contains(id ExampleID) bool {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	return i < len(s.ids) && s.ids[i] == id
}

// Add returns a new set containing the members of s plus id.
func (s IDSet) Add(id ExampleID) IDSet {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		return s
	}
	out := make([]ExampleID, 0, len(s.ids)+1)
	out = append(out, s.ids[:i]...)
	out = append(out, id)
	out = append(out, s.ids[i:]...)
	return IDSet{ids: out}
}

// Union returns the members of either set.
func (s IDSet) Union(o IDSet) IDSet {
	out := make([]ExampleID, 0, len(s.ids)+len(o.ids))
	i, j := 0, 0
	for i < len(s.ids) && j < len(o.ids) {
		switch {
		case s.ids[i] < o.ids[j]:
			out = append(out, s.ids[i])
			i++
		case s.ids[i] > o.ids[j]:
			out = append(out, o.ids[j])
			j++
		default:
			out = append(out, s.ids[i])
			i++
			j++
		}
	}
	out = append(out, s.ids[i:]...)
	out = append(out, o.ids[j:]...)
	return IDSet{ids: out}
}

// Difference returns the members of s that are not in o.
func (s IDSet) Difference(o IDSet) IDSet {
	var out []ExampleID
	for _, id := range s.ids {
		if !o.Contains(id) {
			out = append(out, id)
		}
	}
	return IDSet{ids: out}
}

// Equal reports whether both sets hold exactly the same ids.
func (s IDSet) Equal(o IDSet) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for i := range s.ids {
		if s.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// Slice returns a copy of the members in ascending order.
func (s IDSet) Slice() []ExampleID {
	out := make([]ExampleID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Int64s returns the members as plain integers, for serialization.
func (s IDSet) Int64s() []int64 {
	out := make([]int64, len(s.ids))
	for i, id := range s.ids {
		out[i] = int64(id)
	}
	return out
}

func (s IDSet) String() string {
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
