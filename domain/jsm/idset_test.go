package jsm

import (
	"testing"
)

func TestIDSetIsSortedAndUnique(t *testing.T) {
	s := NewIDSet(3, 1, 2, 3, 1)
	if s.String() != "{1,2,3}" {
		t.Errorf("Expected {1,2,3}, got %s", s)
	}
	if !s.Contains(2) || s.Contains(4) {
		t.Error("Contains returned the wrong answer")
	}
}

func TestIDSetValueSemantics(t *testing.T) {
	base := NewIDSet(1, 3)
	added := base.Add(2)

	if base.Len() != 2 {
		t.Errorf("Add must not mutate the receiver, got %s", base)
	}
	if !added.Equal(NewIDSet(1, 2, 3)) {
		t.Errorf("Expected {1,2,3}, got %s", added)
	}
	if !base.Add(3).Equal(base) {
		t.Error("Adding an existing member should yield an equal set")
	}
}

func TestIDSetUnionDifference(t *testing.T) {
	a := NewIDSet(1, 2, 5)
	b := NewIDSet(2, 3)

	if got := a.Union(b); !got.Equal(NewIDSet(1, 2, 3, 5)) {
		t.Errorf("Union: got %s", got)
	}
	if got := a.Difference(b); !got.Equal(NewIDSet(1, 5)) {
		t.Errorf("Difference: got %s", got)
	}
	if !(IDSet{}).Union(IDSet{}).IsEmpty() {
		t.Error("Union of empty sets must be empty")
	}
}
