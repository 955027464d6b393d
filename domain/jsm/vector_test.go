package jsm

import (
	"testing"
)

func TestVectorOperations(t *testing.T) {
	a := MustParseVector("110")
	b := MustParseVector("101")

	if got := a.Intersect(b).String(); got != "100" {
		t.Errorf("Intersect: expected 100, got %s", got)
	}
	if got := a.Union(b).String(); got != "111" {
		t.Errorf("Union: expected 111, got %s", got)
	}
	if got := a.Without(b).String(); got != "010" {
		t.Errorf("Without: expected 010, got %s", got)
	}
	if !MustParseVector("100").IsSubsetOf(a) {
		t.Error("Expected 100 to be a subset of 110")
	}
	if a.IsSubsetOf(b) {
		t.Error("Expected 110 not to be a subset of 101")
	}
	if a.Sum() != 2 {
		t.Errorf("Sum: expected 2, got %d", a.Sum())
	}
	if !a.Intersects(b) || MustParseVector("010").Intersects(b) {
		t.Error("Intersects returned the wrong answer")
	}
	if !NewVector(3).IsEmpty() || a.IsEmpty() {
		t.Error("IsEmpty returned the wrong answer")
	}
}

func TestVectorAcrossWordBoundary(t *testing.T) {
	values := make([]bool, 130)
	values[0], values[64], values[129] = true, true, true
	v := VectorOf(values)

	if v.Sum() != 3 {
		t.Errorf("Expected 3 set bits, got %d", v.Sum())
	}
	idx := v.Indices()
	if len(idx) != 3 || idx[0] != 0 || idx[1] != 64 || idx[2] != 129 {
		t.Errorf("Unexpected indices %v", idx)
	}
	full := Full(130)
	if full.Sum() != 130 {
		t.Errorf("Full(130) should have 130 bits, got %d", full.Sum())
	}
	if !v.IsSubsetOf(full) {
		t.Error("Every vector is a subset of the full vector")
	}
	if got := v.With(64, false).Sum(); got != 2 {
		t.Errorf("With(64,false) should clear one bit, got sum %d", got)
	}
	if v.Sum() != 3 {
		t.Error("With must not mutate the receiver")
	}
}

func TestVectorEqualAndCompare(t *testing.T) {
	if !MustParseVector("101").Equal(MustParseVector("101")) {
		t.Error("Expected equal vectors")
	}
	if MustParseVector("101").Equal(MustParseVector("1010")) {
		t.Error("Vectors of different length are never equal")
	}

	tests := []struct {
		a, b string
		want int
	}{
		{"110", "101", -1},
		{"011", "100", 1},
		{"010", "010", 0},
	}
	for _, tt := range tests {
		if got := MustParseVector(tt.a).Compare(MustParseVector(tt.b)); got != tt.want {
			t.Errorf("Compare(%s,%s): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestVectorLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic on length mismatch")
		}
	}()
	MustParseVector("10").Intersect(MustParseVector("100"))
}

func TestParseVectorRejectsGarbage(t *testing.T) {
	if _, err := ParseVector("10x"); err == nil {
		t.Error("Expected error for non-binary character")
	}
}
