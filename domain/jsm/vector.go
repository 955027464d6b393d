package jsm

import (
	"fmt"
	"math/bits"
	"strings"
)

const wordSize = 64

// Vector is a fixed-length boolean attribute vector packed into 64-bit words.
// Vectors are values: every operation returns a fresh Vector and never
// mutates its operands. Binary operations require both operands to have the
// same length; the model validates schemas at Fit time, so a length mismatch
// here is a programming error and panics.
type Vector struct {
	n     int
	words []uint64
}

// NewVector returns an all-false vector of length n.
func NewVector(n int) Vector {
	return Vector{n: n, words: make([]uint64, (n+wordSize-1)/wordSize)}
}

// VectorOf builds a vector from a slice of booleans.
func VectorOf(values []bool) Vector {
	v := NewVector(len(values))
	for i, b := range values {
		if b {
			v.words[i/wordSize] |= 1 << (uint(i) % wordSize)
		}
	}
	return v
}

// ParseVector builds a vector from a string of '0'/'1' characters.
// It is mostly useful in tests and fixtures.
func ParseVector(s string) (Vector, error) {
	values := make([]bool, len(s))
	for i, c := range s {
		switch c {
		case '1':
			values[i] = true
		case '0':
		default:
			return Vector{}, fmt.Errorf("invalid bit %q at position %d", c, i)
		}
	}
	return VectorOf(values), nil
}

// MustParseVector is ParseVector that panics on malformed input.
func MustParseVector(s string) Vector {
	v, err := ParseVector(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Full returns an all-true vector of length n.
func Full(n int) Vector {
	v := NewVector(n)
	for i := range v.words {
		v.words[i] = ^uint64(0)
	}
	v.trim()
	return v
}

// Len returns the number of attributes.
func (v Vector) Len() int { return v.n }

// Get reports whether attribute i is set.
func (v Vector) Get(i int) bool {
	return v.words[i/wordSize]&(1<<(uint(i)%wordSize)) != 0
}

// With returns a copy of v with attribute i set to b.
func (v Vector) With(i int, b bool) Vector {
	out := v.clone()
	if b {
		out.words[i/wordSize] |= 1 << (uint(i) % wordSize)
	} else {
		out.words[i/wordSize] &^= 1 << (uint(i) % wordSize)
	}
	return out
}

// Intersect returns the elementwise AND of v and o.
func (v Vector) Intersect(o Vector) Vector {
	v.mustMatch(o)
	out := NewVector(v.n)
	for i := range v.words {
		out.words[i] = v.words[i] & o.words[i]
	}
	return out
}

// Union returns the elementwise OR of v and o.
func (v Vector) Union(o Vector) Vector {
	v.mustMatch(o)
	out := NewVector(v.n)
	for i := range v.words {
		out.words[i] = v.words[i] | o.words[i]
	}
	return out
}

// Without returns v with every attribute set in o cleared.
func (v Vector) Without(o Vector) Vector {
	v.mustMatch(o)
	out := NewVector(v.n)
	for i := range v.words {
		out.words[i] = v.words[i] &^ o.words[i]
	}
	return out
}

// IsSubsetOf reports whether every attribute of v is also set in o (v & o == v).
func (v Vector) IsSubsetOf(o Vector) bool {
	v.mustMatch(o)
	for i := range v.words {
		if v.words[i]&o.words[i] != v.words[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether v and o share at least one attribute.
func (v Vector) Intersects(o Vector) bool {
	v.mustMatch(o)
	for i := range v.words {
		if v.words[i]&o.words[i] != 0 {
			return true
		}
	}
	return false
}

// Equal reports whether v and o have the same length and bits.
func (v Vector) Equal(o Vector) bool {
	if v.n != o.n {
		return false
	}
	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Sum returns the number of set attributes.
func (v Vector) Sum() int {
	total := 0
	for _, w := range v.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// IsEmpty reports whether no attribute is set.
func (v Vector) IsEmpty() bool {
	for _, w := range v.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Compare orders vectors lexicographically in attribute order, with a set
// attribute sorting before an unset one. It returns -1, 0 or 1.
func (v Vector) Compare(o Vector) int {
	v.mustMatch(o)
	for i := 0; i < v.n; i++ {
		a, b := v.Get(i), o.Get(i)
		if a == b {
			continue
		}
		if a {
			return -1
		}
		return 1
	}
	return 0
}

// Indices returns the positions of the set attributes in ascending order.
func (v Vector) Indices() []int {
	out := make([]int, 0, v.Sum())
	for wi, w := range v.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*wordSize+tz)
			w &= w - 1
		}
	}
	return out
}

// Bools expands the vector into a slice of booleans.
func (v Vector) Bools() []bool {
	out := make([]bool, v.n)
	for i := range out {
		out[i] = v.Get(i)
	}
	return out
}

// Key returns a comparable representation suitable as a map key.
func (v Vector) Key() string {
	return v.String()
}

// String renders the vector as a string of '0'/'1' characters.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(v.n)
	for i := 0; i < v.n; i++ {
		if v.Get(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (v Vector) clone() Vector {
	out := Vector{n: v.n, words: make([]uint64, len(v.words))}
	copy(out.words, v.words)
	return out
}

func (v *Vector) trim() {
	if rem := v.n % wordSize; rem != 0 && len(v.words) > 0 {
		v.words[len(v.words)-1] &= (1 << uint(rem)) - 1
	}
}

func (v Vector) mustMatch(o Vector) {
	if v.n != o.n {
		panic(fmt.Sprintf("jsm: vector length mismatch (%d vs %d)", v.n, o.n))
	}
}
