// Package closure computes minimal-intersection term tables for a set of
// examples that share a label.
//
// Every strategy receives the examples of one label and returns terms whose
// extents are explicit, duplicate-free id sets. Examples are processed in
// ascending id order; for the Norris strategy that order decides which
// intersections are canonical, so callers must hand over ids that carry a
// stable, meaningful order (ingestion order by default).
package closure

import (
	"fmt"
	"sort"
	"strings"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
)

// Strategy is the contract every closure algorithm satisfies.
type Strategy interface {
	// Name returns the canonical method name.
	Name() string
	// Exact reports whether the output is guaranteed to be a complete,
	// closure-minimal term basis.
	Exact() bool
	// Compute returns the term table for the given examples.
	Compute(examples []jsm.Example) []jsm.Term
}

// Method names accepted by GetStrategy.
const (
	MethodNorris       = "norris"
	MethodKhazanovskiy = "khazanovskiy"
	MethodChaining     = "chaining"
)

// Methods lists the canonical method names.
var Methods = []string{MethodNorris, MethodKhazanovskiy, MethodChaining}

// GetStrategy acts as the factory for closure strategies. Matching is
// case-insensitive and accepts a few descriptive aliases.
func GetStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MethodNorris:
		return Norris{}, nil
	case MethodKhazanovskiy, "attribute", "attribute-driven":
		return AttributeDriven{}, nil
	case MethodChaining, "pairwise", "pairwise-chaining":
		return Chaining{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %s)", core.ErrUnknownMethod, name, strings.Join(Methods, ", "))
	}
}

// sortedByID returns a copy of examples in ascending id order.
func sortedByID(examples []jsm.Example) []jsm.Example {
	out := make([]jsm.Example, len(examples))
	copy(out, examples)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Support returns the ids of the examples whose vectors contain intent.
func Support(intent jsm.Vector, examples []jsm.Example) jsm.IDSet {
	ids := make([]jsm.ExampleID, 0, len(examples))
	for _, ex := range examples {
		if intent.IsSubsetOf(ex.Vector) {
			ids = append(ids, ex.ID)
		}
	}
	return jsm.NewIDSet(ids...)
}

// Common returns the intersection of the vectors of the examples in extent.
// The second result is false when no example of extent is present.
func Common(extent jsm.IDSet, examples []jsm.Example) (jsm.Vector, bool) {
	var (
		acc   jsm.Vector
		found bool
	)
	for _, ex := range examples {
		if !extent.Contains(ex.ID) {
			continue
		}
		if !found {
			acc, found = ex.Vector, true
			continue
		}
		acc = acc.Intersect(ex.Vector)
	}
	return acc, found
}
