package jsm

import (
	"fmt"
	"strings"

	"gojsm/domain/core"
)

// Schema is the ordered list of attribute names every vector of a model is
// defined over.
type Schema struct {
	names []string
}

// NewSchema validates and builds a schema. Names must be non-empty and unique.
func NewSchema(names []string) (Schema, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return Schema{}, fmt.Errorf("%w: attribute %d has an empty name", core.ErrSchemaMismatch, i)
		}
		if seen[name] {
			return Schema{}, fmt.Errorf("%w: attribute %q appears twice", core.ErrSchemaMismatch, name)
		}
		seen[name] = true
		out[i] = name
	}
	return Schema{names: out}, nil
}

// Len returns the number of attributes.
func (s Schema) Len() int { return len(s.names) }

// Names returns a copy of the attribute names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Name returns the name of attribute i.
func (s Schema) Name(i int) string { return s.names[i] }

// Equal reports whether both schemas list the same names in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s.names) != len(o.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != o.names[i] {
			return false
		}
	}
	return true
}

// Check returns ErrSchemaMismatch when v is not defined over s.
func (s Schema) Check(v Vector) error {
	if v.Len() != len(s.names) {
		return core.NewSchemaMismatchError(len(s.names), v.Len())
	}
	return nil
}

// Describe lists the names of the attributes set in v.
func (s Schema) Describe(v Vector) []string {
	idx := v.Indices()
	out := make([]string, len(idx))
	for i, a := range idx {
		out[i] = s.names[a]
	}
	return out
}
