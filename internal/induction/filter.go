package induction

import (
	"fmt"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
)

// Thresholds bound the size of acceptable cause candidates. Zero disables a
// bound.
type Thresholds struct {
	// Extensional is the minimum number of supporting examples.
	Extensional int `json:"extensional" yaml:"extensional"`
	// Intensional is the minimum number of attributes in the intent.
	Intensional int `json:"intensional" yaml:"intensional"`
}

// Validate rejects negative thresholds.
func (t Thresholds) Validate() error {
	if t.Extensional < 0 {
		return fmt.Errorf("%w: extensional threshold is %d", core.ErrInvalidThreshold, t.Extensional)
	}
	if t.Intensional < 0 {
		return fmt.Errorf("%w: intensional threshold is %d", core.ErrInvalidThreshold, t.Intensional)
	}
	return nil
}

// Filter keeps the terms whose extent and intent are large enough.
// The input order is preserved.
func Filter(terms []jsm.Term, th Thresholds) []jsm.Term {
	out := make([]jsm.Term, 0, len(terms))
	for _, t := range terms {
		if t.Extent.Len() >= th.Extensional && t.Intent.Sum() >= th.Intensional {
			out = append(out, t)
		}
	}
	return out
}
