package engine

import (
	"fmt"

	"gojsm/domain/jsm"
)

// Store holds every example of a model in ascending id order. Partitions are
// views filtered by label; examples are never removed, only relabeled.
type Store struct {
	examples []jsm.Example
	index    map[jsm.ExampleID]int
}

// newStore builds a store from examples already sorted by id.
func newStore(examples []jsm.Example) *Store {
	s := &Store{
		examples: examples,
		index:    make(map[jsm.ExampleID]int, len(examples)),
	}
	for i, ex := range examples {
		s.index[ex.ID] = i
	}
	return s
}

// Len returns the total number of examples.
func (s *Store) Len() int { return len(s.examples) }

// Partition returns copies of the examples carrying label l, in id order.
func (s *Store) Partition(l jsm.Label) []jsm.Example {
	var out []jsm.Example
	for _, ex := range s.examples {
		if ex.Label == l {
			out = append(out, ex)
		}
	}
	return out
}

// IDs returns the ids of partition l.
func (s *Store) IDs(l jsm.Label) jsm.IDSet {
	var ids []jsm.ExampleID
	for _, ex := range s.examples {
		if ex.Label == l {
			ids = append(ids, ex.ID)
		}
	}
	return jsm.NewIDSet(ids...)
}

// Get returns the example with the given id.
func (s *Store) Get(id jsm.ExampleID) (jsm.Example, bool) {
	i, ok := s.index[id]
	if !ok {
		return jsm.Example{}, false
	}
	return s.examples[i], true
}

// Move relabels an undecided example and stamps the step. Decided examples
// never move again and steps never decrease.
func (s *Store) Move(id jsm.ExampleID, to jsm.Label, step int) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("example %d not in store", id)
	}
	ex := &s.examples[i]
	if ex.Label != jsm.Undecided {
		return fmt.Errorf("example %d is already %s", id, ex.Label)
	}
	if to == jsm.Undecided {
		return fmt.Errorf("example %d cannot move back to undecided", id)
	}
	if step < ex.Step {
		return fmt.Errorf("example %d: step %d precedes current step %d", id, step, ex.Step)
	}
	ex.Label = to
	ex.Step = step
	return nil
}

// Counts returns the size of every partition.
func (s *Store) Counts() map[jsm.Label]int {
	out := make(map[jsm.Label]int, len(jsm.Labels))
	for _, l := range jsm.Labels {
		out[l] = 0
	}
	for _, ex := range s.examples {
		out[ex.Label]++
	}
	return out
}
