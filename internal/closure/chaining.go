package closure

import (
	"sort"

	"gojsm/domain/jsm"
)

// Chaining is a best-effort strategy: examples are sorted by vector and, from
// every start position, intersected forward until the running intersection
// would become empty. A chain of more than two members yields a term.
//
// It explores a single greedy chain per start and therefore misses closed
// intents the exact strategies find. The terms it does emit are closed: the
// extent is the exact support of the chain intersection and the intent is
// recomputed from that extent. Repeated intents are reported once.
type Chaining struct{}

func (Chaining) Name() string { return MethodChaining }

func (Chaining) Exact() bool { return false }

func (Chaining) Compute(examples []jsm.Example) []jsm.Term {
	objs := sortedByID(examples)
	sort.SliceStable(objs, func(i, j int) bool {
		if c := objs[i].Vector.Compare(objs[j].Vector); c != 0 {
			return c < 0
		}
		return objs[i].ID < objs[j].ID
	})

	var terms []jsm.Term
	seen := make(map[string]bool)

	for i := range objs {
		running := objs[i].Vector
		members := 1
		for j := i + 1; j < len(objs); j++ {
			next := running.Intersect(objs[j].Vector)
			if next.IsEmpty() {
				break
			}
			running = next
			members++
		}
		if members <= 2 {
			continue
		}

		extent := Support(running, objs)
		intent, _ := Common(extent, objs)
		if seen[intent.Key()] {
			continue
		}
		seen[intent.Key()] = true
		terms = append(terms, jsm.Term{Intent: intent, Extent: extent})
	}
	return terms
}
