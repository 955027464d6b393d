package closure

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
)

func examples(vectors ...string) []jsm.Example {
	out := make([]jsm.Example, len(vectors))
	for i, v := range vectors {
		out[i] = jsm.Example{ID: jsm.ExampleID(i + 1), Vector: jsm.MustParseVector(v)}
	}
	return out
}

func randomExamples(rng *rand.Rand, n, width int) []jsm.Example {
	out := make([]jsm.Example, n)
	for i := range out {
		values := make([]bool, width)
		for a := range values {
			values[a] = rng.Intn(100) < 55
		}
		out[i] = jsm.Example{ID: jsm.ExampleID(i + 1), Vector: jsm.VectorOf(values)}
	}
	return out
}

func intents(terms []jsm.Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Intent.String()
	}
	sort.Strings(out)
	return out
}

// bruteForceIntents returns every distinct intersection of a non-empty subset.
func bruteForceIntents(objs []jsm.Example) []string {
	seen := make(map[string]bool)
	for mask := 1; mask < 1<<len(objs); mask++ {
		var acc jsm.Vector
		first := true
		for i, o := range objs {
			if mask&(1<<i) == 0 {
				continue
			}
			if first {
				acc, first = o.Vector, false
			} else {
				acc = acc.Intersect(o.Vector)
			}
		}
		seen[acc.String()] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func findTerm(terms []jsm.Term, intent string) (jsm.Term, bool) {
	for _, t := range terms {
		if t.Intent.String() == intent {
			return t, true
		}
	}
	return jsm.Term{}, false
}

func assertExtentExact(t *testing.T, terms []jsm.Term, objs []jsm.Example) {
	t.Helper()
	for _, term := range terms {
		for _, o := range objs {
			want := term.Intent.IsSubsetOf(o.Vector)
			assert.Equal(t, want, term.Extent.Contains(o.ID),
				"term %s extent %s, example %d (%s)", term.Intent, term.Extent, o.ID, o.Vector)
		}
	}
}

func assertClosed(t *testing.T, terms []jsm.Term, objs []jsm.Example) {
	t.Helper()
	for _, term := range terms {
		common, ok := Common(term.Extent, objs)
		require.True(t, ok, "term %s has an empty extent", term.Intent)
		assert.True(t, common.Equal(term.Intent), "term %s is not closed: extent %s intersects to %s",
			term.Intent, term.Extent, common)
	}
}

func TestNorris_PositiveScenario(t *testing.T) {
	// 1:[1,1,0], 2:[1,0,1] share attribute 1 only.
	objs := examples("110", "101")
	terms := Norris{}.Compute(objs)

	require.Len(t, terms, 3)
	shared, ok := findTerm(terms, "100")
	require.True(t, ok, "expected term [1,0,0]")
	assert.True(t, shared.Extent.Equal(jsm.NewIDSet(1, 2)))

	first, ok := findTerm(terms, "110")
	require.True(t, ok)
	assert.True(t, first.Extent.Equal(jsm.NewIDSet(1)))

	second, ok := findTerm(terms, "101")
	require.True(t, ok)
	assert.True(t, second.Extent.Equal(jsm.NewIDSet(2)))
}

func TestNorris_RepeatedVectorIsNotDuplicated(t *testing.T) {
	terms := Norris{}.Compute(examples("110", "110"))

	require.Len(t, terms, 1)
	assert.Equal(t, "110", terms[0].Intent.String())
	assert.True(t, terms[0].Extent.Equal(jsm.NewIDSet(1, 2)))
}

func TestNorris_ImpliedExampleIsNotCanonical(t *testing.T) {
	// Example 2 is contained in example 1, so it only joins existing terms.
	terms := Norris{}.Compute(examples("111", "110"))

	assert.Equal(t, []string{"110", "111"}, intents(terms))
	sub, ok := findTerm(terms, "110")
	require.True(t, ok)
	assert.True(t, sub.Extent.Equal(jsm.NewIDSet(1, 2)))
}

func TestNorris_ProcessesInIDOrder(t *testing.T) {
	objs := examples("110", "101", "011")
	shuffled := []jsm.Example{objs[2], objs[0], objs[1]}

	assert.Equal(t, intents(Norris{}.Compute(objs)), intents(Norris{}.Compute(shuffled)))
}

func TestNorris_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 25; round++ {
		objs := randomExamples(rng, 2+rng.Intn(6), 5)
		terms := Norris{}.Compute(objs)

		assert.Equal(t, bruteForceIntents(objs), intents(terms), "round %d", round)
		assertClosed(t, terms, objs)
		assertExtentExact(t, terms, objs)
	}
}

func TestNorris_Empty(t *testing.T) {
	assert.Empty(t, Norris{}.Compute(nil))
}

func TestAttributeDriven(t *testing.T) {
	// Attributes 0 and 1 always travel together in examples 1 and 2 and never
	// appear in example 3.
	objs := examples("1100", "1110", "0001")
	terms := AttributeDriven{}.Compute(objs)

	require.Len(t, terms, 1)
	assert.Equal(t, "1100", terms[0].Intent.String())
	assert.True(t, terms[0].Extent.Equal(jsm.NewIDSet(1, 2)))
}

func TestAttributeDriven_OverlapRejectsAttribute(t *testing.T) {
	// Attribute 0 holders share attribute 1 with a non-holder.
	terms := AttributeDriven{}.Compute(examples("110", "110", "010"))

	for _, term := range terms {
		assert.False(t, term.Intent.Get(0), "attribute 0 must not form a term, got %s", term.Intent)
	}
}

func TestChaining_EmitsLongChainsOnly(t *testing.T) {
	objs := examples("1110", "1101", "1011", "0001")
	terms := Chaining{}.Compute(objs)

	require.NotEmpty(t, terms)
	top, ok := findTerm(terms, "1000")
	require.True(t, ok, "expected the chain over examples 1-3 to yield [1,0,0,0]")
	assert.True(t, top.Extent.Equal(jsm.NewIDSet(1, 2, 3)))
}

func TestAllStrategies_ExtentExactness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, method := range Methods {
		strategy, err := GetStrategy(method)
		require.NoError(t, err)

		for round := 0; round < 10; round++ {
			objs := randomExamples(rng, 3+rng.Intn(6), 6)
			terms := strategy.Compute(objs)
			assertExtentExact(t, terms, objs)

			seen := make(map[string]bool)
			for _, term := range terms {
				assert.False(t, seen[term.Intent.Key()], "%s emitted %s twice", method, term.Intent)
				seen[term.Intent.Key()] = true
			}
		}
	}
}

func TestAttributeDriven_TermsAreClosed(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 10; round++ {
		objs := randomExamples(rng, 3+rng.Intn(6), 6)
		assertClosed(t, AttributeDriven{}.Compute(objs), objs)
	}
}

func TestGetStrategy(t *testing.T) {
	tests := []struct {
		input string
		want  string
		exact bool
	}{
		{"", MethodNorris, true},
		{"Norris", MethodNorris, true},
		{"khazanovskiy", MethodKhazanovskiy, false},
		{"attribute-driven", MethodKhazanovskiy, false},
		{"pairwise", MethodChaining, false},
	}
	for _, tt := range tests {
		s, err := GetStrategy(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, s.Name())
		assert.Equal(t, tt.exact, s.Exact())
	}

	_, err := GetStrategy("lattice")
	assert.True(t, errors.Is(err, core.ErrUnknownMethod))
}
