// Package induction derives causes from the examples of both labels:
// closure, filtration by thresholds, then falsification against the
// opposing label.
package induction

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gojsm/domain/jsm"
	"gojsm/internal"
	"gojsm/internal/closure"
)

// Inducer runs one induction round.
type Inducer struct {
	strategy           closure.Strategy
	thresholds         Thresholds
	banCounterexamples bool
	logger             *internal.Logger
}

// NewInducer creates an inducer. A nil logger falls back to the default one.
func NewInducer(strategy closure.Strategy, thresholds Thresholds, banCounterexamples bool, logger *internal.Logger) *Inducer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Inducer{
		strategy:           strategy,
		thresholds:         thresholds,
		banCounterexamples: banCounterexamples,
		logger:             logger.With("Induction"),
	}
}

// Round holds the intermediate and final products of one induction round.
type Round struct {
	Step               int
	PositiveTerms      int
	NegativeTerms      int
	PositiveCandidates []jsm.Term
	NegativeCandidates []jsm.Term
	Causes             jsm.CauseSet
}

// Induce computes the causes of both labels for the given step. The two
// closures are independent and run concurrently; falsification waits for
// both.
func (in *Inducer) Induce(ctx context.Context, positive, negative []jsm.Example, step int) (*Round, error) {
	var posTerms, negTerms []jsm.Term

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		posTerms = in.strategy.Compute(positive)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		negTerms = in.strategy.Compute(negative)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	round := &Round{
		Step:               step,
		PositiveTerms:      len(posTerms),
		NegativeTerms:      len(negTerms),
		PositiveCandidates: Filter(posTerms, in.thresholds),
		NegativeCandidates: Filter(negTerms, in.thresholds),
	}

	round.Causes = jsm.CauseSet{
		Positive: stamp(Falsify(round.PositiveCandidates, round.NegativeCandidates, negative, in.banCounterexamples), step),
		Negative: stamp(Falsify(round.NegativeCandidates, round.PositiveCandidates, positive, in.banCounterexamples), step),
	}

	in.logger.Debug("step %d: terms +%d/-%d, candidates +%d/-%d, causes +%d/-%d",
		step, round.PositiveTerms, round.NegativeTerms,
		len(round.PositiveCandidates), len(round.NegativeCandidates),
		len(round.Causes.Positive), len(round.Causes.Negative))

	return round, nil
}

func stamp(terms []jsm.Term, step int) []jsm.Cause {
	out := make([]jsm.Cause, len(terms))
	for i, t := range terms {
		out[i] = jsm.Cause{Term: t, Step: step}
	}
	return out
}
