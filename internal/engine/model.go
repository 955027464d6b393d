// Package engine drives the JSM method: induction of causes, classification
// of undecided examples by analogy until a fixed point, and the final
// abduction check for causal completeness.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
	"gojsm/internal"
	"gojsm/internal/abduction"
	"gojsm/internal/analogy"
	"gojsm/internal/closure"
	"gojsm/internal/induction"
)

// Model holds the example partitions, the current causes and the step
// counter. A Model is not safe for concurrent use.
type Model struct {
	opts     Options
	strategy closure.Strategy
	inducer  *induction.Inducer
	logger   *internal.Logger
	metrics  *Metrics

	schema       jsm.Schema
	store        *Store
	fitted       bool
	step         int
	causes       jsm.CauseSet
	completeness jsm.Completeness
}

// NewModel validates opts and creates an unfitted model.
func NewModel(opts Options, setters ...ModelOption) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	strategy, err := closure.GetStrategy(opts.Method)
	if err != nil {
		return nil, err
	}
	opts.Method = strategy.Name()

	m := &Model{
		opts:     opts,
		strategy: strategy,
		logger:   internal.DefaultLogger,
	}
	for _, set := range setters {
		set(m)
	}
	m.logger = m.logger.With("Engine")
	m.inducer = induction.NewInducer(strategy, opts.Thresholds, opts.BanCounterexamples, m.logger)
	return m, nil
}

// Options returns the effective configuration.
func (m *Model) Options() Options { return m.opts }

// Fit loads the examples and their labels. Observations missing from labels
// are undecided. Every example starts at step 0. Fit replaces any previously
// fitted data; the step counter keeps counting across fits.
func (m *Model) Fit(attributes []string, observations []jsm.Observation, labels map[jsm.ExampleID]jsm.Label) error {
	schema, err := jsm.NewSchema(attributes)
	if err != nil {
		return err
	}

	examples := make([]jsm.Example, 0, len(observations))
	seen := make(map[jsm.ExampleID]bool, len(observations))
	for _, obs := range observations {
		if len(obs.Values) != schema.Len() {
			return fmt.Errorf("example %d: %w", obs.ID, core.NewSchemaMismatchError(schema.Len(), len(obs.Values)))
		}
		if seen[obs.ID] {
			return core.NewDuplicateExampleError(int64(obs.ID))
		}
		seen[obs.ID] = true
		examples = append(examples, jsm.Example{ID: obs.ID, Vector: jsm.VectorOf(obs.Values)})
	}

	labelIDs := make([]jsm.ExampleID, 0, len(labels))
	for id := range labels {
		labelIDs = append(labelIDs, id)
	}
	sort.Slice(labelIDs, func(i, j int) bool { return labelIDs[i] < labelIDs[j] })
	for _, id := range labelIDs {
		if !seen[id] {
			return fmt.Errorf("%w: %d", core.ErrUnknownExample, id)
		}
		if !labels[id].Valid() {
			return fmt.Errorf("%w: example %d has label %d", core.ErrUnknownLabel, id, int8(labels[id]))
		}
	}

	for i := range examples {
		examples[i].Label = labels[examples[i].ID]
	}
	sort.SliceStable(examples, func(i, j int) bool { return examples[i].ID < examples[j].ID })

	m.schema = schema
	m.store = newStore(examples)
	m.fitted = true
	m.causes = jsm.CauseSet{}
	m.completeness = jsm.Completeness{}

	counts := m.store.Counts()
	m.logger.Info("fitted %d examples over %d attributes (+%d / -%d / contradictory %d / undecided %d)",
		m.store.Len(), schema.Len(), counts[jsm.Positive], counts[jsm.Negative], counts[jsm.Contradictory], counts[jsm.Undecided])
	return nil
}

// PredictOptions bound and observe a prediction.
type PredictOptions struct {
	// Steps is the maximum number of rounds; zero or negative runs until
	// classification reaches a fixed point.
	Steps int
	// Trace, when set, receives the partitions after every round.
	Trace TraceFunc
}

// TraceFunc observes the partitions after each round.
type TraceFunc func(TraceEvent)

// TraceEvent is a snapshot of the partitions after one round.
type TraceEvent struct {
	Step          int             `json:"step"`
	Migrations    int             `json:"migrations"`
	Positive      []jsm.ExampleID `json:"positive"`
	Negative      []jsm.ExampleID `json:"negative"`
	Undecided     []jsm.ExampleID `json:"undecided"`
	Contradictory []jsm.ExampleID `json:"contradictory"`
}

// PredictReport summarizes a Predict call.
type PredictReport struct {
	Rounds       int              `json:"rounds"`
	FinalStep    int              `json:"final_step"`
	Migrations   int              `json:"migrations"`
	FixedPoint   bool             `json:"fixed_point"`
	Completeness jsm.Completeness `json:"-"`
	Duration     time.Duration    `json:"duration"`
}

// Predict alternates induction and analogy until no undecided example moves
// or the step budget is spent, then runs the completeness check once.
func (m *Model) Predict(ctx context.Context, opts PredictOptions) (*PredictReport, error) {
	if !m.fitted {
		return nil, core.ErrNotFitted
	}
	start := time.Now()
	report := &PredictReport{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.step++
		round, err := m.inducer.Induce(ctx, m.store.Partition(jsm.Positive), m.store.Partition(jsm.Negative), m.step)
		if err != nil {
			return nil, err
		}
		m.causes = round.Causes

		transitions := analogy.Classify(m.store.Partition(jsm.Undecided), m.causes, m.step)
		for _, tr := range transitions {
			if err := m.store.Move(tr.ID, tr.Label, tr.Step); err != nil {
				return nil, fmt.Errorf("analogy at step %d: %w", m.step, err)
			}
			m.metrics.observeMigration(tr.Label)
		}

		report.Rounds++
		report.Migrations += len(transitions)
		m.metrics.observeRound(m.causes)
		m.emitTrace(opts.Trace, len(transitions))

		if len(transitions) == 0 {
			report.FixedPoint = true
			break
		}
		if opts.Steps > 0 && report.Rounds >= opts.Steps {
			break
		}
	}

	m.completeness = abduction.Check(m.causes, m.store.IDs(jsm.Positive), m.store.IDs(jsm.Negative))
	report.FinalStep = m.step
	report.Completeness = m.completeness
	report.Duration = time.Since(start)
	m.metrics.observeCompleteness(m.completeness, report.Duration)

	m.logger.Info("prediction finished at step %d after %d rounds (%d migrations, fixed point %v, complete %v)",
		m.step, report.Rounds, report.Migrations, report.FixedPoint, m.completeness.Complete)
	return report, nil
}

func (m *Model) emitTrace(trace TraceFunc, migrations int) {
	event := TraceEvent{
		Step:          m.step,
		Migrations:    migrations,
		Positive:      m.store.IDs(jsm.Positive).Slice(),
		Negative:      m.store.IDs(jsm.Negative).Slice(),
		Undecided:     m.store.IDs(jsm.Undecided).Slice(),
		Contradictory: m.store.IDs(jsm.Contradictory).Slice(),
	}
	m.logger.Debug("step %d: positive %v, negative %v, undecided %v, contradictory %v",
		event.Step, event.Positive, event.Negative, event.Undecided, event.Contradictory)
	if trace != nil {
		trace(event)
	}
}

// Causes returns the positive and negative causes of the last induction round.
func (m *Model) Causes() jsm.CauseSet { return m.causes }

// Completeness returns the verdict of the last completeness check.
func (m *Model) Completeness() jsm.Completeness { return m.completeness }

// Step returns the number of induction rounds run since the model was created.
func (m *Model) Step() int { return m.step }

// Schema returns the attribute schema of the fitted data.
func (m *Model) Schema() jsm.Schema { return m.schema }

// Result returns every example with its current label and step: positive,
// negative, contradictory and undecided partitions in that order, each in id
// order.
func (m *Model) Result() []jsm.ResultRow {
	if !m.fitted {
		return nil
	}
	rows := make([]jsm.ResultRow, 0, m.store.Len())
	for _, l := range jsm.Labels {
		for _, ex := range m.store.Partition(l) {
			rows = append(rows, jsm.ResultRow{
				ID:     ex.ID,
				Values: ex.Vector.Bools(),
				Step:   ex.Step,
				Label:  ex.Label,
			})
		}
	}
	return rows
}
