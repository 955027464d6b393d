package engine

import (
	"gojsm/internal"
	"gojsm/internal/closure"
	"gojsm/internal/induction"
)

// Options is the engine configuration.
type Options struct {
	// Method selects the closure strategy (norris, khazanovskiy, chaining).
	Method string `json:"method" yaml:"method"`
	// Thresholds prune closure terms before falsification.
	Thresholds induction.Thresholds `json:"thresholds" yaml:"thresholds"`
	// BanCounterexamples rejects candidates contained in any opposing example.
	BanCounterexamples bool `json:"ban_counterexamples" yaml:"ban_counterexamples"`
}

// DefaultOptions mirrors the customary JSM setup: Norris closure, at least
// two supporting examples and three attributes per cause.
func DefaultOptions() Options {
	return Options{
		Method:     closure.MethodNorris,
		Thresholds: induction.Thresholds{Extensional: 2, Intensional: 3},
	}
}

// Validate checks the thresholds and resolves the method name.
func (o Options) Validate() error {
	if err := o.Thresholds.Validate(); err != nil {
		return err
	}
	_, err := closure.GetStrategy(o.Method)
	return err
}

// ModelOption customizes a Model.
type ModelOption func(*Model)

// WithLogger routes engine logs to logger.
func WithLogger(logger *internal.Logger) ModelOption {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records round and migration counters.
func WithMetrics(metrics *Metrics) ModelOption {
	return func(m *Model) { m.metrics = metrics }
}
