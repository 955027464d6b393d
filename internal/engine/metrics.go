package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gojsm/domain/jsm"
)

// Metrics exposes engine progress to Prometheus. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	rounds          prometheus.Counter
	migrations      *prometheus.CounterVec
	causes          *prometheus.GaugeVec
	lost            *prometheus.GaugeVec
	predictDuration prometheus.Histogram
}

// NewMetrics registers the engine collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "jsm_induction_rounds_total",
			Help: "Induction rounds executed",
		}),
		migrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jsm_label_migrations_total",
			Help: "Undecided examples classified by analogy, by resulting label",
		}, []string{"label"}),
		causes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jsm_causes",
			Help: "Causes produced by the latest induction round",
		}, []string{"label"}),
		lost: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jsm_lost_examples",
			Help: "Examples not covered by any cause of their label at the last completeness check",
		}, []string{"label"}),
		predictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jsm_predict_duration_seconds",
			Help:    "Wall time of a full prediction",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
		}),
	}
}

func (m *Metrics) observeRound(causes jsm.CauseSet) {
	if m == nil {
		return
	}
	m.rounds.Inc()
	m.causes.WithLabelValues(jsm.Positive.String()).Set(float64(len(causes.Positive)))
	m.causes.WithLabelValues(jsm.Negative.String()).Set(float64(len(causes.Negative)))
}

func (m *Metrics) observeMigration(to jsm.Label) {
	if m == nil {
		return
	}
	m.migrations.WithLabelValues(to.String()).Inc()
}

func (m *Metrics) observeCompleteness(c jsm.Completeness, d time.Duration) {
	if m == nil {
		return
	}
	m.lost.WithLabelValues(jsm.Positive.String()).Set(float64(c.LostPositive.Len()))
	m.lost.WithLabelValues(jsm.Negative.String()).Set(float64(c.LostNegative.Len()))
	m.predictDuration.Observe(d.Seconds())
}
