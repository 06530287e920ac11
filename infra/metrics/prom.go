package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/voltmesh/bessopt/core/metrics"
)

// PromSink records optimization runs in Prometheus metrics.
type PromSink struct {
	solves        *prometheus.CounterVec
	solveDuration prometheus.Histogram
	gap           prometheus.Gauge
	savings       prometheus.Gauge
	trainFailures *prometheus.CounterVec
}

// NewPromSink registers the engine metrics on the default Prometheus
// registerer. The metrics server should be started separately with
// StartPromServer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_optimizations_total",
		Help: "Total number of dispatch optimizations by solver status and winning model",
	}, []string{"status", "winner"})
	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_solve_duration_seconds",
		Help:    "Wall-clock duration of the MIP solve",
		Buckets: prometheus.DefBuckets,
	})
	gap := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_mip_gap",
		Help: "Achieved MIP gap of the most recent solve",
	})
	savings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_savings",
		Help: "Savings versus the baseline cost of the most recent solve",
	})
	trainFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_training_failures_total",
		Help: "Forecast candidates excluded from selection after a training failure",
	}, []string{"candidate"})

	collectors := []prometheus.Collector{solves, solveDuration, gap, savings, trainFailures}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				collectors[i] = are.ExistingCollector
				continue
			}
			return nil, err
		}
	}
	return &PromSink{
		solves:        collectors[0].(*prometheus.CounterVec),
		solveDuration: collectors[1].(prometheus.Histogram),
		gap:           collectors[2].(prometheus.Gauge),
		savings:       collectors[3].(prometheus.Gauge),
		trainFailures: collectors[4].(*prometheus.CounterVec),
	}, nil
}

// RecordSolve increments the run counter and updates the solve gauges.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	s.solves.WithLabelValues(string(rec.Status), rec.Winner).Inc()
	s.solveDuration.Observe(rec.Runtime.Seconds())
	s.gap.Set(rec.Gap)
	s.savings.Set(rec.Savings)
	return nil
}

// RecordTrainingFailure counts excluded candidates.
func (s *PromSink) RecordTrainingFailure(rec coremetrics.TrainingFailureRecord) error {
	s.trainFailures.WithLabelValues(rec.Candidate).Inc()
	return nil
}
