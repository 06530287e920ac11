package metrics

import coremetrics "github.com/voltmesh/bessopt/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSolve(rec coremetrics.SolveRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordTrainingFailure forwards the record to all sinks.
func (m *MultiSink) RecordTrainingFailure(rec coremetrics.TrainingFailureRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordTrainingFailure(rec); err != nil {
			return err
		}
	}
	return nil
}
