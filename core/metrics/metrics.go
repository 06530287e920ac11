package metrics

import (
	"time"

	"github.com/voltmesh/bessopt/core/model"
)

// Config selects and configures the metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9464"
	}
}

// SolveRecord captures the outcome of one optimization run for the sinks.
type SolveRecord struct {
	ID            string
	Status        model.SolveStatus
	Winner        string
	CostBaseline  float64
	CostOptimized float64
	Savings       float64
	Gap           float64
	Runtime       time.Duration
	Nodes         int
	At            time.Time
}

// TrainingFailureRecord is emitted when a forecast candidate is excluded.
type TrainingFailureRecord struct {
	Candidate string
	Reason    string
}

// MetricsSink receives engine events. Implementations must be safe for
// concurrent use.
type MetricsSink interface {
	RecordSolve(SolveRecord) error
	RecordTrainingFailure(TrainingFailureRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordSolve(SolveRecord) error                     { return nil }
func (NopSink) RecordTrainingFailure(TrainingFailureRecord) error { return nil }
