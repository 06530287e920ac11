package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/voltmesh/bessopt/core/metrics"
	"github.com/voltmesh/bessopt/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	err = sink.RecordSolve(coremetrics.SolveRecord{
		ID:      "r1",
		Status:  model.StatusOptimal,
		Winner:  "boosted_tree",
		Savings: 17.05,
		Runtime: 120 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("record solve: %v", err)
	}
	if err := sink.RecordTrainingFailure(coremetrics.TrainingFailureRecord{Candidate: "linear", Reason: "singular"}); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"dispatch_optimizations_total",
		"dispatch_solve_duration_seconds",
		"dispatch_savings",
		"forecast_training_failures_total",
	} {
		if !names[want] {
			t.Fatalf("metric %s not registered", want)
		}
	}
}

func TestPromSinkReregistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	// A second sink on the same registry must reuse the existing collectors.
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if err := sink.RecordSolve(coremetrics.SolveRecord{Status: model.StatusOptimal, Winner: "linear"}); err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	multi := NewMultiSink(prom, coremetrics.NopSink{})
	if err := multi.RecordSolve(coremetrics.SolveRecord{Status: model.StatusOptimal, Winner: "linear"}); err != nil {
		t.Fatalf("multi record: %v", err)
	}
	if err := multi.RecordTrainingFailure(coremetrics.TrainingFailureRecord{Candidate: "linear"}); err != nil {
		t.Fatalf("multi failure: %v", err)
	}
}
