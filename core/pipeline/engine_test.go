package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/voltmesh/bessopt/core/metrics"
	"github.com/voltmesh/bessopt/core/model"
	"github.com/voltmesh/bessopt/infra/mqtt"
	"github.com/voltmesh/bessopt/internal/eventbus"
)

func testHistory(days int) StaticHistory {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var out StaticHistory
	for d := 0; d < days; d++ {
		for h := 0; h < model.HorizonHours; h++ {
			ts := start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
			load := 30 + 12*math.Sin(2*math.Pi*float64(h)/24) + 0.7*float64(d%4)
			out = append(out, model.TimeSeriesSample{
				Timestamp:    ts,
				LoadKW:       load,
				TemperatureC: 15,
				PriceTier:    model.TierNormal,
			})
		}
	}
	return out
}

func testSchedule() model.PriceSchedule {
	s := make(model.PriceSchedule, model.HorizonHours)
	for h := range s {
		s[h] = model.PricePoint{Hour: h, Tier: model.TierNormal, Rate: 0.5}
	}
	s[3] = model.PricePoint{Hour: 3, Tier: model.TierValley, Rate: 0.1}
	s[18] = model.PricePoint{Hour: 18, Tier: model.TierPeak, Rate: 2.0}
	return s
}

type captureSink struct {
	solves   []metrics.SolveRecord
	failures []metrics.TrainingFailureRecord
}

func (c *captureSink) RecordSolve(r metrics.SolveRecord) error { c.solves = append(c.solves, r); return nil }
func (c *captureSink) RecordTrainingFailure(r metrics.TrainingFailureRecord) error {
	c.failures = append(c.failures, r)
	return nil
}

type memStore struct{ results []*model.OptimizationResult }

func (m *memStore) Append(r *model.OptimizationResult) error { m.results = append(m.results, r); return nil }
func (m *memStore) Close() error                             { return nil }

func TestEngineRunEndToEnd(t *testing.T) {
	sink := &captureSink{}
	store := &memStore{}
	pub := &mqtt.MockPublisher{}
	bus := eventbus.New()
	events := bus.Subscribe(32)

	engine := &Engine{
		History:   testHistory(30),
		Prices:    testSchedule(),
		Battery:   model.BatteryConfig{CapacityKWh: 9.5, MaxPowerKW: 10, Efficiency: 0.95},
		Sink:      sink,
		Bus:       bus,
		Store:     store,
		Publisher: pub,
	}

	result, err := engine.Run(context.Background(), Request{
		TargetDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ID == "" {
		t.Fatalf("result has no run ID")
	}
	if len(result.Schedule) != model.HorizonHours {
		t.Fatalf("schedule rows %d", len(result.Schedule))
	}
	if result.Status == model.StatusInfeasible {
		t.Fatalf("unexpected infeasibility")
	}
	if result.Summary.Savings < 0 {
		t.Fatalf("savings %f should be non-negative", result.Summary.Savings)
	}
	if result.Model.ModelType == "" {
		t.Fatalf("model info missing")
	}
	if result.CreatedAt.IsZero() {
		t.Fatalf("created_at missing")
	}

	if len(sink.solves) != 1 || sink.solves[0].ID != result.ID {
		t.Fatalf("solve record not emitted: %+v", sink.solves)
	}
	if len(store.results) != 1 {
		t.Fatalf("result not persisted")
	}
	if published := pub.Published(); len(published) != 1 || published[0].ID != result.ID {
		t.Fatalf("result not published")
	}

	bus.Close()
	stages := map[eventbus.Stage]bool{}
	for ev := range events {
		stages[ev.Stage] = true
	}
	for _, want := range []eventbus.Stage{eventbus.StageAssemble, eventbus.StageSelect, eventbus.StageForecast, eventbus.StageSolve, eventbus.StagePublish} {
		if !stages[want] {
			t.Fatalf("stage %s never reported", want)
		}
	}
}

func TestEngineRunAtMinimumHistory(t *testing.T) {
	// Exactly the documented minimum of history must still produce a
	// schedule; only shorter histories fail, and then with the typed error.
	engine := &Engine{
		History:        testHistory(7),
		Prices:         testSchedule(),
		Battery:        model.BatteryConfig{CapacityKWh: 9.5, MaxPowerKW: 10, Efficiency: 0.95},
		MinHistoryDays: 7,
	}
	result, err := engine.Run(context.Background(), Request{
		TargetDate: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("run at minimum history: %v", err)
	}
	if len(result.Schedule) != model.HorizonHours {
		t.Fatalf("schedule rows %d", len(result.Schedule))
	}
	if result.Model.ModelType == "" {
		t.Fatalf("model info missing")
	}
}

func TestEngineBatteryPartialOverride(t *testing.T) {
	engine := &Engine{
		History: testHistory(10),
		Prices:  testSchedule(),
		Battery: model.BatteryConfig{CapacityKWh: 9.5, MaxPowerKW: 10, Efficiency: 0.95, InitialSoC: 0.5},
	}
	result, err := engine.Run(context.Background(), Request{
		TargetDate: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		Battery:    &model.BatteryConfig{CapacityKWh: 80},
	})
	if err != nil {
		t.Fatalf("capacity-only override must keep the configured efficiency: %v", err)
	}
	if got := result.InitialSoCKWh; math.Abs(got-40) > 1e-9 {
		t.Fatalf("initial soc %.3f kWh, want 40 (0.5 of the overridden 80 kWh)", got)
	}
	for _, d := range result.Schedule {
		if d.SoCKWh > 80+1e-9 {
			t.Fatalf("hour %d soc %.3f exceeds the overridden capacity", d.Hour, d.SoCKWh)
		}
	}
}

func TestEngineRejectsBadSoCOverride(t *testing.T) {
	engine := &Engine{
		History: testHistory(10),
		Prices:  testSchedule(),
		Battery: model.BatteryConfig{CapacityKWh: 9.5, MaxPowerKW: 10, Efficiency: 0.95},
	}
	soc := 2.0
	_, err := engine.Run(context.Background(), Request{InitialSoC: &soc})
	if model.ErrorKind(err) != model.KindInvalidConfig {
		t.Fatalf("kind %s, want invalid_config", model.ErrorKind(err))
	}
}

func TestEngineInsufficientHistoryDoesNotPublish(t *testing.T) {
	pub := &mqtt.MockPublisher{}
	engine := &Engine{
		History:   testHistory(2),
		Prices:    testSchedule(),
		Battery:   model.BatteryConfig{CapacityKWh: 9.5, MaxPowerKW: 10, Efficiency: 0.95},
		Publisher: pub,
	}
	_, err := engine.Run(context.Background(), Request{})
	if model.ErrorKind(err) != model.KindInsufficientHistory {
		t.Fatalf("kind %s, want insufficient_history", model.ErrorKind(err))
	}
	if len(pub.Published()) != 0 {
		t.Fatalf("failed runs must not publish")
	}
}

func TestEngineContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &Engine{
		History: testHistory(10),
		Prices:  testSchedule(),
		Battery: model.BatteryConfig{CapacityKWh: 9.5, MaxPowerKW: 10, Efficiency: 0.95},
	}
	if _, err := engine.Run(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
