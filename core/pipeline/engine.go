package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/voltmesh/bessopt/core/forecast"
	"github.com/voltmesh/bessopt/core/logger"
	"github.com/voltmesh/bessopt/core/metrics"
	"github.com/voltmesh/bessopt/core/model"
	"github.com/voltmesh/bessopt/core/optimizer"
	"github.com/voltmesh/bessopt/core/publish"
	"github.com/voltmesh/bessopt/core/resultstore"
	"github.com/voltmesh/bessopt/internal/eventbus"
)

// Engine runs the full forecast-then-optimize pipeline. Zero-value optional
// fields fall back to no-op implementations, so a bare Engine with History,
// Prices and Battery set is usable in tests.
type Engine struct {
	History        HistoryProvider
	Prices         model.PriceSchedule
	Battery        model.BatteryConfig
	Pool           []forecast.Candidate
	Selector       forecast.Selector
	SolverOpts     optimizer.Options
	MinHistoryDays int

	Log       logger.Logger
	Sink      metrics.MetricsSink
	Bus       *eventbus.Bus
	Store     resultstore.Store
	Publisher publish.Publisher
}

// Request carries the per-run overrides. Nil or zero fields fall back to the
// engine defaults.
type Request struct {
	// TargetDate is the day being scheduled; zero means tomorrow.
	TargetDate time.Time
	// InitialSoC overrides the configured state of charge fraction.
	InitialSoC *float64
	// Battery overrides individual fields of the configured asset; zero
	// fields keep the configured values.
	Battery *model.BatteryConfig
	// TempForecast supplies 24 hourly temperatures for the target day.
	TempForecast []float64
	// TempAdjust shifts the historical temperature profile uniformly when no
	// explicit forecast is given.
	TempAdjust float64
}

// Run executes one optimization end to end and returns the finished result.
// The context is honored between stages and inside the solver.
func (e *Engine) Run(ctx context.Context, req Request) (*model.OptimizationResult, error) {
	log := e.Log
	if log == nil {
		log = nopLogger{}
	}
	sink := e.Sink
	if sink == nil {
		sink = metrics.NopSink{}
	}
	store := e.Store
	if store == nil {
		store = resultstore.NopStore{}
	}
	pub := e.Publisher
	if pub == nil {
		pub = publish.NopPublisher{}
	}
	pool := e.Pool
	if len(pool) == 0 {
		pool = forecast.DefaultPool(forecast.Options{})
	}

	runID := uuid.NewString()
	battery := e.Battery
	if req.Battery != nil {
		if req.Battery.CapacityKWh != 0 {
			battery.CapacityKWh = req.Battery.CapacityKWh
		}
		if req.Battery.MaxPowerKW != 0 {
			battery.MaxPowerKW = req.Battery.MaxPowerKW
		}
		if req.Battery.Efficiency != 0 {
			battery.Efficiency = req.Battery.Efficiency
		}
		if req.Battery.InitialSoC != 0 {
			battery.InitialSoC = req.Battery.InitialSoC
		}
	}
	if req.InitialSoC != nil {
		battery.InitialSoC = *req.InitialSoC
	}
	if err := battery.Validate(); err != nil {
		return nil, err
	}
	target := req.TargetDate
	if target.IsZero() {
		target = time.Now().AddDate(0, 0, 1)
	}
	target = time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())

	samples, err := e.History.Samples(ctx)
	if err != nil {
		return nil, err
	}

	stageStart := time.Now()
	asm, err := forecast.Assemble(forecast.Input{
		History:        samples,
		TargetDate:     target,
		Prices:         e.Prices,
		TempForecast:   req.TempForecast,
		TempAdjust:     req.TempAdjust,
		MinHistoryDays: e.MinHistoryDays,
	})
	e.emit(runID, eventbus.StageAssemble, stageStart, err)
	if err != nil {
		return nil, err
	}
	log.Debugf("run %s: assembled %d training rows", runID, len(asm.TrainY))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	sel, err := e.Selector.Select(ctx, pool, asm.TrainX, asm.TrainY)
	e.emit(runID, eventbus.StageSelect, stageStart, err)
	if err != nil {
		return nil, err
	}
	for _, cs := range sel.Summary.Candidates {
		if cs.Failed {
			if rerr := sink.RecordTrainingFailure(metrics.TrainingFailureRecord{Candidate: cs.Candidate, Reason: cs.Reason}); rerr != nil {
				log.Warnf("run %s: record training failure: %v", runID, rerr)
			}
		}
	}
	log.Infof("run %s: selected %s (holdout improvement %.1f%%)", runID, sel.Summary.Winner, sel.Summary.BaselineImprovement*100)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	points := forecast.Produce(sel.Model, asm.HorizonX, sel.HoldoutResidualStd)
	e.emit(runID, eventbus.StageForecast, stageStart, nil)

	opts := e.SolverOpts
	opts.Start = target
	stageStart = time.Now()
	result, err := optimizer.Optimize(ctx, points, battery, e.Prices, opts)
	e.emit(runID, eventbus.StageSolve, stageStart, err)
	if err != nil {
		return nil, err
	}

	result.ID = runID
	result.CreatedAt = time.Now().UTC()
	result.Model = forecast.BuildModelInfo(sel, asm, result.CreatedAt)
	log.Infof("run %s: %s, savings %.2f (%.1f%%) in %s",
		runID, result.Status, result.Summary.Savings, result.Summary.SavingsPercent, result.Diagnostics.Runtime)

	if rerr := sink.RecordSolve(metrics.SolveRecord{
		ID:            result.ID,
		Status:        result.Status,
		Winner:        result.Model.ModelType,
		CostBaseline:  result.Summary.CostBaseline,
		CostOptimized: result.Summary.CostWithBattery,
		Savings:       result.Summary.Savings,
		Gap:           result.Diagnostics.Gap,
		Runtime:       result.Diagnostics.Runtime,
		Nodes:         result.Diagnostics.Nodes,
		At:            result.CreatedAt,
	}); rerr != nil {
		log.Warnf("run %s: record solve: %v", runID, rerr)
	}
	if serr := store.Append(result); serr != nil {
		log.Errorf("run %s: persist result: %v", runID, serr)
	}

	stageStart = time.Now()
	perr := pub.PublishResult(ctx, result)
	e.emit(runID, eventbus.StagePublish, stageStart, perr)
	if perr != nil {
		log.Errorf("run %s: publish result: %v", runID, perr)
	}
	return result, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

var _ logger.Logger = nopLogger{}

func (e *Engine) emit(runID string, stage eventbus.Stage, start time.Time, err error) {
	if e.Bus == nil {
		return
	}
	e.Bus.Publish(eventbus.StageEvent{
		RunID:    runID,
		Stage:    stage,
		Duration: time.Since(start),
		Err:      err,
	})
}
