package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/voltmesh/bessopt/core/model"
)

// constCandidate always predicts a fixed value; its holdout error is fully
// determined by how far that value sits from the holdout targets.
type constCandidate struct {
	name       string
	complexity int
	value      float64
	failTrain  bool
}

func (c constCandidate) Name() string    { return c.name }
func (c constCandidate) Complexity() int { return c.complexity }

func (c constCandidate) Train([][]float64, []float64) (Model, error) {
	if c.failTrain {
		return nil, &model.TrainingError{Candidate: c.name, Reason: "forced failure"}
	}
	return constModel(c.value), nil
}

type constModel float64

func (m constModel) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = float64(m)
	}
	return out
}

// rampData is an increasing series; its holdout (the tail) has the largest
// values, separating constant predictors cleanly.
func rampData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = []float64{float64(i)}
		y[i] = float64(i)
	}
	return X, y
}

func TestSelectPicksLowestHoldoutError(t *testing.T) {
	X, y := rampData(100)
	pool := []Candidate{
		constCandidate{name: "near", complexity: 2, value: 92},
		constCandidate{name: "far", complexity: 0, value: 0},
	}
	sel, err := Selector{}.Select(context.Background(), pool, X, y)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Summary.Winner != "near" {
		t.Fatalf("winner %s, want near", sel.Summary.Winner)
	}
	if sel.HoldoutResidualStd <= 0 {
		t.Fatalf("expected a positive holdout residual spread")
	}
	if len(sel.Summary.FoldScores) == 0 {
		t.Fatalf("expected per-fold scores in the summary")
	}
}

func TestSelectTieBreaksTowardSimpler(t *testing.T) {
	X, y := rampData(100)
	pool := []Candidate{
		constCandidate{name: "complex", complexity: 2, value: 92},
		constCandidate{name: "simple", complexity: 0, value: 92},
	}
	sel, err := Selector{}.Select(context.Background(), pool, X, y)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Summary.Winner != "simple" {
		t.Fatalf("tie should prefer the simpler candidate, got %s", sel.Summary.Winner)
	}
}

func TestSelectAbsorbsSingleFailure(t *testing.T) {
	X, y := rampData(100)
	pool := []Candidate{
		constCandidate{name: "broken", complexity: 1, failTrain: true},
		constCandidate{name: "ok", complexity: 0, value: 92},
	}
	sel, err := Selector{}.Select(context.Background(), pool, X, y)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Summary.Winner != "ok" {
		t.Fatalf("winner %s, want ok", sel.Summary.Winner)
	}
	var failed *model.CandidateScore
	for i := range sel.Summary.Candidates {
		if sel.Summary.Candidates[i].Candidate == "broken" {
			failed = &sel.Summary.Candidates[i]
		}
	}
	if failed == nil || !failed.Failed || failed.Reason == "" {
		t.Fatalf("broken candidate should be reported as failed with a reason")
	}
}

func TestSelectAllFailures(t *testing.T) {
	X, y := rampData(100)
	pool := []Candidate{
		constCandidate{name: "a", failTrain: true},
		constCandidate{name: "b", failTrain: true},
	}
	_, err := Selector{}.Select(context.Background(), pool, X, y)
	var nve *model.NoViableCandidateError
	if !errors.As(err, &nve) {
		t.Fatalf("expected NoViableCandidateError, got %v", err)
	}
	if len(nve.Failures) != 2 {
		t.Fatalf("failures %d, want 2", len(nve.Failures))
	}
}

func TestSelectContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, y := rampData(100)
	pool := []Candidate{constCandidate{name: "ok", value: 50}}
	if _, err := (Selector{}).Select(ctx, pool, X, y); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFoldBoundsChronological(t *testing.T) {
	bounds := foldBounds(120, 5, 2)
	if len(bounds) == 0 {
		t.Fatalf("no folds produced")
	}
	prevEnd := 0
	for i, b := range bounds {
		trainEnd, valStart, valEnd := b[0], b[1], b[2]
		if trainEnd != valStart {
			t.Fatalf("fold %d: training window must end where validation starts", i)
		}
		if valEnd <= valStart {
			t.Fatalf("fold %d: empty validation slice", i)
		}
		if trainEnd <= prevEnd-1 {
			t.Fatalf("fold %d: windows must expand", i)
		}
		prevEnd = valEnd
	}
	if bounds[len(bounds)-1][2] != 120 {
		t.Fatalf("last fold must end at the holdout boundary")
	}
}

func TestFoldBoundsRespectTrainingFloor(t *testing.T) {
	cases := []struct {
		name      string
		m         int
		wantFolds int
	}{
		{name: "week of hourly rows", m: 143, wantFolds: 1},
		{name: "ten days", m: 204, wantFolds: 3},
		{name: "clamped single fold", m: 85, wantFolds: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bounds := foldBounds(tc.m, 5, 48)
			if len(bounds) != tc.wantFolds {
				t.Fatalf("folds %d, want %d", len(bounds), tc.wantFolds)
			}
			for i, b := range bounds {
				if b[0] < 48 {
					t.Fatalf("fold %d trains on %d rows, below the floor", i, b[0])
				}
				if b[2] <= b[1] {
					t.Fatalf("fold %d: empty validation slice", i)
				}
			}
			if bounds[len(bounds)-1][2] != tc.m {
				t.Fatalf("last fold must end at the holdout boundary")
			}
		})
	}
	if got := foldBounds(40, 5, 48); len(got) != 0 {
		t.Fatalf("no fold can satisfy the floor on %d rows, got %v", 40, got)
	}
}

func TestSelectShortHistoryRealPool(t *testing.T) {
	// A week of history is the documented minimum; selection must still pick
	// a winner rather than losing every candidate to undersized folds.
	history := syntheticHistory(7)
	asm, err := Assemble(Input{History: history, TargetDate: targetAfter(history), Prices: flatSchedule()})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	sel, err := Selector{}.Select(context.Background(), DefaultPool(Options{Seed: 42}), asm.TrainX, asm.TrainY)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Model == nil || sel.Summary.Winner == "" {
		t.Fatalf("selection incomplete: %+v", sel.Summary)
	}
	for _, cs := range sel.Summary.Candidates {
		if cs.Failed {
			t.Fatalf("candidate %s failed on minimum history: %s", cs.Candidate, cs.Reason)
		}
	}
}

func TestSelectorWithRealPool(t *testing.T) {
	history := syntheticHistory(30)
	asm, err := Assemble(Input{History: history, TargetDate: targetAfter(history), Prices: flatSchedule()})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	sel, err := Selector{}.Select(context.Background(), DefaultPool(Options{Seed: 42}), asm.TrainX, asm.TrainY)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Model == nil || sel.Summary.Winner == "" {
		t.Fatalf("selection incomplete: %+v", sel.Summary)
	}
	points := Produce(sel.Model, asm.HorizonX, sel.HoldoutResidualStd)
	if len(points) != model.HorizonHours {
		t.Fatalf("forecast points %d", len(points))
	}
	for _, p := range points {
		if p.LoadKW < 0 {
			t.Fatalf("hour %d forecast negative", p.Hour)
		}
	}
}
