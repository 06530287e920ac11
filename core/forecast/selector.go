package forecast

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/voltmesh/bessopt/core/logger"
	"github.com/voltmesh/bessopt/core/model"
)

// Selector defaults.
const (
	DefaultFolds           = 5
	DefaultHoldoutFraction = 0.15
	DefaultTieTolerance    = 0.01
)

// Selector runs time-series cross-validation plus a chronological holdout
// over the candidate pool and picks a winner by holdout MAE. Candidates
// within TieTolerance of the best prefer the simpler variant.
type Selector struct {
	Folds           int
	HoldoutFraction float64
	TieTolerance    float64
	// MinTrainSamples is the smallest training window any fold may use. It
	// must match the pool's training floor or short histories lose every
	// candidate to undersized early folds. Zero means DefaultMinTrainSamples.
	MinTrainSamples int
	// Workers bounds the (candidate, fold) fan-out; zero means NumCPU.
	Workers int
	Log     logger.Logger
}

// Selection is the outcome of a selection run. Model is the winner retrained
// on the full dataset; HoldoutResidualStd feeds the prediction interval.
type Selection struct {
	Winner             Candidate
	Model              Model
	Summary            model.ValidationSummary
	HoldoutResidualStd float64
}

type cvUnit struct {
	candidate int
	fold      int
}

type cvScore struct {
	mae, rmse float64
	err       error
}

// Select trains and validates every candidate. Per-candidate training
// failures are absorbed and logged; the error is NoViableCandidateError only
// when the whole pool fails. Fold training windows strictly precede their
// validation slices, so no fold ever trains on future data.
func (s Selector) Select(ctx context.Context, pool []Candidate, X [][]float64, y []float64) (*Selection, error) {
	if len(pool) == 0 {
		return nil, &model.NoViableCandidateError{Failures: map[string]string{}}
	}
	folds := s.Folds
	if folds <= 0 {
		folds = DefaultFolds
	}
	frac := s.HoldoutFraction
	if frac <= 0 || frac >= 1 {
		frac = DefaultHoldoutFraction
	}
	tieTol := s.TieTolerance
	if tieTol <= 0 {
		tieTol = DefaultTieTolerance
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	minTrain := s.MinTrainSamples
	if minTrain <= 0 {
		minTrain = DefaultMinTrainSamples
	}

	n := len(y)
	holdoutStart := n - int(frac*float64(n))
	if holdoutStart < 1 || holdoutStart >= n {
		return nil, &model.InsufficientHistoryError{Days: n / model.HorizonHours, Required: DefaultMinHistoryDays}
	}
	bounds := foldBounds(holdoutStart, folds, minTrain)
	folds = len(bounds)

	// One slot per (candidate, fold) plus one holdout slot per candidate; no
	// shared mutable state inside the fan-out.
	scores := make([][]cvScore, len(pool))
	holdout := make([]cvScore, len(pool))
	residuals := make([][]float64, len(pool))
	for i := range scores {
		scores[i] = make([]cvScore, folds)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ci := range pool {
		for fi := range bounds {
			unit := cvUnit{candidate: ci, fold: fi}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b := bounds[unit.fold]
				scores[unit.candidate][unit.fold] = evaluate(pool[unit.candidate], X, y, b[0], b[1], b[2], nil)
				return nil
			})
		}
		ci := ci
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			holdout[ci] = evaluate(pool[ci], X, y, holdoutStart, holdoutStart, n, &residuals[ci])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := model.ValidationSummary{
		Method: "expanding-window-cv/holdout",
		Folds:  folds,
	}
	failures := map[string]string{}
	var scored []model.CandidateScore
	for ci, cand := range pool {
		cs := model.CandidateScore{Candidate: cand.Name(), Complexity: cand.Complexity()}
		if t, ok := cand.(interface{ Tuned() bool }); ok {
			cs.Tuned = t.Tuned()
		}
		var failure error
		var maes, rmses []float64
		for fi, sc := range scores[ci] {
			if sc.err != nil {
				failure = sc.err
				continue
			}
			maes = append(maes, sc.mae)
			rmses = append(rmses, sc.rmse)
			summary.FoldScores = append(summary.FoldScores, model.FoldScore{
				Candidate: cand.Name(), Fold: fi, MAE: sc.mae, RMSE: sc.rmse,
			})
		}
		if holdout[ci].err != nil {
			failure = holdout[ci].err
		}
		if failure != nil {
			cs.Failed = true
			cs.Reason = failure.Error()
			failures[cand.Name()] = failure.Error()
			if s.Log != nil {
				s.Log.Warnf("candidate %s excluded: %v", cand.Name(), failure)
			}
		} else {
			cs.MeanMAE = mean(maes)
			cs.MeanRMSE = mean(rmses)
			cs.HoldoutMAE = holdout[ci].mae
		}
		summary.Candidates = append(summary.Candidates, cs)
		if !cs.Failed {
			scored = append(scored, cs)
		}
	}
	if len(scored) == 0 {
		return nil, &model.NoViableCandidateError{Failures: failures}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].HoldoutMAE < scored[j].HoldoutMAE })
	winner := scored[0]
	for _, cs := range scored[1:] {
		if winner.HoldoutMAE <= 0 {
			break
		}
		rel := (cs.HoldoutMAE - winner.HoldoutMAE) / winner.HoldoutMAE
		if rel <= tieTol && cs.Complexity < winner.Complexity {
			winner = cs
		}
	}
	summary.Winner = winner.Candidate
	summary.BaselineImprovement = baselineImprovement(scored, winner)

	var winnerCand Candidate
	var winnerResiduals []float64
	for ci, cand := range pool {
		if cand.Name() == winner.Candidate {
			winnerCand = cand
			winnerResiduals = residuals[ci]
		}
	}

	trained, err := winnerCand.Train(X, y)
	if err != nil {
		return nil, fmt.Errorf("retrain winner %s: %w", winner.Candidate, err)
	}

	sel := &Selection{Winner: winnerCand, Model: trained, Summary: summary}
	if len(winnerResiduals) > 1 {
		sel.HoldoutResidualStd = stat.StdDev(winnerResiduals, nil)
	}
	return sel, nil
}

// evaluate trains cand on rows [0:trainEnd) and scores it on [valStart:valEnd).
// When residualsOut is non-nil the raw validation residuals are kept.
func evaluate(cand Candidate, X [][]float64, y []float64, trainEnd, valStart, valEnd int, residualsOut *[]float64) cvScore {
	m, err := cand.Train(X[:trainEnd], y[:trainEnd])
	if err != nil {
		return cvScore{err: err}
	}
	pred := m.Predict(X[valStart:valEnd])
	actual := y[valStart:valEnd]
	if residualsOut != nil {
		res := make([]float64, len(pred))
		for i := range pred {
			res[i] = actual[i] - pred[i]
		}
		*residualsOut = res
	}
	return cvScore{mae: meanAbsoluteError(pred, actual), rmse: rootMeanSquaredError(pred, actual)}
}

// foldBounds partitions [0, m) into expanding-window folds. Entry k holds
// {trainEnd, valStart, valEnd} with trainEnd == valStart, so every training
// window chronologically precedes its validation slice. Every training window
// holds at least minTrain rows: the fold count shrinks until the first window
// reaches the floor, and when even a 50/50 split falls short the single
// remaining fold is clamped to start at minTrain. Short histories validate on
// fewer folds instead of handing the candidates windows they refuse to train
// on.
func foldBounds(m, folds, minTrain int) [][3]int {
	if minTrain < 2 {
		minTrain = 2
	}
	base := m / (folds + 1)
	for base < minTrain && folds > 1 {
		folds--
		base = m / (folds + 1)
	}
	if base < minTrain {
		if minTrain >= m {
			return nil
		}
		return [][3]int{{minTrain, minTrain, m}}
	}
	out := make([][3]int, 0, folds)
	for k := 1; k <= folds; k++ {
		trainEnd := base * k
		valEnd := base * (k + 1)
		if k == folds {
			valEnd = m
		}
		if valEnd <= trainEnd {
			continue
		}
		out = append(out, [3]int{trainEnd, trainEnd, valEnd})
	}
	return out
}

func baselineImprovement(scored []model.CandidateScore, winner model.CandidateScore) float64 {
	baseline := -1.0
	for _, cs := range scored {
		if cs.Candidate == CandidateLinear {
			baseline = cs.HoldoutMAE
		}
	}
	if baseline < 0 {
		for _, cs := range scored {
			if cs.HoldoutMAE > baseline {
				baseline = cs.HoldoutMAE
			}
		}
	}
	if baseline <= 0 {
		return 0
	}
	return (baseline - winner.HoldoutMAE) / baseline
}

func meanAbsoluteError(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var s float64
	for i := range pred {
		s += math.Abs(pred[i] - actual[i])
	}
	return s / float64(len(pred))
}

func rootMeanSquaredError(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var s float64
	for i := range pred {
		d := pred[i] - actual[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(pred)))
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
