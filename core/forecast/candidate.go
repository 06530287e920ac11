package forecast

import (
	"fmt"

	"github.com/voltmesh/bessopt/core/model"
)

// Candidate names. The pool is a closed set selected at runtime by the
// validator; no open-ended registration.
const (
	CandidateLinear       = "linear"
	CandidateEnsembleTree = "ensemble_tree"
	CandidateBoostedTree  = "boosted_tree"
)

// Model is a trained forecaster. Predictions are deterministic for a fixed
// trained model.
type Model interface {
	Predict(X [][]float64) []float64
}

// FeatureImportancer is implemented by tree-based models that can rank their
// input features. Absence of importances is not an error.
type FeatureImportancer interface {
	FeatureImportances() []float64
}

// Candidate is one variant in the forecaster pool. Train must be
// deterministic given the same data and hyperparameters.
type Candidate interface {
	Name() string
	// Complexity ranks variants for tie-breaking; lower means simpler.
	Complexity() int
	Train(X [][]float64, y []float64) (Model, error)
}

// Options tunes the pool's shared hyperparameters.
type Options struct {
	Seed            int64
	MinTrainSamples int
}

// DefaultMinTrainSamples is the training-row floor below which candidates
// refuse to train.
const DefaultMinTrainSamples = 48

func (o Options) minSamples() int {
	if o.MinTrainSamples > 0 {
		return o.MinTrainSamples
	}
	return DefaultMinTrainSamples
}

// DefaultPool returns the full candidate set: the linear baseline, the bagged
// tree ensemble and the boosted-tree variant.
func DefaultPool(opts Options) []Candidate {
	return []Candidate{
		NewLinear(opts),
		NewEnsembleTree(opts),
		NewBoostedTree(opts),
	}
}

// checkTrainable enforces the shared training preconditions: enough rows and
// a non-constant target.
func checkTrainable(name string, X [][]float64, y []float64, minSamples int) error {
	if len(X) != len(y) {
		return &model.TrainingError{Candidate: name, Reason: fmt.Sprintf("feature rows (%d) and targets (%d) differ", len(X), len(y))}
	}
	if len(y) < minSamples {
		return &model.TrainingError{Candidate: name, Reason: fmt.Sprintf("%d samples below floor %d", len(y), minSamples)}
	}
	first := y[0]
	constant := true
	for _, v := range y[1:] {
		if v != first {
			constant = false
			break
		}
	}
	if constant {
		return &model.TrainingError{Candidate: name, Reason: "target column is constant"}
	}
	return nil
}
