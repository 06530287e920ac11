package forecast

import "math/rand"

// EnsembleTree is a bagged ensemble of regression trees. Each tree trains on
// a bootstrap sample with a random feature subset per split; the seed makes
// retraining deterministic.
type EnsembleTree struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64

	minSamples int
}

// NewEnsembleTree returns the ensemble variant with default hyperparameters.
func NewEnsembleTree(opts Options) *EnsembleTree {
	return &EnsembleTree{
		Trees:      50,
		MaxDepth:   6,
		MinLeaf:    5,
		Seed:       opts.Seed,
		minSamples: opts.minSamples(),
	}
}

func (e *EnsembleTree) Name() string    { return CandidateEnsembleTree }
func (e *EnsembleTree) Complexity() int { return 1 }

func (e *EnsembleTree) Train(X [][]float64, y []float64) (Model, error) {
	if err := checkTrainable(e.Name(), X, y, e.minSamples); err != nil {
		return nil, err
	}
	n := len(X)
	p := len(X[0])
	sub := p / 3
	if sub < 2 {
		sub = 2
	}
	params := treeParams{maxDepth: e.MaxDepth, minLeaf: e.MinLeaf, featureSub: sub}

	m := &forestModel{trees: make([]*treeNode, e.Trees), importances: make([]float64, p)}
	for t := 0; t < e.Trees; t++ {
		rng := rand.New(rand.NewSource(e.Seed + int64(t)))
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		m.trees[t] = growTree(X, y, idx, 0, params, rng, m.importances)
	}
	normalize(m.importances)
	return m, nil
}

type forestModel struct {
	trees       []*treeNode
	importances []float64
}

func (m *forestModel) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		var s float64
		for _, t := range m.trees {
			s += predictTree(t, row)
		}
		out[i] = s / float64(len(m.trees))
	}
	return out
}

// FeatureImportances returns the normalized SSE-reduction share per feature.
func (m *forestModel) FeatureImportances() []float64 {
	return append([]float64(nil), m.importances...)
}

func normalize(w []float64) {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

var (
	_ Candidate          = (*EnsembleTree)(nil)
	_ FeatureImportancer = (*forestModel)(nil)
)
