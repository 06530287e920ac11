package forecast

import "math/rand"

// BoostedTree fits shallow regression trees to the running residual. Its
// hyperparameters come from an offline tuning pass, which the Tuned flag
// records for the validation summary.
type BoostedTree struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int
	Subsample    float64
	Seed         int64

	minSamples int
}

// NewBoostedTree returns the boosted variant with its tuned defaults.
func NewBoostedTree(opts Options) *BoostedTree {
	return &BoostedTree{
		Rounds:       100,
		LearningRate: 0.1,
		MaxDepth:     3,
		MinLeaf:      5,
		Subsample:    0.8,
		Seed:         opts.Seed,
		minSamples:   opts.minSamples(),
	}
}

func (b *BoostedTree) Name() string    { return CandidateBoostedTree }
func (b *BoostedTree) Complexity() int { return 2 }

// Tuned marks the candidate's hyperparameters as externally tuned.
func (b *BoostedTree) Tuned() bool { return true }

func (b *BoostedTree) Train(X [][]float64, y []float64) (Model, error) {
	if err := checkTrainable(b.Name(), X, y, b.minSamples); err != nil {
		return nil, err
	}
	n := len(X)
	p := len(X[0])
	params := treeParams{maxDepth: b.MaxDepth, minLeaf: b.MinLeaf}

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	residual := make([]float64, n)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}

	rows := n
	if b.Subsample > 0 && b.Subsample < 1 {
		rows = int(b.Subsample * float64(n))
		if rows < 2*b.MinLeaf {
			rows = n
		}
	}

	m := &boostModel{base: base, rate: b.LearningRate, importances: make([]float64, p)}
	for r := 0; r < b.Rounds; r++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		rng := rand.New(rand.NewSource(b.Seed + int64(r)))
		idx := rng.Perm(n)[:rows]
		tree := growTree(X, residual, idx, 0, params, rng, m.importances)
		m.trees = append(m.trees, tree)
		for i, row := range X {
			pred[i] += b.LearningRate * predictTree(tree, row)
		}
	}
	normalize(m.importances)
	return m, nil
}

type boostModel struct {
	base        float64
	rate        float64
	trees       []*treeNode
	importances []float64
}

func (m *boostModel) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		v := m.base
		for _, t := range m.trees {
			v += m.rate * predictTree(t, row)
		}
		out[i] = v
	}
	return out
}

// FeatureImportances returns the normalized SSE-reduction share per feature.
func (m *boostModel) FeatureImportances() []float64 {
	return append([]float64(nil), m.importances...)
}

var (
	_ Candidate          = (*BoostedTree)(nil)
	_ FeatureImportancer = (*boostModel)(nil)
)
