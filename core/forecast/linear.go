package forecast

import (
	"gonum.org/v1/gonum/mat"

	"github.com/voltmesh/bessopt/core/model"
)

// Linear is the ridge-regression baseline candidate. It is the simplest,
// lowest-variance variant and anchors the selection margin.
type Linear struct {
	Lambda     float64
	minSamples int
}

// NewLinear returns the linear baseline with a small L2 penalty.
func NewLinear(opts Options) *Linear {
	return &Linear{Lambda: 1.0, minSamples: opts.minSamples()}
}

func (l *Linear) Name() string    { return CandidateLinear }
func (l *Linear) Complexity() int { return 0 }

// Train solves the ridge normal equations with an intercept column. The
// penalty is not applied to the intercept.
func (l *Linear) Train(X [][]float64, y []float64) (Model, error) {
	if err := checkTrainable(l.Name(), X, y, l.minSamples); err != nil {
		return nil, err
	}
	n := len(X)
	p := len(X[0])

	a := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}

	var gram mat.Dense
	gram.Mul(a.T(), a)
	for j := 1; j <= p; j++ {
		gram.Set(j, j, gram.At(j, j)+l.Lambda)
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var aty mat.VecDense
	aty.MulVec(a.T(), yv)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &aty); err != nil {
		return nil, &model.TrainingError{Candidate: l.Name(), Reason: "singular design matrix"}
	}

	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return &linearModel{intercept: beta.AtVec(0), coefs: coefs}, nil
}

type linearModel struct {
	intercept float64
	coefs     []float64
}

func (m *linearModel) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		v := m.intercept
		for j, c := range m.coefs {
			v += c * row[j]
		}
		out[i] = v
	}
	return out
}
