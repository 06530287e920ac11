package forecast

import (
	"sort"
	"time"

	"github.com/voltmesh/bessopt/core/model"
)

// intervalZ widens the prediction interval to roughly 95% coverage under a
// normal residual assumption.
const intervalZ = 1.96

// Produce applies the trained model to the horizon features and returns the
// 24-point forecast. residualStd, when positive, sets the prediction
// interval; forecasts are floored at zero since load cannot be negative.
func Produce(m Model, horizonX [][]float64, residualStd float64) []model.ForecastPoint {
	pred := m.Predict(horizonX)
	points := make([]model.ForecastPoint, len(pred))
	for h, v := range pred {
		if v < 0 {
			v = 0
		}
		p := model.ForecastPoint{Hour: h, LoadKW: v}
		if residualStd > 0 {
			p.Lower = v - intervalZ*residualStd
			if p.Lower < 0 {
				p.Lower = 0
			}
			p.Upper = v + intervalZ*residualStd
		}
		points[h] = p
	}
	return points
}

// Importances extracts the feature-importance ranking from the model, sorted
// by descending weight. Models without importances yield an empty slice.
func Importances(m Model, names []string) []model.FeatureImportance {
	fi, ok := m.(FeatureImportancer)
	if !ok {
		return nil
	}
	weights := fi.FeatureImportances()
	out := make([]model.FeatureImportance, 0, len(weights))
	for i, w := range weights {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		out = append(out, model.FeatureImportance{Feature: name, Weight: w})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// BuildModelInfo assembles the explainability block attached to a result.
func BuildModelInfo(sel *Selection, asm *Assembled, trainedAt time.Time) model.ModelInfo {
	return model.ModelInfo{
		ModelType:     sel.Winner.Name(),
		TrainSamples:  len(asm.TrainY),
		TrainedAt:     trainedAt,
		CoverageStart: asm.CoverageStart,
		CoverageEnd:   asm.CoverageEnd,
		Validation:    sel.Summary,
		Importances:   Importances(sel.Model, asm.Names),
	}
}
