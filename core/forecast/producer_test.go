package forecast

import (
	"math"
	"testing"
)

type importanceModel struct {
	preds   []float64
	weights []float64
}

func (m importanceModel) Predict([][]float64) []float64 { return m.preds }
func (m importanceModel) FeatureImportances() []float64 { return m.weights }

func TestProduceFloorsNegativeForecasts(t *testing.T) {
	preds := make([]float64, 24)
	for i := range preds {
		preds[i] = float64(i) - 5
	}
	points := Produce(importanceModel{preds: preds}, make([][]float64, 24), 0)
	for _, p := range points {
		if p.LoadKW < 0 {
			t.Fatalf("hour %d negative forecast %f", p.Hour, p.LoadKW)
		}
		if p.Lower != 0 || p.Upper != 0 {
			t.Fatalf("no residual spread should mean no interval")
		}
	}
	if points[10].LoadKW != 5 {
		t.Fatalf("positive forecasts must pass through, got %f", points[10].LoadKW)
	}
}

func TestProducePredictionInterval(t *testing.T) {
	preds := make([]float64, 24)
	for i := range preds {
		preds[i] = 50
	}
	const sigma = 2.0
	points := Produce(importanceModel{preds: preds}, make([][]float64, 24), sigma)
	for _, p := range points {
		if math.Abs(p.Upper-(50+1.96*sigma)) > 1e-9 {
			t.Fatalf("upper bound %f", p.Upper)
		}
		if math.Abs(p.Lower-(50-1.96*sigma)) > 1e-9 {
			t.Fatalf("lower bound %f", p.Lower)
		}
	}
}

func TestImportancesSortedDescending(t *testing.T) {
	m := importanceModel{weights: []float64{0.2, 0.5, 0.3}}
	names := []string{"a", "b", "c"}
	out := Importances(m, names)
	if len(out) != 3 {
		t.Fatalf("importances %d", len(out))
	}
	if out[0].Feature != "b" || out[1].Feature != "c" || out[2].Feature != "a" {
		t.Fatalf("not sorted by weight: %+v", out)
	}
}

func TestImportancesAbsentForPlainModels(t *testing.T) {
	if out := Importances(constModel(1), nil); out != nil {
		t.Fatalf("plain models should yield no importances, got %+v", out)
	}
}
