package pipeline

import (
	"context"

	"github.com/voltmesh/bessopt/core/model"
)

// HistoryProvider supplies the historical load samples the forecaster
// trains on.
type HistoryProvider interface {
	Samples(ctx context.Context) ([]model.TimeSeriesSample, error)
}

// StaticHistory serves a fixed slice of samples.
type StaticHistory []model.TimeSeriesSample

func (s StaticHistory) Samples(context.Context) ([]model.TimeSeriesSample, error) {
	return s, nil
}
