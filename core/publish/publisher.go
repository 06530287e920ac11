package publish

import (
	"context"

	"github.com/voltmesh/bessopt/core/model"
)

// Publisher delivers finished optimization results to downstream consumers.
type Publisher interface {
	PublishResult(ctx context.Context, result *model.OptimizationResult) error
	Close() error
}

// NopPublisher discards results.
type NopPublisher struct{}

func (NopPublisher) PublishResult(context.Context, *model.OptimizationResult) error { return nil }
func (NopPublisher) Close() error                                                   { return nil }
