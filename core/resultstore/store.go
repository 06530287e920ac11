package resultstore

import "github.com/voltmesh/bessopt/core/model"

// Store persists finished optimization results.
type Store interface {
	Append(result *model.OptimizationResult) error
	Close() error
}

// NopStore discards results.
type NopStore struct{}

func (NopStore) Append(*model.OptimizationResult) error { return nil }
func (NopStore) Close() error                           { return nil }
