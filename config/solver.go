package config

import (
	"fmt"
	"time"

	"github.com/voltmesh/bessopt/core/optimizer"
)

// SolverConfig tunes the dispatch solver.
type SolverConfig struct {
	TimeLimitMS  int     `json:"time_limit_ms"`
	GapTolerance float64 `json:"gap_tolerance"`
	MaxNodes     int     `json:"max_nodes"`
	AllowExport  bool    `json:"allow_export"`
}

// SetDefaults applies the stock solver limits.
func (c *SolverConfig) SetDefaults() {
	if c.TimeLimitMS == 0 {
		c.TimeLimitMS = int(optimizer.DefaultTimeLimit / time.Millisecond)
	}
	if c.GapTolerance == 0 {
		c.GapTolerance = optimizer.DefaultGapTolerance
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = optimizer.DefaultMaxNodes
	}
}

// Validate checks the solver limits.
func (c SolverConfig) Validate() error {
	if c.TimeLimitMS < 0 {
		return fmt.Errorf("solver: time_limit_ms must be non-negative")
	}
	if c.GapTolerance < 0 {
		return fmt.Errorf("solver: gap_tolerance must be non-negative")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("solver: max_nodes must be non-negative")
	}
	return nil
}

// Options converts the section to solver options.
func (c SolverConfig) Options() optimizer.Options {
	return optimizer.Options{
		TimeLimit:    time.Duration(c.TimeLimitMS) * time.Millisecond,
		GapTolerance: c.GapTolerance,
		MaxNodes:     c.MaxNodes,
		AllowExport:  c.AllowExport,
	}
}
