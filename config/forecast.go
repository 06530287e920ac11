package config

import "fmt"

// ForecastConfig tunes model selection.
type ForecastConfig struct {
	MinHistoryDays  int     `json:"min_history_days"`
	Folds           int     `json:"folds"`
	HoldoutFraction float64 `json:"holdout_fraction"`
	TieTolerance    float64 `json:"tie_tolerance"`
	Workers         int     `json:"workers"`
	Seed            int64   `json:"seed"`
}

// SetDefaults applies the stock selection parameters.
func (c *ForecastConfig) SetDefaults() {
	if c.MinHistoryDays == 0 {
		c.MinHistoryDays = 7
	}
	if c.Folds == 0 {
		c.Folds = 5
	}
	if c.HoldoutFraction == 0 {
		c.HoldoutFraction = 0.15
	}
	if c.TieTolerance == 0 {
		c.TieTolerance = 0.01
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Validate checks the selection parameters.
func (c ForecastConfig) Validate() error {
	if c.MinHistoryDays < 1 {
		return fmt.Errorf("forecast: min_history_days must be positive")
	}
	if c.Folds < 2 {
		return fmt.Errorf("forecast: folds must be at least 2")
	}
	if c.HoldoutFraction <= 0 || c.HoldoutFraction >= 0.5 {
		return fmt.Errorf("forecast: holdout_fraction must be in (0, 0.5)")
	}
	if c.TieTolerance < 0 {
		return fmt.Errorf("forecast: tie_tolerance must be non-negative")
	}
	return nil
}
