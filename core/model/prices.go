package model

import "fmt"

// Tier identifies a time-of-use rate band.
type Tier string

const (
	TierValley Tier = "valley"
	TierNormal Tier = "normal"
	TierPeak   Tier = "peak"
)

// Valid reports whether the tier is one of the known bands.
func (t Tier) Valid() bool {
	switch t {
	case TierValley, TierNormal, TierPeak:
		return true
	}
	return false
}

// PricePoint is the rate applied during one hour of the day.
type PricePoint struct {
	Hour int     `json:"hour"`
	Tier Tier    `json:"tier"`
	Rate float64 `json:"rate"`
}

// PriceSchedule maps every hour of the day to a tier and rate. A valid
// schedule has exactly 24 entries covering hours 0..23 in order.
type PriceSchedule []PricePoint

// Validate checks the schedule covers the full day contiguously.
func (s PriceSchedule) Validate() error {
	if len(s) != HorizonHours {
		return &InvalidConfigError{Field: "price_schedule", Reason: fmt.Sprintf("expected %d entries, got %d", HorizonHours, len(s))}
	}
	for i, p := range s {
		if p.Hour != i {
			return &InvalidConfigError{Field: "price_schedule", Reason: fmt.Sprintf("entry %d covers hour %d, schedule must be contiguous", i, p.Hour)}
		}
		if !p.Tier.Valid() {
			return &InvalidConfigError{Field: "price_schedule", Reason: fmt.Sprintf("hour %d has unknown tier %q", i, p.Tier)}
		}
		if p.Rate < 0 {
			return &InvalidConfigError{Field: "price_schedule", Reason: fmt.Sprintf("hour %d has negative rate", i)}
		}
	}
	return nil
}

// Rates returns the hourly rate vector.
func (s PriceSchedule) Rates() []float64 {
	rates := make([]float64, len(s))
	for i, p := range s {
		rates[i] = p.Rate
	}
	return rates
}

// TierOf returns the tier for the given hour of day.
func (s PriceSchedule) TierOf(hour int) Tier {
	if hour < 0 || hour >= len(s) {
		return TierNormal
	}
	return s[hour].Tier
}
