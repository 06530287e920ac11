package config

import (
	"fmt"

	"github.com/voltmesh/bessopt/core/model"
)

// PriceBand maps a contiguous range of hours to a tier and rate. EndHour is
// exclusive; a band with EndHour < StartHour wraps past midnight.
type PriceBand struct {
	Tier      string  `json:"tier"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
	Rate      float64 `json:"rate"`
}

// PricesConfig describes the time-of-use tariff. Hours not covered by any
// band fall back to the normal tier at DefaultRate.
type PricesConfig struct {
	DefaultRate float64     `json:"default_rate"`
	Bands       []PriceBand `json:"bands"`
}

// SetDefaults installs a typical residential tariff when no bands are set.
func (c *PricesConfig) SetDefaults() {
	if c.DefaultRate == 0 {
		c.DefaultRate = 0.80
	}
	if len(c.Bands) == 0 {
		c.Bands = []PriceBand{
			{Tier: string(model.TierValley), StartHour: 23, EndHour: 7, Rate: 0.30},
			{Tier: string(model.TierPeak), StartHour: 10, EndHour: 15, Rate: 1.20},
			{Tier: string(model.TierPeak), StartHour: 18, EndHour: 21, Rate: 1.20},
		}
	}
}

// Validate checks band hours and tiers.
func (c PricesConfig) Validate() error {
	_, err := c.Expand()
	return err
}

// Expand materializes the bands into a full 24-hour schedule. Later bands
// override earlier ones on overlap.
func (c PricesConfig) Expand() (model.PriceSchedule, error) {
	if c.DefaultRate < 0 {
		return nil, fmt.Errorf("prices: default_rate must be non-negative")
	}
	sched := make(model.PriceSchedule, model.HorizonHours)
	for h := range sched {
		sched[h] = model.PricePoint{Hour: h, Tier: model.TierNormal, Rate: c.DefaultRate}
	}
	for i, b := range c.Bands {
		tier := model.Tier(b.Tier)
		if !tier.Valid() {
			return nil, fmt.Errorf("prices: band %d has unknown tier %q", i, b.Tier)
		}
		if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 24 {
			return nil, fmt.Errorf("prices: band %d has hours outside 0..24", i)
		}
		if b.Rate < 0 {
			return nil, fmt.Errorf("prices: band %d has negative rate", i)
		}
		for _, h := range bandHours(b.StartHour, b.EndHour) {
			sched[h] = model.PricePoint{Hour: h, Tier: tier, Rate: b.Rate}
		}
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	return sched, nil
}

func bandHours(start, end int) []int {
	var hours []int
	h := start
	for {
		if h == end {
			break
		}
		if h == 24 {
			h = 0
			if h == end {
				break
			}
		}
		hours = append(hours, h)
		h++
		if len(hours) >= model.HorizonHours {
			break
		}
	}
	return hours
}
