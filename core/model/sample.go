package model

import "time"

// HorizonHours is the length of the optimization horizon.
const HorizonHours = 24

// TimeSeriesSample is one hour of historical metering data. Samples are
// immutable; the engine only ever reads them.
type TimeSeriesSample struct {
	Timestamp    time.Time `json:"timestamp"`
	LoadKW       float64   `json:"load_kw"`
	TemperatureC float64   `json:"temperature_c"`
	PriceTier    Tier      `json:"price_tier"`
}

// Hour returns the sample's hour of day.
func (s TimeSeriesSample) Hour() int { return s.Timestamp.Hour() }

// Weekday returns the sample's day of week, Sunday = 0.
func (s TimeSeriesSample) Weekday() int { return int(s.Timestamp.Weekday()) }

// Date returns the sample's timestamp truncated to midnight.
func (s TimeSeriesSample) Date() time.Time {
	t := s.Timestamp
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
