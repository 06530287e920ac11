package model

// BatteryConfig describes the storage asset for a single optimization request.
// Efficiency is the one-way efficiency applied once per direction; the
// round-trip efficiency is its square.
type BatteryConfig struct {
	CapacityKWh float64 `json:"capacity_kwh"`
	MaxPowerKW  float64 `json:"max_power_kw"`
	Efficiency  float64 `json:"efficiency"`
	InitialSoC  float64 `json:"initial_soc"`
}

// InitialSoCKWh returns the absolute stored energy at the start of the horizon.
func (c BatteryConfig) InitialSoCKWh() float64 {
	return c.InitialSoC * c.CapacityKWh
}

// Validate rejects configurations the optimizer cannot model. A zero capacity
// or power is valid and degenerates to the do-nothing schedule.
func (c BatteryConfig) Validate() error {
	if c.CapacityKWh < 0 {
		return &InvalidConfigError{Field: "capacity_kwh", Reason: "must be non-negative"}
	}
	if c.MaxPowerKW < 0 {
		return &InvalidConfigError{Field: "max_power_kw", Reason: "must be non-negative"}
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return &InvalidConfigError{Field: "efficiency", Reason: "must be in (0, 1]"}
	}
	if c.InitialSoC < 0 || c.InitialSoC > 1 {
		return &InvalidConfigError{Field: "initial_soc", Reason: "must be in [0, 1]"}
	}
	return nil
}
