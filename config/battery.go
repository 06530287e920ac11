package config

import "github.com/voltmesh/bessopt/core/model"

// BatteryConfig holds the default storage asset parameters. Requests may
// override any of them per run.
type BatteryConfig struct {
	CapacityKWh float64 `json:"capacity_kwh"`
	MaxPowerKW  float64 `json:"max_power_kw"`
	Efficiency  float64 `json:"efficiency"`
	InitialSoC  float64 `json:"initial_soc"`
}

// SetDefaults applies the stock asset parameters.
func (c *BatteryConfig) SetDefaults() {
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 100
	}
	if c.MaxPowerKW == 0 {
		c.MaxPowerKW = 25
	}
	if c.Efficiency == 0 {
		c.Efficiency = 0.95
	}
	if c.InitialSoC == 0 {
		c.InitialSoC = 0.5
	}
}

// ToModel converts the section to the engine type.
func (c BatteryConfig) ToModel() model.BatteryConfig {
	return model.BatteryConfig{
		CapacityKWh: c.CapacityKWh,
		MaxPowerKW:  c.MaxPowerKW,
		Efficiency:  c.Efficiency,
		InitialSoC:  c.InitialSoC,
	}
}

// Validate delegates to the engine validation.
func (c BatteryConfig) Validate() error {
	return c.ToModel().Validate()
}
