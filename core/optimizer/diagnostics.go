package optimizer

import (
	"math"

	"github.com/voltmesh/bessopt/core/model"
)

// saturationTol is the relative tolerance for deciding a variable sits on its
// bound.
const saturationTol = 1e-6

// annotateSaturation fills the constraint-saturation counters: hours where
// the SOC trajectory touches 0 or capacity, and hours where a flow runs at
// max power. High SOC/power hits suggest an undersized battery; low hits with
// low savings suggest the price signal is too flat to exploit.
func annotateSaturation(diag *model.SolveDiagnostics, schedule []model.ScheduleDecision, battery model.BatteryConfig) {
	capTol := saturationTol * math.Max(1, battery.CapacityKWh)
	powTol := saturationTol * math.Max(1, battery.MaxPowerKW)
	for _, d := range schedule {
		if d.SoCKWh <= capTol {
			diag.SoCLowerHits++
		}
		if battery.CapacityKWh > 0 && d.SoCKWh >= battery.CapacityKWh-capTol {
			diag.SoCUpperHits++
		}
		if battery.MaxPowerKW > 0 && d.ChargeKW >= battery.MaxPowerKW-powTol {
			diag.ChargeLimitHits++
		}
		if battery.MaxPowerKW > 0 && d.DischargeKW >= battery.MaxPowerKW-powTol {
			diag.DischargeLimitHits++
		}
	}
}
