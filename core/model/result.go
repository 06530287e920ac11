package model

import "time"

// SolveStatus reports how the MIP solve terminated.
type SolveStatus string

const (
	// StatusOptimal means the incumbent was proven optimal.
	StatusOptimal SolveStatus = "optimal"
	// StatusOptimalWithinGap means the incumbent is within the configured
	// MIP gap tolerance of the best bound.
	StatusOptimalWithinGap SolveStatus = "optimal_within_gap"
	// StatusTimeLimited means the time or node budget expired before
	// optimality was proven; the best incumbent is returned.
	StatusTimeLimited SolveStatus = "time_limited"
	// StatusInfeasible indicates a modeling bug: the zero-action schedule is
	// always feasible, so this should never occur with valid inputs.
	StatusInfeasible SolveStatus = "infeasible"
)

// ScheduleDecision is the resolved action for one hour of the horizon.
// Charging and discharging are mutually exclusive; SoCKWh is the stored
// energy at the end of the hour.
type ScheduleDecision struct {
	Hour        int       `json:"hour"`
	Time        time.Time `json:"datetime"`
	LoadKW      float64   `json:"load_kw"`
	Price       float64   `json:"price"`
	Tier        Tier      `json:"tier"`
	ChargeKW    float64   `json:"charge_kw"`
	DischargeKW float64   `json:"discharge_kw"`
	Charging    bool      `json:"charging"`
	Discharging bool      `json:"discharging"`
	SoCKWh      float64   `json:"soc_kwh"`
	GridKW      float64   `json:"grid_kw"`
	Cost        float64   `json:"cost"`
}

// CostSummary aggregates the value of the schedule against the do-nothing
// baseline.
type CostSummary struct {
	CostWithBattery   float64 `json:"cost_with_battery"`
	CostBaseline      float64 `json:"cost_baseline"`
	Savings           float64 `json:"savings"`
	SavingsPercent    float64 `json:"savings_percent"`
	TotalLoadKWh      float64 `json:"total_load_kwh"`
	TotalChargeKWh    float64 `json:"total_charge_kwh"`
	TotalDischargeKWh float64 `json:"total_discharge_kwh"`
	PeakLoadKW        float64 `json:"peak_load_kw"`
	MinLoadKW         float64 `json:"min_load_kw"`
}

// StrategySummary lists the hours the optimizer chose to act in.
type StrategySummary struct {
	ChargeHours        []int `json:"charge_hours"`
	DischargeHours     []int `json:"discharge_hours"`
	ChargeHourCount    int   `json:"charge_hour_count"`
	DischargeHourCount int   `json:"discharge_hour_count"`
}

// SolveDiagnostics exposes solver health and constraint saturation counters.
// The saturation counters distinguish an undersized battery (SoC or power
// bounds binding) from a price signal too flat to exploit.
type SolveDiagnostics struct {
	Gap                float64       `json:"gap"`
	Runtime            time.Duration `json:"runtime"`
	Nodes              int           `json:"nodes"`
	LPSolves           int           `json:"lp_solves"`
	SoCLowerHits       int           `json:"soc_lower_hits"`
	SoCUpperHits       int           `json:"soc_upper_hits"`
	ChargeLimitHits    int           `json:"charge_limit_hits"`
	DischargeLimitHits int           `json:"discharge_limit_hits"`
}

// OptimizationResult is the immutable outcome of one dispatch optimization.
// A schedule is only present when Status is not infeasible.
type OptimizationResult struct {
	ID            string             `json:"id"`
	Status        SolveStatus        `json:"status"`
	InitialSoCKWh float64            `json:"initial_soc_kwh"`
	Schedule      []ScheduleDecision `json:"schedule,omitempty"`
	Summary       CostSummary        `json:"summary"`
	Strategy      StrategySummary    `json:"strategy"`
	Diagnostics   SolveDiagnostics   `json:"diagnostics"`
	Model         ModelInfo          `json:"model_info"`
	CreatedAt     time.Time          `json:"created_at"`
}
