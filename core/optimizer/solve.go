package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/voltmesh/bessopt/core/model"
)

// Solver defaults.
const (
	DefaultTimeLimit    = 10 * time.Second
	DefaultGapTolerance = 1e-4
	DefaultMaxNodes     = 10000
)

// Options bounds one MIP solve. The time limit is enforced at the invocation
// boundary: the branch-and-bound loop checks the deadline between nodes, so
// the call always returns.
type Options struct {
	TimeLimit    time.Duration
	GapTolerance float64
	MaxNodes     int
	AllowExport  bool
	// Start is the timestamp of hour 0, used for the schedule datetime column.
	Start time.Time
}

func (o Options) withDefaults() Options {
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.GapTolerance <= 0 {
		o.GapTolerance = DefaultGapTolerance
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// node is one open branch-and-bound subproblem. bound is the parent LP
// objective, a valid lower bound for everything under this node.
type node struct {
	banCharge    []bool
	banDischarge []bool
	bound        float64
}

// Optimize builds and solves the dispatch MILP for a 24-hour forecast.
// Validation failures are rejected before any solve work. The all-zero
// schedule seeds the incumbent, so a feasible solution always exists; a
// reported infeasibility therefore indicates a modeling bug and is surfaced
// as SolverInfeasibleError.
func Optimize(ctx context.Context, points []model.ForecastPoint, battery model.BatteryConfig, prices model.PriceSchedule, opts Options) (*model.OptimizationResult, error) {
	if err := battery.Validate(); err != nil {
		return nil, err
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if len(points) != model.HorizonHours {
		return nil, &model.InvalidConfigError{Field: "forecast", Reason: fmt.Sprintf("expected %d points, got %d", model.HorizonHours, len(points))}
	}
	opts = opts.withDefaults()

	load := make([]float64, model.HorizonHours)
	for i, p := range points {
		if p.LoadKW < 0 {
			return nil, &model.InvalidConfigError{Field: "forecast", Reason: fmt.Sprintf("hour %d has negative load", i)}
		}
		load[i] = p.LoadKW
	}
	price := prices.Rates()
	tiers := make([]model.Tier, model.HorizonHours)
	for t := range tiers {
		tiers[t] = prices.TierOf(t)
	}

	start := time.Now()
	p := &problem{load: load, price: price, tiers: tiers, battery: battery, allowExport: opts.AllowExport}

	baselineCost := floats.Dot(load, price)
	incumbent := make([]float64, blockCount*model.HorizonHours)
	for t := 0; t < model.HorizonHours; t++ {
		incumbent[vidx(blkGrid, t)] = load[t]
		incumbent[vidx(blkSoC, t)] = battery.InitialSoCKWh()
	}
	incumbentObj := baselineCost

	// A zero-capacity or zero-power battery admits only the do-nothing
	// schedule; skip the solve entirely.
	if battery.CapacityKWh == 0 || battery.MaxPowerKW == 0 {
		diag := model.SolveDiagnostics{Runtime: time.Since(start)}
		return buildResult(p, incumbent, baselineCost, model.StatusOptimal, diag, opts), nil
	}

	flowTol := 1e-6 * math.Max(1, battery.MaxPowerKW)
	deadline := start.Add(opts.TimeLimit)
	status := model.StatusOptimal
	gap := 0.0
	nodes := 0
	lpSolves := 0

	frontier := []node{{
		banCharge:    make([]bool, model.HorizonHours),
		banDischarge: make([]bool, model.HorizonHours),
		bound:        math.Inf(-1),
	}}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) || nodes >= opts.MaxNodes {
			status = model.StatusTimeLimited
			gap = relativeGap(incumbentObj, bestBound(frontier))
			break
		}

		// Best-first: pop the open node with the smallest bound.
		best := 0
		for i, nd := range frontier {
			if nd.bound < frontier[best].bound {
				best = i
			}
		}
		cur := frontier[best]
		frontier = append(frontier[:best], frontier[best+1:]...)

		if cur.bound >= incumbentObj-pruneEps(incumbentObj) {
			// Everything remaining is at least as expensive as the incumbent.
			frontier = nil
			break
		}

		cLP, G, h, A, b := p.relaxation(cur.banCharge, cur.banDischarge)
		obj, x, err := lpSolve(cLP, G, h, A, b)
		nodes++
		lpSolves++
		if err != nil {
			if nodes == 1 {
				return nil, &model.SolverInfeasibleError{Reason: err.Error()}
			}
			continue
		}
		if obj >= incumbentObj-pruneEps(incumbentObj) {
			continue
		}

		branchHour, viol := worstComplementarity(x)
		if viol <= flowTol {
			incumbent = x
			incumbentObj = obj
			continue
		}

		left := node{banCharge: cloneBans(cur.banCharge), banDischarge: cloneBans(cur.banDischarge), bound: obj}
		left.banCharge[branchHour] = true
		right := node{banCharge: cloneBans(cur.banCharge), banDischarge: cloneBans(cur.banDischarge), bound: obj}
		right.banDischarge[branchHour] = true
		frontier = append(frontier, left, right)

		if g := relativeGap(incumbentObj, bestBound(frontier)); g <= opts.GapTolerance {
			status = model.StatusOptimalWithinGap
			gap = g
			break
		}
	}

	diag := model.SolveDiagnostics{
		Gap:      gap,
		Runtime:  time.Since(start),
		Nodes:    nodes,
		LPSolves: lpSolves,
	}
	return buildResult(p, incumbent, baselineCost, status, diag, opts), nil
}

// worstComplementarity returns the hour with the largest simultaneous
// charge/discharge flow. A value at or below the flow tolerance means the
// relaxation is integer-feasible: the binaries round without changing flows.
func worstComplementarity(x []float64) (int, float64) {
	hour := -1
	worst := 0.0
	for t := 0; t < model.HorizonHours; t++ {
		v := math.Min(x[vidx(blkCharge, t)], x[vidx(blkDischarge, t)])
		if v > worst {
			worst = v
			hour = t
		}
	}
	return hour, worst
}

func bestBound(frontier []node) float64 {
	best := math.Inf(1)
	for _, nd := range frontier {
		if nd.bound < best {
			best = nd.bound
		}
	}
	return best
}

// relativeGap is (incumbent - bound) / |incumbent|; zero when nothing remains
// open.
func relativeGap(incumbent, bound float64) float64 {
	if math.IsInf(bound, 1) || math.IsInf(bound, -1) {
		if math.IsInf(bound, 1) {
			return 0
		}
		return 1
	}
	diff := incumbent - bound
	if diff <= 0 {
		return 0
	}
	return diff / math.Max(math.Abs(incumbent), 1e-9)
}

func pruneEps(incumbent float64) float64 {
	return 1e-9 * (1 + math.Abs(incumbent))
}

func cloneBans(b []bool) []bool {
	return append([]bool(nil), b...)
}

// buildResult converts the incumbent variable vector into the schedule,
// recomputing the SOC trajectory from the recurrence so the reported
// trajectory is exact.
func buildResult(p *problem, x []float64, baselineCost float64, status model.SolveStatus, diag model.SolveDiagnostics, opts Options) *model.OptimizationResult {
	flowTol := 1e-6 * math.Max(1, p.battery.MaxPowerKW)
	eff := p.battery.Efficiency
	soc := p.battery.InitialSoCKWh()

	schedule := make([]model.ScheduleDecision, model.HorizonHours)
	summary := model.CostSummary{
		CostBaseline: baselineCost,
		MinLoadKW:    math.Inf(1),
	}
	var strategy model.StrategySummary
	totalCost := 0.0
	for t := 0; t < model.HorizonHours; t++ {
		charge := clampFlow(x[vidx(blkCharge, t)], flowTol, p.battery.MaxPowerKW)
		discharge := clampFlow(x[vidx(blkDischarge, t)], flowTol, p.battery.MaxPowerKW)
		soc += charge*eff - discharge/eff
		soc = clamp(soc, 0, p.battery.CapacityKWh)
		grid := p.load[t] + charge - discharge
		hourCost := grid * p.price[t]
		totalCost += hourCost

		schedule[t] = model.ScheduleDecision{
			Hour:        t,
			Time:        opts.Start.Add(time.Duration(t) * time.Hour),
			LoadKW:      p.load[t],
			Price:       p.price[t],
			Tier:        p.tiers[t],
			ChargeKW:    charge,
			DischargeKW: discharge,
			Charging:    charge > 0,
			Discharging: discharge > 0,
			SoCKWh:      soc,
			GridKW:      grid,
			Cost:        hourCost,
		}

		summary.TotalLoadKWh += p.load[t]
		summary.TotalChargeKWh += charge
		summary.TotalDischargeKWh += discharge
		if p.load[t] > summary.PeakLoadKW {
			summary.PeakLoadKW = p.load[t]
		}
		if p.load[t] < summary.MinLoadKW {
			summary.MinLoadKW = p.load[t]
		}
		if charge > 0 {
			strategy.ChargeHours = append(strategy.ChargeHours, t)
		}
		if discharge > 0 {
			strategy.DischargeHours = append(strategy.DischargeHours, t)
		}
	}
	if math.IsInf(summary.MinLoadKW, 1) {
		summary.MinLoadKW = 0
	}
	summary.CostWithBattery = totalCost
	summary.Savings = baselineCost - totalCost
	if baselineCost > 0 {
		summary.SavingsPercent = summary.Savings / baselineCost * 100
	}
	sort.Ints(strategy.ChargeHours)
	sort.Ints(strategy.DischargeHours)
	strategy.ChargeHourCount = len(strategy.ChargeHours)
	strategy.DischargeHourCount = len(strategy.DischargeHours)

	annotateSaturation(&diag, schedule, p.battery)

	return &model.OptimizationResult{
		Status:        status,
		InitialSoCKWh: p.battery.InitialSoCKWh(),
		Schedule:      schedule,
		Summary:       summary,
		Strategy:      strategy,
		Diagnostics:   diag,
	}
}

func clampFlow(v, tol, max float64) float64 {
	if v < tol {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
