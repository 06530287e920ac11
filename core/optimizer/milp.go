package optimizer

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/voltmesh/bessopt/core/model"
)

// The horizon MILP uses six variable blocks of HorizonHours each:
// charge, discharge, soc, grid, isCharging, isDischarging. The binaries are
// linked to the flows with big-M rows and relaxed to [0,1] inside each
// branch-and-bound node.
const (
	blkCharge = iota
	blkDischarge
	blkSoC
	blkGrid
	blkIsCharging
	blkIsDischarging
	blockCount
)

func vidx(block, hour int) int { return block*model.HorizonHours + hour }

type problem struct {
	load        []float64
	price       []float64
	tiers       []model.Tier
	battery     model.BatteryConfig
	allowExport bool
}

// relaxation builds the LP relaxation of the MILP in general form
// (minimize c'x s.t. G x <= h, A x = b). banCharge/banDischarge zero the
// binary upper bound for the given hour, which the linking rows translate
// into a zero flow; this is how branching resolves complementarity.
func (p *problem) relaxation(banCharge, banDischarge []bool) (c []float64, G *mat.Dense, h []float64, A *mat.Dense, b []float64) {
	H := model.HorizonHours
	n := blockCount * H
	eff := p.battery.Efficiency
	pmax := p.battery.MaxPowerKW
	cap := p.battery.CapacityKWh

	c = make([]float64, n)
	for t := 0; t < H; t++ {
		c[vidx(blkGrid, t)] = p.price[t]
	}

	// Equalities: SOC recurrence and grid balance.
	A = mat.NewDense(2*H, n, nil)
	b = make([]float64, 2*H)
	for t := 0; t < H; t++ {
		// soc[t] - soc[t-1] - eff*charge[t] + discharge[t]/eff = 0
		A.Set(t, vidx(blkSoC, t), 1)
		A.Set(t, vidx(blkCharge, t), -eff)
		A.Set(t, vidx(blkDischarge, t), 1/eff)
		if t == 0 {
			b[t] = p.battery.InitialSoCKWh()
		} else {
			A.Set(t, vidx(blkSoC, t-1), -1)
		}
		// grid[t] - charge[t] + discharge[t] = load[t]
		A.Set(H+t, vidx(blkGrid, t), 1)
		A.Set(H+t, vidx(blkCharge, t), -1)
		A.Set(H+t, vidx(blkDischarge, t), 1)
		b[H+t] = p.load[t]
	}

	rowsPerHour := 12
	if p.allowExport {
		rowsPerHour = 11
	}
	G = mat.NewDense(rowsPerHour*H, n, nil)
	h = make([]float64, rowsPerHour*H)
	r := 0
	addRow := func(coeffs map[int]float64, rhs float64) {
		for j, v := range coeffs {
			G.Set(r, j, v)
		}
		h[r] = rhs
		r++
	}
	for t := 0; t < H; t++ {
		ct := vidx(blkCharge, t)
		dt := vidx(blkDischarge, t)
		st := vidx(blkSoC, t)
		gt := vidx(blkGrid, t)
		bct := vidx(blkIsCharging, t)
		bdt := vidx(blkIsDischarging, t)

		// Big-M links and mutual exclusion.
		addRow(map[int]float64{ct: 1, bct: -pmax}, 0)
		addRow(map[int]float64{dt: 1, bdt: -pmax}, 0)
		addRow(map[int]float64{bct: 1, bdt: 1}, 1)
		// SOC window.
		addRow(map[int]float64{st: 1}, cap)
		addRow(map[int]float64{st: -1}, 0)
		// Non-negative flows.
		addRow(map[int]float64{ct: -1}, 0)
		addRow(map[int]float64{dt: -1}, 0)
		if !p.allowExport {
			addRow(map[int]float64{gt: -1}, 0)
		}
		// Binary bounds, tightened by branching.
		ubc, ubd := 1.0, 1.0
		if banCharge[t] {
			ubc = 0
		}
		if banDischarge[t] {
			ubd = 0
		}
		addRow(map[int]float64{bct: 1}, ubc)
		addRow(map[int]float64{bdt: 1}, ubd)
		addRow(map[int]float64{bct: -1}, 0)
		addRow(map[int]float64{bdt: -1}, 0)
	}
	return c, G, h, A, b
}

// lpSolve points to the function used for LP relaxations. Tests override it
// to simulate solver failures.
var lpSolve = solveRelaxation

// solveRelaxation converts the general-form LP to standard form and runs the
// simplex method, mapping the split variables back to the original space.
func solveRelaxation(c []float64, G mat.Matrix, h []float64, A mat.Matrix, b []float64) (float64, []float64, error) {
	cStd, aStd, bStd := lp.Convert(c, G, h, A, b)
	obj, xStd, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return 0, nil, err
	}
	n := len(c)
	x := make([]float64, n)
	for i := range x {
		x[i] = xStd[i] - xStd[n+i]
	}
	return obj, x, nil
}
