// Package hybrid implements the adaptive micro/macro traffic hybridizer: a
// macroscopic LWR/Godunov continuum model, per-lane mode switching with
// hysteresis, and flow-preserving conversion between vehicle lists and
// density cells.
package hybrid

import "math"

// LWR is the Lighthill-Whitham-Richards first-order macroscopic traffic
// flow model, discretized into cells and advanced with a Godunov
// (upwind, exact-Riemann) scheme. Grounded on jamfree's LWR
// (original_source/cpp/jamfree/macroscopic/include/LWR.h); Lighthill &
// Whitham (1955), "On kinematic waves II."
type LWR struct {
	FreeFlowSpeed float64 // v_f, m/s
	JamDensity    float64 // rho_jam, vehicles/m
	RoadLength    float64 // m
	NumCells      int

	cellLength float64
	density    []float64
	scratch    []float64
}

// NewLWR returns an LWR grid of NumCells cells spanning RoadLength, all
// initialized to zero density.
func NewLWR(freeFlowSpeed, jamDensity, roadLength float64, numCells int) *LWR {
	return &LWR{
		FreeFlowSpeed: freeFlowSpeed,
		JamDensity:    jamDensity,
		RoadLength:    roadLength,
		NumCells:      numCells,
		cellLength:    roadLength / float64(numCells),
		density:       make([]float64, numCells),
		scratch:       make([]float64, numCells),
	}
}

// Cells returns the number of cells in the grid.
func (l *LWR) Cells() int { return l.NumCells }

// CellLength returns the length of one discretization cell, in meters.
func (l *LWR) CellLength() float64 { return l.cellLength }

// SpeedFromDensity is the Greenshields fundamental diagram: v(rho) = v_f *
// (1 - rho/rho_jam), clamped to zero at or above jam density.
func (l *LWR) SpeedFromDensity(density float64) float64 {
	if density >= l.JamDensity {
		return 0
	}
	return l.FreeFlowSpeed * (1.0 - density/l.JamDensity)
}

// FlowFromDensity is q(rho) = rho * v(rho).
func (l *LWR) FlowFromDensity(density float64) float64 {
	return density * l.SpeedFromDensity(density)
}

// CriticalDensity is the density at which flow is maximized, rho_jam/2 for
// the parabolic Greenshields diagram.
func (l *LWR) CriticalDensity() float64 { return l.JamDensity / 2.0 }

// MaxFlow is the road capacity, the flow at CriticalDensity.
func (l *LWR) MaxFlow() float64 { return l.FlowFromDensity(l.CriticalDensity()) }

// SetDensity clamps and sets the density of one cell.
func (l *LWR) SetDensity(cell int, density float64) {
	if cell < 0 || cell >= l.NumCells {
		return
	}
	l.density[cell] = clamp(density, 0, l.JamDensity)
}

// Density returns the density of one cell, or 0 if out of range.
func (l *LWR) Density(cell int) float64 {
	if cell < 0 || cell >= l.NumCells {
		return 0
	}
	return l.density[cell]
}

// Flow returns the flow at one cell.
func (l *LWR) Flow(cell int) float64 { return l.FlowFromDensity(l.Density(cell)) }

// Speed returns the speed at one cell.
func (l *LWR) Speed(cell int) float64 { return l.SpeedFromDensity(l.Density(cell)) }

// Densities returns the live density slice; callers must not retain it
// across a subsequent Update.
func (l *LWR) Densities() []float64 { return l.density }

// Update advances the grid by dt seconds using a periodic-boundary Godunov
// scheme solving the conservation law d(rho)/dt + d(q)/dx = 0.
func (l *LWR) Update(dt float64) {
	n := l.NumCells
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		next := (i + 1) % n

		fluxLeft := l.godunovFlux(l.density[prev], l.density[i])
		fluxRight := l.godunovFlux(l.density[i], l.density[next])

		l.scratch[i] = clamp(l.density[i]-(dt/l.cellLength)*(fluxRight-fluxLeft), 0, l.JamDensity)
	}
	l.density, l.scratch = l.scratch, l.density
}

// godunovFlux is the exact Riemann solver for the LWR/Greenshields
// (parabolic) fundamental diagram, in demand/supply form: the upstream cell
// sends at most its demand (its own flow below critical density, capacity
// above it) and the downstream cell accepts at most its supply (capacity
// below critical density, its own flow above it).
func (l *LWR) godunovFlux(rhoLeft, rhoRight float64) float64 {
	rhoC := l.CriticalDensity()
	demand := l.FlowFromDensity(rhoC)
	if rhoLeft <= rhoC {
		demand = l.FlowFromDensity(rhoLeft)
	}
	supply := l.FlowFromDensity(rhoC)
	if rhoRight >= rhoC {
		supply = l.FlowFromDensity(rhoRight)
	}
	return math.Min(demand, supply)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
