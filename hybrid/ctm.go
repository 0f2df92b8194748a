package hybrid

import "math"

// CTMGrid is the Cell Transmission Model, Daganzo's discrete version of LWR
// that propagates vehicle counts between cells via explicit sending/receiving
// flows instead of a Godunov flux. Grounded on jamfree's CTM
// (original_source/cpp/jamfree/macroscopic/include/CTM.h); Daganzo (1994),
// "The cell transmission model."
type CTMGrid struct {
	FreeFlowSpeed float64 // v_f, m/s
	WaveSpeed     float64 // w, m/s (backward congestion-wave speed)
	JamDensity    float64 // rho_jam, vehicles/m
	RoadLength    float64 // m
	NumCells      int

	cellLength      float64
	criticalDensity float64
	maxFlow         float64

	numVehicles []float64
	scratch     []float64
	flows       []float64
	densityBuf  []float64
}

// NewCTMGrid returns a CTM grid of NumCells cells spanning RoadLength, all
// initialized to zero vehicles.
func NewCTMGrid(freeFlowSpeed, waveSpeed, jamDensity, roadLength float64, numCells int) *CTMGrid {
	cellLength := roadLength / float64(numCells)
	g := &CTMGrid{
		FreeFlowSpeed: freeFlowSpeed,
		WaveSpeed:     waveSpeed,
		JamDensity:    jamDensity,
		RoadLength:    roadLength,
		NumCells:      numCells,
		cellLength:    cellLength,
		numVehicles:   make([]float64, numCells),
		scratch:       make([]float64, numCells),
		flows:         make([]float64, numCells+1),
		densityBuf:    make([]float64, numCells),
	}
	g.criticalDensity = jamDensity * waveSpeed / (freeFlowSpeed + waveSpeed)
	g.maxFlow = g.criticalDensity * freeFlowSpeed
	return g
}

// Cells returns the number of cells in the grid.
func (g *CTMGrid) Cells() int { return g.NumCells }

// CellLength returns the length of one discretization cell, in meters.
func (g *CTMGrid) CellLength() float64 { return g.cellLength }

// CriticalDensity is the density where the triangular fundamental diagram's
// two legs meet: rho_jam * w / (v_f + w).
func (g *CTMGrid) CriticalDensity() float64 { return g.criticalDensity }

// MaxFlow is the road capacity, Q_max = CriticalDensity * FreeFlowSpeed.
func (g *CTMGrid) MaxFlow() float64 { return g.maxFlow }

func (g *CTMGrid) maxVehiclesPerCell() float64 { return g.JamDensity * g.cellLength }

// sendingFlow is S(n) = min(n, Q_max*dt): a cell can send at most what it
// holds, capped by road capacity.
func (g *CTMGrid) sendingFlow(numVehicles, dt float64) float64 {
	return math.Min(numVehicles, g.maxFlow*dt)
}

// receivingFlow is R(n) = min(N_max-n, Q_max*dt): a cell can receive at most
// its remaining space, capped by road capacity.
func (g *CTMGrid) receivingFlow(numVehicles, dt float64) float64 {
	return math.Min(g.maxVehiclesPerCell()-numVehicles, g.maxFlow*dt)
}

// Update advances the grid by dt seconds, propagating min(sending,
// receiving) flow across each cell boundary under periodic conditions: the
// flow out of the last cell (flows[NumCells]) is also the flow into cell 0
// (flows[0]), so the total vehicle count is conserved.
func (g *CTMGrid) Update(dt float64) {
	n := g.NumCells
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		send := g.sendingFlow(g.numVehicles[i], dt)
		receive := g.receivingFlow(g.numVehicles[next], dt)
		g.flows[i+1] = math.Min(send, receive)
	}
	g.flows[0] = g.flows[n]

	maxVehicles := g.maxVehiclesPerCell()
	for i := 0; i < n; i++ {
		g.scratch[i] = clamp(g.numVehicles[i]+g.flows[i]-g.flows[i+1], 0, maxVehicles)
	}
	g.numVehicles, g.scratch = g.scratch, g.numVehicles
}

// SetNumVehicles clamps and sets the vehicle count of one cell.
func (g *CTMGrid) SetNumVehicles(cell int, numVehicles float64) {
	if cell < 0 || cell >= g.NumCells {
		return
	}
	g.numVehicles[cell] = clamp(numVehicles, 0, g.maxVehiclesPerCell())
}

// NumVehicles returns the vehicle count of one cell, or 0 if out of range.
func (g *CTMGrid) NumVehicles(cell int) float64 {
	if cell < 0 || cell >= g.NumCells {
		return 0
	}
	return g.numVehicles[cell]
}

// SetDensity sets a cell's density (vehicles/m), converting to the grid's
// native vehicle-count representation.
func (g *CTMGrid) SetDensity(cell int, density float64) {
	g.SetNumVehicles(cell, density*g.cellLength)
}

// Density returns a cell's density (vehicles/m).
func (g *CTMGrid) Density(cell int) float64 {
	return g.NumVehicles(cell) / g.cellLength
}

// SpeedFromDensity is the triangular fundamental diagram: free-flow speed
// below critical density; above it, w*(rho_jam-rho)/rho, so the flow
// follows the congested leg w*(rho_jam-rho) and both legs meet at
// (CriticalDensity, MaxFlow).
func (g *CTMGrid) SpeedFromDensity(density float64) float64 {
	if density < g.criticalDensity {
		return g.FreeFlowSpeed
	}
	if g.JamDensity <= g.criticalDensity {
		return 0
	}
	return g.WaveSpeed * (g.JamDensity - density) / density
}

// FlowFromDensity is q(rho) = rho * v(rho).
func (g *CTMGrid) FlowFromDensity(density float64) float64 {
	return density * g.SpeedFromDensity(density)
}

// Flow returns the flow at one cell.
func (g *CTMGrid) Flow(cell int) float64 { return g.FlowFromDensity(g.Density(cell)) }

// Speed returns the speed at one cell.
func (g *CTMGrid) Speed(cell int) float64 { return g.SpeedFromDensity(g.Density(cell)) }

// Densities returns the per-cell density (vehicles/m), recomputed from the
// grid's native vehicle counts into a reused buffer; callers must not retain
// it across a subsequent Update.
func (g *CTMGrid) Densities() []float64 {
	for i := range g.densityBuf {
		g.densityBuf[i] = g.Density(i)
	}
	return g.densityBuf
}

// InitializeFromVehicles loads g's grid from vehicles currently on a lane of
// length laneLength (micro -> macro transition).
func (g *CTMGrid) InitializeFromVehicles(vehicles []VehicleSample, laneLength float64) {
	initializeFromVehicles(g, vehicles, laneLength)
}

// GenerateVehicles reconstructs a plausible microscopic vehicle list from
// g's current grid (macro -> micro transition). See LWR.GenerateVehicles for
// the reconstruction rule; identical here, parameterized over gridDensity.
func (g *CTMGrid) GenerateVehicles(idPrefix string, vehicleLength float64) ([]VehicleSample, float64) {
	return generateVehicles(g, idPrefix, vehicleLength)
}
