package hybrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreenshieldsSpeedZeroAtJamDensity(t *testing.T) {
	l := NewLWR(30, 0.15, 1000, 10)
	assert.Equal(t, 0.0, l.SpeedFromDensity(0.15))
	assert.Equal(t, 0.0, l.SpeedFromDensity(0.2))
	assert.InDelta(t, 30, l.SpeedFromDensity(0), 1e-9)
}

func TestCriticalDensityIsHalfJamDensity(t *testing.T) {
	l := NewLWR(30, 0.15, 1000, 10)
	assert.InDelta(t, 0.075, l.CriticalDensity(), 1e-9)
	assert.Greater(t, l.MaxFlow(), 0.0)
}

func TestLWRUpdateConservesMassOnPeriodicGrid(t *testing.T) {
	l := NewLWR(30, 0.15, 1000, 20)
	for i := 0; i < 20; i++ {
		l.SetDensity(i, 0.05)
	}
	before := sum(l.Densities())
	l.Update(1.0)
	after := sum(l.Densities())
	assert.InDelta(t, before, after, 1e-9, "uniform density is a fixed point of the Godunov update")
}

func TestLWRDensityNeverExceedsJamOrGoesNegative(t *testing.T) {
	l := NewLWR(30, 0.15, 1000, 10)
	l.SetDensity(5, 0.15)
	for i := 0; i < 50; i++ {
		l.Update(0.5)
		for _, d := range l.Densities() {
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 0.15)
		}
	}
}

func TestExtractDensityProfileCountsVehiclesPerCell(t *testing.T) {
	vehicles := []VehicleSample{
		{ID: "a", Position: 5}, {ID: "b", Position: 15}, {ID: "c", Position: 16},
	}
	profile := ExtractDensityProfile(vehicles, 100, 10)
	assert.InDelta(t, 0.1, profile[0], 1e-9, "cell length is 10m, one vehicle -> 1/10")
	assert.InDelta(t, 0.2, profile[1], 1e-9, "two vehicles in the second cell")
}

func TestConversionRoundTripApproximatelyConservesCount(t *testing.T) {
	var vehicles []VehicleSample
	for i := 0; i < 40; i++ {
		vehicles = append(vehicles, VehicleSample{ID: "v", Position: float64(i) * 10, Speed: 20, Length: 4})
	}
	l := NewLWR(30, 0.15, 500, 50)
	l.InitializeFromVehicles(vehicles, 500)

	generated, exact := l.GenerateVehicles("regen", 4)
	assert.InDelta(t, float64(len(vehicles)), exact, 1e-6, "exact mass must match the original vehicle count")
	assert.InDelta(t, len(vehicles), len(generated), 3, "rounding per cell must not drift the total by more than a few vehicles")
}

func TestCTMSpeedZeroAtJamDensity(t *testing.T) {
	g := NewCTMGrid(30, 5, 0.15, 1000, 10)
	assert.Equal(t, 0.0, g.SpeedFromDensity(0.15))
	assert.InDelta(t, 30, g.SpeedFromDensity(0), 1e-9)
}

func TestCTMUpdateKeepsVehicleCountsWithinCellCapacity(t *testing.T) {
	g := NewCTMGrid(30, 5, 0.15, 1000, 10)
	g.SetDensity(3, 0.15)
	maxPerCell := 0.15 * g.CellLength()
	for i := 0; i < 50; i++ {
		g.Update(0.5)
		for j := 0; j < g.Cells(); j++ {
			assert.GreaterOrEqual(t, g.NumVehicles(j), 0.0)
			assert.LessOrEqual(t, g.NumVehicles(j), maxPerCell+1e-9)
		}
	}
}

func TestCTMConversionRoundTripApproximatelyConservesCount(t *testing.T) {
	var vehicles []VehicleSample
	for i := 0; i < 40; i++ {
		vehicles = append(vehicles, VehicleSample{ID: "v", Position: float64(i) * 10, Speed: 20, Length: 4})
	}
	g := NewCTMGrid(30, 5, 0.15, 500, 50)
	g.InitializeFromVehicles(vehicles, 500)

	generated, exact := g.GenerateVehicles("regen", 4)
	assert.InDelta(t, float64(len(vehicles)), exact, 1e-6, "exact mass must match the original vehicle count")
	assert.InDelta(t, len(vehicles), len(generated), 3, "rounding per cell must not drift the total by more than a few vehicles")
}

func TestHybridizerGridKindSelectsCTM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTicksBetweenSwitches = 0
	cfg.GridKind = GridCTM
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("L1", 1000, 4, false)

	var vehicles []VehicleSample
	for i := 0; i < 100; i++ {
		vehicles = append(vehicles, VehicleSample{ID: "v", Position: float64(i) * 10, Speed: 10})
	}
	h.UpdateMicroMetrics("L1", vehicles, time.Millisecond)
	switched, _ := h.Evaluate("L1", vehicles)
	require.True(t, switched)

	_, isCTM := h.lanes["L1"].Grid.(*CTMGrid)
	assert.True(t, isCTM, "GridKind: GridCTM must transition lanes onto a *CTMGrid")
}

func TestHybridizerSwitchesToMacroAboveDensityThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTicksBetweenSwitches = 0
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("L1", 1000, 4, false)

	var vehicles []VehicleSample
	for i := 0; i < 100; i++ {
		vehicles = append(vehicles, VehicleSample{ID: "v", Position: float64(i) * 10, Speed: 10})
	}
	h.UpdateMicroMetrics("L1", vehicles, time.Millisecond)

	switched, _ := h.Evaluate("L1", vehicles)
	require.True(t, switched)
	mode, _ := h.Mode("L1")
	assert.Equal(t, ModeMacro, mode)
}

func TestHybridizerHysteresisRequiresLowerThresholdToReturnToMicro(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTicksBetweenSwitches = 0
	cfg.MacroToMicroDensity = 0.04
	cfg.HysteresisFactor = 2.0
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("L1", 1000, 4, false)
	h.lanes["L1"].Mode = ModeMacro
	h.lanes["L1"].Grid = NewLWR(30, 0.15, 1000, 10)
	h.lanes["L1"].Density = 0.03 // below MacroToMicroDensity but above MacroToMicroDensity/factor
	h.lanes["L1"].VehicleCount = 5

	switched, _ := h.Evaluate("L1", nil)
	assert.False(t, switched, "density must fall below threshold/hysteresis_factor, not just below threshold")

	h.lanes["L1"].Density = 0.01
	h.lanes["L1"].TicksSinceTransition = 0
	switched, vehicles := h.Evaluate("L1", nil)
	assert.True(t, switched)
	assert.NotNil(t, vehicles)
}

func TestHybridizerCriticalAreaNeverAutoSwitches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTicksBetweenSwitches = 0
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("ramp", 1000, 4, true)

	var vehicles []VehicleSample
	for i := 0; i < 200; i++ {
		vehicles = append(vehicles, VehicleSample{ID: "v", Position: float64(i) * 5, Speed: 10})
	}
	h.UpdateMicroMetrics("ramp", vehicles, time.Millisecond)
	switched, _ := h.Evaluate("ramp", vehicles)
	assert.False(t, switched)
}

func TestHybridizerPinMicroForcesModeAndStopsSwitching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTicksBetweenSwitches = 0
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("L1", 1000, 4, false)
	h.lanes["L1"].Mode = ModeMacro
	h.lanes["L1"].Grid = NewLWR(30, 0.15, 1000, 10)
	h.lanes["L1"].Grid.SetDensity(0, 0.05)

	vehicles := h.PinMicro("L1")
	mode, _ := h.Mode("L1")
	assert.Equal(t, ModeMicro, mode)
	assert.NotNil(t, vehicles)

	h.lanes["L1"].Density = 1.0
	h.lanes["L1"].VehicleCount = 1000
	h.lanes["L1"].LastUpdateTimeMS = 1000
	switched, _ := h.Evaluate("L1", vehicles)
	assert.False(t, switched, "pinned lane must not auto-switch even under extreme load")
}

func TestStatisticsAveragesDensityAcrossLanes(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("L1", 1000, 4, false)
	h.RegisterLane("L2", 1000, 4, false)
	h.lanes["L1"].Density = 0.02
	h.lanes["L2"].Density = 0.06

	stats := h.Statistics()
	assert.Equal(t, 2, stats.TotalLanes)
	assert.InDelta(t, 0.04, stats.AvgDensity, 1e-9)
}

func TestSpeedupFactorUsesLaneCountFormula(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHybridizer(cfg, nil)
	h.RegisterLane("L1", 1000, 4, false)
	h.RegisterLane("L2", 1000, 4, false)
	h.RegisterLane("L3", 1000, 4, false)
	h.lanes["L1"].Mode = ModeMicro
	h.lanes["L2"].Mode = ModeMacro
	h.lanes["L3"].Mode = ModeMacro

	stats := h.Statistics()
	// (1 micro + 2 macro*50) / 3 total, per AdaptiveSimulator.cpp:302-305.
	assert.InDelta(t, (1.0+2.0*50.0)/3.0, stats.SpeedupFactor, 1e-9)
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
