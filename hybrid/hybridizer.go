package hybrid

import (
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MacroGrid is the macroscopic density-grid abstraction the hybridizer
// switches a lane onto: LWR (Godunov/Greenshields) or CTMGrid (Daganzo
// cell-transmission), selected per Config.GridKind.
type MacroGrid interface {
	CellLength() float64
	Cells() int
	SetDensity(cell int, density float64)
	Density(cell int) float64
	Densities() []float64
	SpeedFromDensity(density float64) float64
	Update(dt float64)
	InitializeFromVehicles(vehicles []VehicleSample, laneLength float64)
	GenerateVehicles(idPrefix string, vehicleLength float64) ([]VehicleSample, float64)
}

// GridKind selects which MacroGrid implementation a lane transitions onto.
type GridKind int

const (
	// GridLWR: Godunov scheme on the Greenshields fundamental diagram.
	GridLWR GridKind = iota
	// GridCTM: Daganzo's cell transmission model (triangular diagram).
	GridCTM
)

// Mode is a lane's current simulation regime.
type Mode int

const (
	// ModeMicro: individual vehicles are tracked.
	ModeMicro Mode = iota
	// ModeMacro: the lane is represented as a continuum density.
	ModeMacro
	// ModeTransitioning: a switch is in progress this tick.
	ModeTransitioning
)

func (m Mode) String() string {
	switch m {
	case ModeMicro:
		return "micro"
	case ModeMacro:
		return "macro"
	case ModeTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// Config tunes the hybridizer's switching thresholds, grounded on
// jamfree's AdaptiveSimulator::Config (original_source/cpp/jamfree/hybrid/
// include/AdaptiveSimulator.h).
type Config struct {
	MicroToMacroDensity float64 `yaml:"micro_to_macro_density"`
	MacroToMicroDensity float64 `yaml:"macro_to_micro_density"`
	MicroToMacroCount   int     `yaml:"micro_to_macro_count"`
	MacroToMicroCount   int     `yaml:"macro_to_micro_count"`
	MaxMicroTimeMS      float64 `yaml:"max_micro_time_ms"`
	MacroNumCells       int     `yaml:"macro_num_cells"`
	HysteresisFactor    float64 `yaml:"hysteresis_factor"`
	MinTicksBetweenSwitches int64 `yaml:"min_ticks_between_switches"`
	// SpeedupFactorK is the per-macro-lane equivalent-microscopic-time
	// weight in Statistics.SpeedupFactor: AdaptiveSimulator.cpp:302-305
	// hardcodes 50 (macro assumed ~50x cheaper to step than micro).
	SpeedupFactorK float64 `yaml:"speedup_factor_k"`
	// GridKind selects the MacroGrid a lane transitions onto: GridLWR
	// (default) or GridCTM.
	GridKind GridKind `yaml:"grid_kind"`
	// WaveSpeed is CTMGrid's backward congestion-wave speed; unused by LWR.
	WaveSpeed float64 `yaml:"wave_speed"`
}

// DefaultConfig returns the threshold set used by the original reference.
func DefaultConfig() Config {
	return Config{
		MicroToMacroDensity:     0.08,
		MacroToMicroDensity:     0.04,
		MicroToMacroCount:       50,
		MacroToMicroCount:       20,
		MaxMicroTimeMS:          10.0,
		MacroNumCells:           50,
		HysteresisFactor:        1.2,
		SpeedupFactorK:          50.0,
		MinTicksBetweenSwitches: 30,
		GridKind:                GridLWR,
		WaveSpeed:               5.56,
	}
}

// LaneState tracks one lane's current mode and the metrics the switching
// decision and Statistics reporting need.
type LaneState struct {
	LaneID              string
	LaneLength          float64
	VehicleLength       float64
	Mode                Mode
	Forced              bool // true once pinned: no automatic switching
	CriticalArea        bool // true for intersections/ramps: never auto-switches
	Grid                MacroGrid
	Density             float64
	VehicleCount        int
	LastUpdateTimeMS    float64
	TicksSinceTransition int64
}

// Hybridizer owns one Config and the per-lane LaneState registry. Grounded
// on jamfree's AdaptiveSimulator (original_source/cpp/jamfree/hybrid/
// include/AdaptiveSimulator.h, src/AdaptiveSimulator.cpp), restructured
// around the explicit VehicleSample conversion boundary instead of live
// Lane/Vehicle pointers, consistent with spec §9's arena-with-stable-ids.
type Hybridizer struct {
	Config Config
	lanes  map[string]*LaneState
	log    logrus.FieldLogger
}

// NewHybridizer returns a Hybridizer with cfg's thresholds. log may be nil,
// in which case the standard logrus logger is used for transition messages.
func NewHybridizer(cfg Config, log logrus.FieldLogger) *Hybridizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hybridizer{Config: cfg, lanes: make(map[string]*LaneState), log: log}
}

// RegisterLane adds a lane, starting in microscopic mode, optionally pinned
// as a critical area that never auto-switches.
func (h *Hybridizer) RegisterLane(laneID string, laneLength, vehicleLength float64, critical bool) {
	h.lanes[laneID] = &LaneState{
		LaneID:        laneID,
		LaneLength:    laneLength,
		VehicleLength: vehicleLength,
		Mode:          ModeMicro,
		CriticalArea:  critical,
	}
}

// Mode returns the current mode of a lane, or ModeMicro with ok=false if
// unregistered.
func (h *Hybridizer) Mode(laneID string) (Mode, bool) {
	s, ok := h.lanes[laneID]
	if !ok {
		return ModeMicro, false
	}
	return s.Mode, true
}

// LaneState returns the full tracked state for a lane.
func (h *Hybridizer) LaneState(laneID string) (*LaneState, bool) {
	s, ok := h.lanes[laneID]
	return s, ok
}

// PinMicro forces a lane into microscopic mode and stops automatic
// switching, converting its density grid back to vehicles if it was macro.
// Returns the generated vehicles (empty if the lane was already micro).
func (h *Hybridizer) PinMicro(laneID string) []VehicleSample {
	s, ok := h.lanes[laneID]
	if !ok {
		return nil
	}
	var out []VehicleSample
	if s.Mode == ModeMacro {
		out = h.transitionToMicro(s)
	}
	s.Forced = true
	return out
}

// PinMacro forces a lane into macroscopic mode and stops automatic
// switching. vehicles supplies the microscopic state to fold into the
// density grid if the lane was micro.
func (h *Hybridizer) PinMacro(laneID string, vehicles []VehicleSample) {
	s, ok := h.lanes[laneID]
	if !ok {
		return
	}
	if s.Mode == ModeMicro {
		h.transitionToMacro(s, vehicles)
	}
	s.Forced = true
}

// Unpin re-enables automatic mode switching for a lane.
func (h *Hybridizer) Unpin(laneID string) {
	if s, ok := h.lanes[laneID]; ok {
		s.Forced = false
	}
}

// UpdateMicroMetrics records a lane's measured density, vehicle count, and
// elapsed wall-clock update time while it is in microscopic mode. Call this
// once per tick before Evaluate.
func (h *Hybridizer) UpdateMicroMetrics(laneID string, vehicles []VehicleSample, elapsed time.Duration) {
	s, ok := h.lanes[laneID]
	if !ok {
		return
	}
	s.VehicleCount = len(vehicles)
	if s.LaneLength > 0 {
		s.Density = float64(len(vehicles)) / s.LaneLength
	}
	s.LastUpdateTimeMS = float64(elapsed.Microseconds()) / 1000.0
}

// Evaluate checks whether laneID should switch modes this tick and performs
// the transition if so, returning the vehicles to adopt into the caller's
// store when switching to micro (nil otherwise). currentVehicles is only
// consulted when a micro->macro switch occurs.
func (h *Hybridizer) Evaluate(laneID string, currentVehicles []VehicleSample) (switched bool, toMicroVehicles []VehicleSample) {
	s, ok := h.lanes[laneID]
	if !ok {
		return false, nil
	}
	s.TicksSinceTransition++

	if !h.shouldSwitch(s) {
		return false, nil
	}

	switch s.Mode {
	case ModeMicro:
		h.transitionToMacro(s, currentVehicles)
		return true, nil
	case ModeMacro:
		vehicles := h.transitionToMicro(s)
		return true, vehicles
	}
	return false, nil
}

func (h *Hybridizer) shouldSwitch(s *LaneState) bool {
	if s.CriticalArea || s.Forced {
		return false
	}
	if s.TicksSinceTransition < h.Config.MinTicksBetweenSwitches {
		return false
	}

	switch s.Mode {
	case ModeMicro:
		highDensity := s.Density > h.Config.MicroToMacroDensity
		tooMany := s.VehicleCount > h.Config.MicroToMacroCount
		slow := s.LastUpdateTimeMS > h.Config.MaxMicroTimeMS
		return highDensity || tooMany || slow
	case ModeMacro:
		lowDensity := s.Density < h.Config.MacroToMicroDensity/h.Config.HysteresisFactor
		few := s.VehicleCount < h.Config.MacroToMicroCount
		return lowDensity && few
	default:
		return false
	}
}

func (h *Hybridizer) transitionToMacro(s *LaneState, vehicles []VehicleSample) {
	h.log.WithFields(logrus.Fields{"lane": s.LaneID, "density": s.Density, "vehicles": len(vehicles)}).
		Debug("hybridizer: transitioning lane to macroscopic")

	s.Grid = h.newGrid(s.LaneLength)
	s.Grid.InitializeFromVehicles(vehicles, s.LaneLength)
	s.Mode = ModeMacro
	s.TicksSinceTransition = 0
}

// newGrid returns a fresh MacroGrid of the configured kind for a lane of the
// given length.
func (h *Hybridizer) newGrid(laneLength float64) MacroGrid {
	switch h.Config.GridKind {
	case GridCTM:
		return NewCTMGrid(33.3, h.Config.WaveSpeed, 0.15, laneLength, h.Config.MacroNumCells)
	default:
		return NewLWR(33.3, 0.15, laneLength, h.Config.MacroNumCells)
	}
}

func (h *Hybridizer) transitionToMicro(s *LaneState) []VehicleSample {
	if s.Grid == nil {
		h.log.WithField("lane", s.LaneID).Warn("hybridizer: no density grid to transition from")
		return nil
	}
	vehicles, exact := s.Grid.GenerateVehicles(s.LaneID, s.VehicleLength)
	if err := RoundingError(exact, len(vehicles)); err > 0.5 {
		h.log.WithFields(logrus.Fields{"lane": s.LaneID, "exact": exact, "generated": len(vehicles)}).
			Warn("hybridizer: conversion_underflow, vehicle count rounded")
	}

	h.log.WithFields(logrus.Fields{"lane": s.LaneID, "vehicles": len(vehicles)}).
		Debug("hybridizer: transitioning lane to microscopic")

	s.Mode = ModeMicro
	s.Grid = nil
	s.TicksSinceTransition = 0
	return vehicles
}

// UpdateMacro advances a macro-mode lane's density grid by dt seconds.
func (h *Hybridizer) UpdateMacro(laneID string, dt float64) {
	s, ok := h.lanes[laneID]
	if !ok || s.Mode != ModeMacro || s.Grid == nil {
		return
	}
	s.Grid.Update(dt)

	total := floats.Sum(s.Grid.Densities()) * s.Grid.CellLength()
	s.VehicleCount = int(total + 0.5)
	if s.LaneLength > 0 {
		s.Density = total / s.LaneLength
	}
}

// Statistics is the hybridizer's aggregate snapshot across every registered
// lane, per AdaptiveSimulator::Statistics.
type Statistics struct {
	TotalLanes          int
	MicroLanes          int
	MacroLanes          int
	TransitioningLanes  int
	TotalVehicles       int
	AvgDensity          float64
	TotalUpdateTimeMS   float64
	SpeedupFactor       float64
}

// Statistics aggregates current per-lane metrics. SpeedupFactor estimates
// how much faster the hybrid run is than an all-microscopic equivalent:
// (micro_lanes + k*macro_lanes) / total_lanes, per
// AdaptiveSimulator.cpp:302-305 (k is Config.SpeedupFactorK, default 50 --
// macro lanes cost about 1/k the wall-clock time of a micro lane).
func (h *Hybridizer) Statistics() Statistics {
	var stats Statistics
	densities := make([]float64, 0, len(h.lanes))

	for _, s := range h.lanes {
		stats.TotalLanes++
		stats.TotalVehicles += s.VehicleCount
		densities = append(densities, s.Density)
		stats.TotalUpdateTimeMS += s.LastUpdateTimeMS

		switch s.Mode {
		case ModeMicro:
			stats.MicroLanes++
		case ModeMacro:
			stats.MacroLanes++
		case ModeTransitioning:
			stats.TransitioningLanes++
		}
	}

	if stats.TotalLanes > 0 {
		stats.AvgDensity = stat.Mean(densities, nil)
		equivalentMicroTime := float64(stats.MicroLanes) + float64(stats.MacroLanes)*h.Config.SpeedupFactorK
		stats.SpeedupFactor = equivalentMicroTime / float64(stats.TotalLanes)
	} else {
		stats.SpeedupFactor = 1.0
	}
	return stats
}
