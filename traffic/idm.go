// Package traffic implements the microscopic level: vehicles, lanes, the
// IDM car-following model, and the MOBIL lane-changing model, composed as
// kernel.DMS decision sub-models reacted by a kernel.LevelReactor.
package traffic

import "math"

// IDM is the Intelligent Driver Model for car-following. Grounded on
// jamfree's IDM (original_source/cpp/jamfree/microscopic/include/IDM.h);
// Treiber, Hennecke & Helbing (2000), "Congested traffic states in
// empirical observations and microscopic simulations," Physical Review E
// 62(2), 1805.
type IDM struct {
	DesiredSpeed      float64 // v0, m/s
	TimeHeadway       float64 // T, s
	MinGap            float64 // s0, m
	MaxAccel          float64 // a, m/s^2
	ComfortableDecel  float64 // b, m/s^2
	AccelExponent     float64 // delta
}

// DefaultIDM returns the IDM parameter set used by the original reference
// (120 km/h free speed, 1.5s headway).
func DefaultIDM() IDM {
	return IDM{
		DesiredSpeed:     33.3,
		TimeHeadway:      1.5,
		MinGap:           2.0,
		MaxAccel:         1.0,
		ComfortableDecel: 1.5,
		AccelExponent:    4.0,
	}
}

// DesiredGap returns s*, the desired gap at the given speed and relative
// speed to the leader (closing speed positive). Not clamped to 0: a large
// negative closing speed (leader pulling away fast) can drive s* negative,
// same as upstream IDM.h, which leaves the interaction term to shrink
// accordingly rather than floor s* itself.
func (m IDM) DesiredGap(speed, relativeSpeed float64) float64 {
	interaction := speed * relativeSpeed / (2.0 * math.Sqrt(m.MaxAccel*m.ComfortableDecel))
	return m.MinGap + speed*m.TimeHeadway + interaction
}

// Acceleration returns the IDM acceleration for a vehicle at speed v with
// gap s to a leader closing at relativeSpeed. hasLeader=false evaluates the
// free-flow term only.
func (m IDM) Acceleration(v float64, hasLeader bool, gap, relativeSpeed float64) float64 {
	free := m.MaxAccel * (1.0 - math.Pow(v/m.DesiredSpeed, m.AccelExponent))
	if !hasLeader {
		return free
	}
	sStar := m.DesiredGap(v, relativeSpeed)
	interaction := -m.MaxAccel * square(sStar/gap)
	return free + interaction
}

func square(x float64) float64 { return x * x }

// IDMPlus adds an emergency-braking term to IDM to avoid collisions in
// critical gaps, per the original's IDMPlus subclass.
type IDMPlus struct {
	IDM
}

// Acceleration overrides IDM.Acceleration with the emergency-braking floor.
func (m IDMPlus) Acceleration(v float64, hasLeader bool, gap, relativeSpeed float64) float64 {
	base := m.IDM.Acceleration(v, hasLeader, gap, relativeSpeed)
	if !hasLeader {
		return base
	}
	sCrit := m.MinGap + v*m.TimeHeadway
	if gap < sCrit && relativeSpeed > 0 {
		emergency := -m.ComfortableDecel * (sCrit - gap) / sCrit
		return math.Min(base, emergency)
	}
	return base
}
