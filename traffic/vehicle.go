package traffic

import "github.com/gildasmorvan/similar-go/kernel"

// VehiclePublic is a vehicle's publicly perceivable kinematic state on the
// microscopic level: position along its lane's arc length, speed,
// acceleration, and current lane. Grounded on the original's
// kernel::model::Vehicle getters (getSpeed, getGapTo, getRelativeSpeedTo),
// flattened into the plain data spec §9's arena-with-stable-ids needs.
type VehiclePublic struct {
	LaneID   string
	Position float64 // arc length along the lane, meters
	Speed    float64 // m/s
	Accel    float64 // m/s^2
	Length   float64 // meters, for gap computation
}

// Clone returns a deep copy.
func (v *VehiclePublic) Clone() kernel.LocalState {
	cp := *v
	return &cp
}

// VehiclePrivate is a vehicle's own behavior parameters, not visible to
// other agents' perception.
type VehiclePrivate struct {
	CarFollowing CarFollowingModel
	LaneChanging MOBIL
}

// Clone returns a deep copy. CarFollowing and LaneChanging are value types
// so a struct copy already deep-copies them.
func (v *VehiclePrivate) Clone() kernel.LocalState {
	cp := *v
	return &cp
}

// CarFollowingModel is implemented by IDM and IDMPlus.
type CarFollowingModel interface {
	Acceleration(v float64, hasLeader bool, gap, relativeSpeed float64) float64
}

// Gap returns the bumper-to-bumper distance from follower to leader along a
// lane of the given length (wrapping if the lane is a ring), or the raw
// separation for a non-wrapping lane. A non-positive result means overlap.
func Gap(follower, leader VehiclePublic, laneLength float64, ring bool) float64 {
	d := leader.Position - follower.Position
	if ring {
		for d < 0 {
			d += laneLength
		}
	}
	return d - leader.Length
}
