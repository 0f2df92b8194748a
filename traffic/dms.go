package traffic

import "github.com/gildasmorvan/similar-go/kernel"

// ForwardAccelerationDMS is the car-following decision sub-model: it always
// handles the situation, emitting a ChangeAcceleration toward the target
// acceleration its CarFollowingModel computes against the perceived leader.
type ForwardAccelerationDMS struct{}

// Decide implements kernel.DMS.
func (ForwardAccelerationDMS) Decide(self kernel.AgentID, private kernel.LocalState, perceivedData kernel.PerceivedData) (bool, []kernel.Influence) {
	priv, ok := private.(*VehiclePrivate)
	if !ok {
		return false, nil
	}
	perceived, ok := perceivedData.(Perceived)
	if !ok {
		return false, nil
	}

	var accel float64
	if perceived.CurrentLeader != nil {
		gap := Gap(perceived.Self, *perceived.CurrentLeader, 0, false)
		rel := perceived.Self.Speed - perceived.CurrentLeader.Speed
		accel = priv.CarFollowing.Acceleration(perceived.Self.Speed, true, gap, rel)
	} else {
		accel = priv.CarFollowing.Acceleration(perceived.Self.Speed, false, 0, 0)
	}

	return true, []kernel.Influence{{
		Category: "forward_acceleration",
		Payload:  kernel.ChangeAcceleration{Target: self, Da: accel},
	}}
}

// LaneChangeDMS is the MOBIL lane-changing decision sub-model: it handles
// the situation only when a change is warranted, emitting a ChangeLane.
type LaneChangeDMS struct{}

// Decide implements kernel.DMS.
func (LaneChangeDMS) Decide(self kernel.AgentID, private kernel.LocalState, perceivedData kernel.PerceivedData) (bool, []kernel.Influence) {
	priv, ok := private.(*VehiclePrivate)
	if !ok {
		return false, nil
	}
	perceived, ok := perceivedData.(Perceived)
	if !ok {
		return false, nil
	}

	direction := priv.LaneChanging.Decide(perceived.Self, priv.CarFollowing, perceived.CurrentLeader,
		perceived.CurrentFollowerBefore, perceived.CurrentFollowerModel, perceived.Left, perceived.Right)

	var laneID string
	switch direction {
	case ChangeLeft:
		laneID = perceived.Left.LaneID
	case ChangeRight:
		laneID = perceived.Right.LaneID
	default:
		return false, nil
	}

	return true, []kernel.Influence{{
		Category: "lane_change",
		Payload:  ChangeLane{Target: self, ToLane: laneID},
	}}
}
