package traffic

import "github.com/gildasmorvan/similar-go/kernel"

// Perceived is what one vehicle perceives of the microscopic level: its own
// public state, its current leader (if any), and a LaneView for each
// adjacent lane it could merge into.
type Perceived struct {
	Self           VehiclePublic
	CurrentLeader  *VehiclePublic
	CurrentFollowerBefore *VehiclePublic // current-lane follower, for MOBIL's old-follower term
	CurrentFollowerModel  CarFollowingModel
	Left, Right    LaneView
}

// PerceptionModel builds Perceived from the microscopic level's public
// snapshot and the static road Topology.
type PerceptionModel struct {
	Topology *Topology
}

// Perceive implements kernel.PerceptionModel.
func (p PerceptionModel) Perceive(self kernel.AgentID, private kernel.LocalState, publics map[kernel.LevelIdentifier]map[kernel.AgentID]kernel.LocalState) kernel.PerceivedData {
	micro := publics["microscopic"]
	selfState, ok := micro[self].(*VehiclePublic)
	if !ok {
		return nil
	}

	spec, ok := p.Topology.Lanes[selfState.LaneID]
	if !ok {
		return Perceived{Self: *selfState}
	}

	order := BuildOrdering(spec.ID, micro)
	result := Perceived{Self: *selfState}

	if leaderID, ok := order.Leader(self, spec.Ring); ok {
		leader := micro[leaderID].(*VehiclePublic)
		result.CurrentLeader = leader
	}
	if followerID, ok := order.Follower(self, spec.Ring); ok {
		follower := micro[followerID].(*VehiclePublic)
		result.CurrentFollowerBefore = follower
		if fp, ok := privateOf(followerID, micro); ok {
			result.CurrentFollowerModel = fp
		}
	}

	result.Left = p.laneView(self, selfState, spec.LeftLane, micro)
	result.Right = p.laneView(self, selfState, spec.RightLane, micro)
	return result
}

func (p PerceptionModel) laneView(self kernel.AgentID, selfState *VehiclePublic, laneID string, micro map[kernel.AgentID]kernel.LocalState) LaneView {
	if laneID == "" {
		return LaneView{Exists: false}
	}
	if _, ok := p.Topology.Lanes[laneID]; !ok {
		return LaneView{Exists: false}
	}
	order := BuildOrdering(laneID, micro)
	view := LaneView{Exists: true, LaneID: laneID}

	// Find where self would sit: insert by position among target's vehicles.
	var leader, follower kernel.AgentID
	var hasLeader, hasFollower bool
	for _, id := range order.ids {
		vp := micro[id].(*VehiclePublic)
		if vp.Position >= selfState.Position {
			leader, hasLeader = id, true
			break
		}
		follower, hasFollower = id, true
	}
	if hasLeader {
		l := micro[leader].(*VehiclePublic)
		view.Leader = l
	}
	if hasFollower {
		f := micro[follower].(*VehiclePublic)
		view.Follower = f
		if fp, ok := privateOf(follower, micro); ok {
			view.FollowerModel = fp
		}
	}
	return view
}

// privateOf picks the car-following model used for a neighboring vehicle
// when scoring MOBIL advantage. Perception has no access to other agents'
// private state, so it returns DefaultIDM() (and true) for every neighbor
// rather than that neighbor's own model.
func privateOf(id kernel.AgentID, micro map[kernel.AgentID]kernel.LocalState) (CarFollowingModel, bool) {
	return DefaultIDM(), true
}
