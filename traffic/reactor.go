package traffic

import (
	"math"
	"sort"

	"github.com/gildasmorvan/similar-go/kernel"
)

// Config tunes the microscopic reactor: DT is the simulated-time length of
// one microscopic reaction, in seconds.
type Config struct {
	DT float64 `yaml:"dt"`
}

// Reactor resolves a reaction's worth of influences against the
// microscopic level's vehicles, per spec §4.3's per-category conflict
// policy table: ChangeAcceleration is last-write-wins, ChangeSpeed and
// ChangePosition are additive (ChangePosition shifts the arc-length
// position by Dx; Dy is ignored), Stop overrides any ChangeSpeed in the same
// reaction, ChangeLane (domain-specific) is last-write-wins. On
// AgentPositionUpdate it integrates every vehicle's kinematics forward by
// Config.DT.
type Reactor struct {
	Topology *Topology
	Config   Config
}

// React implements kernel.LevelReactor.
func (r Reactor) React(ctx kernel.ReactionContext, system, regular []kernel.Influence) error {
	accel := make(map[kernel.AgentID]float64)
	speedDelta := make(map[kernel.AgentID]float64)
	positionDelta := make(map[kernel.AgentID]float64)
	stopped := make(map[kernel.AgentID]bool)
	laneChange := make(map[kernel.AgentID]string)

	for _, inf := range regular {
		switch p := inf.Payload.(type) {
		case kernel.ChangeAcceleration:
			if !ctx.Store.Contains(p.Target, ctx.Level) {
				r.orphan(ctx, "ChangeAcceleration", p.Target)
				continue
			}
			accel[p.Target] = p.Da
		case kernel.ChangeSpeed:
			if !ctx.Store.Contains(p.Target, ctx.Level) {
				r.orphan(ctx, "ChangeSpeed", p.Target)
				continue
			}
			speedDelta[p.Target] += p.Ds
		case kernel.ChangePosition:
			if !ctx.Store.Contains(p.Target, ctx.Level) {
				r.orphan(ctx, "ChangePosition", p.Target)
				continue
			}
			positionDelta[p.Target] += p.Dx
		case kernel.Stop:
			if !ctx.Store.Contains(p.Target, ctx.Level) {
				r.orphan(ctx, "Stop", p.Target)
				continue
			}
			stopped[p.Target] = true
		case ChangeLane:
			if !ctx.Store.Contains(p.Target, ctx.Level) {
				r.orphan(ctx, "ChangeLane", p.Target)
				continue
			}
			if p.ToLane != "" {
				laneChange[p.Target] = p.ToLane
			}
		}
	}

	ids := ctx.Store.AgentsInLevel(ctx.Level)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		pubState, err := ctx.Store.GetPublic(id, ctx.Level)
		if err != nil {
			continue
		}
		vp := pubState.(*VehiclePublic).Clone().(*VehiclePublic)

		if a, ok := accel[id]; ok {
			vp.Accel = a
		}
		if d, ok := speedDelta[id]; ok {
			vp.Speed += d
		}
		if stopped[id] {
			vp.Speed = 0
		}
		if dx, ok := positionDelta[id]; ok {
			vp.Position += dx
		}
		if lane, ok := laneChange[id]; ok {
			vp.LaneID = lane
		}
		if vp.Speed < 0 {
			vp.Speed = 0
		}

		if err := ctx.Store.SetPublic(id, ctx.Level, vp); err != nil {
			return err
		}
	}

	hasTick := false
	for _, inf := range system {
		if _, ok := inf.Payload.(kernel.AgentPositionUpdate); ok {
			hasTick = true
			break
		}
	}
	if !hasTick {
		return nil
	}

	integrated := make(map[kernel.AgentID]*VehiclePublic, len(ids))
	before := make(map[kernel.AgentID]float64, len(ids))
	for _, id := range ids {
		pubState, err := ctx.Store.GetPublic(id, ctx.Level)
		if err != nil {
			continue
		}
		vp := pubState.(*VehiclePublic).Clone().(*VehiclePublic)
		before[id] = vp.Position

		vp.Speed += vp.Accel * r.Config.DT
		if vp.Speed < 0 {
			vp.Speed = 0
		}
		vp.Position += vp.Speed * r.Config.DT

		if spec, ok := r.Topology.Lanes[vp.LaneID]; ok && spec.Ring && spec.Length > 0 {
			vp.Position = math.Mod(vp.Position, spec.Length)
			if vp.Position < 0 {
				vp.Position += spec.Length
			}
		}
		integrated[id] = vp
	}

	r.clampOverlaps(integrated, before)

	for _, id := range ids {
		vp, ok := integrated[id]
		if !ok {
			continue
		}
		if err := ctx.Store.SetPublic(id, ctx.Level, vp); err != nil {
			return err
		}
	}
	return nil
}

// clampOverlaps enforces spec §8's "no overlap" edge case after kinematic
// integration: IDM's repulsive term keeps gaps positive in the steady state,
// but a single large step (or a just-completed lane change onto a tighter
// gap) can still let one vehicle's integrated position pass its leader's
// rear bumper. Per lane, vehicles keep the order of their pre-integration
// positions (before), so a follower that integrated all the way past its
// leader is still treated as the follower. Front-to-back, each follower is
// pulled back to sit exactly on its leader's bumper rather than through it;
// the leader itself is never adjusted, so a clamp never cascades backward
// past who triggered it.
func (r Reactor) clampOverlaps(byID map[kernel.AgentID]*VehiclePublic, before map[kernel.AgentID]float64) {
	byLane := make(map[string][]kernel.AgentID)
	for id, vp := range byID {
		byLane[vp.LaneID] = append(byLane[vp.LaneID], id)
	}
	for laneID, laneIDs := range byLane {
		sort.Slice(laneIDs, func(i, j int) bool {
			return before[laneIDs[i]] < before[laneIDs[j]]
		})
		spec, known := r.Topology.Lanes[laneID]
		for i := len(laneIDs) - 2; i >= 0; i-- {
			follower := byID[laneIDs[i]]
			leader := byID[laneIDs[i+1]]
			limit := leader.Position - leader.Length
			if follower.Position > limit {
				follower.Position = limit
				if known && spec.Ring && spec.Length > 0 && follower.Position < 0 {
					follower.Position += spec.Length
				}
				if follower.Speed > leader.Speed {
					follower.Speed = leader.Speed
				}
			}
		}
	}
}

func (r Reactor) orphan(ctx kernel.ReactionContext, category string, target kernel.AgentID) {
	if ctx.Observer == nil {
		return
	}
	ctx.Observer.Notify(ctx.Now, ctx.Level, kernel.EventOrphanTarget, category+" targeted absent agent "+string(target))
}
