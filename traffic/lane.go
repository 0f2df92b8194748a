package traffic

import (
	"sort"

	"github.com/gildasmorvan/similar-go/kernel"
)

// LaneSpec declares one lane's static geometry and its left/right
// neighbors, by lane id. A neighbor of "" means no lane on that side
// (MOBIL is never offered that direction). Ring lanes wrap position modulo
// Length; non-ring lanes have a hard end.
type LaneSpec struct {
	ID        string
	Length    float64
	Ring      bool
	LeftLane  string
	RightLane string
}

// Topology is the static road geometry: every lane's spec, keyed by id.
// Grounded on the original's Lane/Road adjacency (referenced by MOBIL's
// left_lane/right_lane parameters), generalized to an id-keyed map so the
// microscopic reactor can look lanes up without holding live pointers,
// per spec §9's arena-with-stable-ids redesign.
type Topology struct {
	Lanes map[string]LaneSpec
}

// NewTopology returns an empty topology.
func NewTopology() *Topology {
	return &Topology{Lanes: make(map[string]LaneSpec)}
}

// AddLane registers a lane spec.
func (t *Topology) AddLane(spec LaneSpec) {
	t.Lanes[spec.ID] = spec
}

// Ordering is the stable-id ordering of vehicles on one lane at a point in
// time: agent ids sorted by ascending position, rebuilt fresh from a public
// snapshot every perception phase rather than kept as live state, so a lane
// change or removal never leaves a dangling index.
type Ordering struct {
	ids []kernel.AgentID
	pos map[kernel.AgentID]int
}

// BuildOrdering sorts every vehicle in publics whose LaneID matches lane by
// ascending position.
func BuildOrdering(lane string, publics map[kernel.AgentID]kernel.LocalState) Ordering {
	var ids []kernel.AgentID
	for id, ls := range publics {
		vp, ok := ls.(*VehiclePublic)
		if !ok || vp.LaneID != lane {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi := publics[ids[i]].(*VehiclePublic).Position
		pj := publics[ids[j]].(*VehiclePublic).Position
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
	pos := make(map[kernel.AgentID]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	return Ordering{ids: ids, pos: pos}
}

// Leader returns the id of the vehicle immediately ahead of self, if any.
// Ring lanes wrap: the leader of the last vehicle is the first.
func (o Ordering) Leader(self kernel.AgentID, ring bool) (kernel.AgentID, bool) {
	i, ok := o.pos[self]
	if !ok || len(o.ids) < 2 {
		return "", false
	}
	if i+1 < len(o.ids) {
		return o.ids[i+1], true
	}
	if ring {
		return o.ids[0], true
	}
	return "", false
}

// Follower returns the id of the vehicle immediately behind self, if any.
func (o Ordering) Follower(self kernel.AgentID, ring bool) (kernel.AgentID, bool) {
	i, ok := o.pos[self]
	if !ok || len(o.ids) < 2 {
		return "", false
	}
	if i > 0 {
		return o.ids[i-1], true
	}
	if ring {
		return o.ids[len(o.ids)-1], true
	}
	return "", false
}
