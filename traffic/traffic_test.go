package traffic

import (
	"testing"

	"github.com/gildasmorvan/similar-go/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDMFreeFlowAcceleratesTowardDesiredSpeed(t *testing.T) {
	m := DefaultIDM()
	a := m.Acceleration(20, false, 0, 0)
	assert.Greater(t, a, 0.0, "below desired speed with no leader should accelerate")

	atDesired := m.Acceleration(m.DesiredSpeed, false, 0, 0)
	assert.InDelta(t, 0, atDesired, 1e-9, "at desired speed the free term vanishes")
}

func TestIDMDeceleratesWhenGapBelowDesired(t *testing.T) {
	m := DefaultIDM()
	closeGap := m.Acceleration(20, true, 3, 5)
	farGap := m.Acceleration(20, true, 200, 0)
	assert.Less(t, closeGap, farGap, "a tight closing gap must brake harder than a generous stationary gap")
}

func TestIDMPlusEmergencyBrakingFloorsAcceleration(t *testing.T) {
	base := DefaultIDM()
	plus := IDMPlus{IDM: base}

	// Gap well inside the critical zone, closing fast: emergency term must
	// dominate the smooth IDM interaction term.
	gap := 1.0
	rel := 10.0
	v := 20.0

	idmOnly := base.Acceleration(v, true, gap, rel)
	idmPlus := plus.Acceleration(v, true, gap, rel)
	assert.LessOrEqual(t, idmPlus, idmOnly)
}

func TestMOBILPrefersRightLaneWithBias(t *testing.T) {
	m := MOBIL{Politeness: 0, Threshold: 0.01, MaxSafeDecel: 4, RightLaneBias: 5}
	cf := DefaultIDM()

	self := VehiclePublic{Position: 100, Speed: 20, Length: 4}
	// Identical lanes (no leaders/followers): only the bias differs.
	left := LaneView{Exists: true, LaneID: "left"}
	right := LaneView{Exists: true, LaneID: "right"}

	dir := m.Decide(self, cf, nil, nil, nil, left, right)
	assert.Equal(t, ChangeRight, dir)
}

func TestMOBILRefusesUnsafeFollowerBraking(t *testing.T) {
	m := DefaultMOBIL()
	cf := IDM{DesiredSpeed: 30, TimeHeadway: 1.5, MinGap: 2, MaxAccel: 1, ComfortableDecel: 1.5, AccelExponent: 4}

	self := VehiclePublic{Position: 50, Speed: 25, Length: 4}
	dangerousFollower := VehiclePublic{Position: 49, Speed: 30, Length: 4}
	left := LaneView{Exists: true, LaneID: "left", Follower: &dangerousFollower, FollowerModel: cf}

	dir := m.Decide(self, cf, nil, nil, nil, left, LaneView{})
	assert.Equal(t, NoChange, dir, "a lane change that forces an unsafe follower braking must be refused")
}

func TestMOBILOldFollowerAdvantageAffectsIncentive(t *testing.T) {
	cf := DefaultIDM()
	self := VehiclePublic{Position: 100, Speed: 20, Length: 4}
	slowLeader := VehiclePublic{Position: 130, Speed: 5, Length: 4}
	closeFollower := VehiclePublic{Position: 95, Speed: 20, Length: 4}
	left := LaneView{Exists: true, LaneID: "left"}

	mPolite := MOBIL{Politeness: 1, Threshold: -1000, MaxSafeDecel: 100, RightLaneBias: 0}
	withoutFollower := mPolite.evaluate(self, cf, &slowLeader, nil, nil, left)
	withFollower := mPolite.evaluate(self, cf, &slowLeader, &closeFollower, cf, left)

	assert.NotEqual(t, withoutFollower, withFollower,
		"the old-follower term must change the scored advantage once politeness weighs it")
	assert.Greater(t, withFollower, withoutFollower,
		"a tailgating follower stuck behind self and a slow leader benefits when self leaves, raising the advantage")
}

func TestOrderingLeaderFollowerRingWrap(t *testing.T) {
	publics := map[kernel.AgentID]kernel.LocalState{
		"a": &VehiclePublic{LaneID: "ring", Position: 0, Length: 4},
		"b": &VehiclePublic{LaneID: "ring", Position: 50, Length: 4},
		"c": &VehiclePublic{LaneID: "ring", Position: 90, Length: 4},
	}
	order := BuildOrdering("ring", publics)

	leader, ok := order.Leader("c", true)
	require.True(t, ok)
	assert.Equal(t, kernel.AgentID("a"), leader, "ring lane wraps: leader of the last vehicle is the first")

	follower, ok := order.Follower("a", true)
	require.True(t, ok)
	assert.Equal(t, kernel.AgentID("c"), follower)
}

func TestReactorIntegratesPositionOnTick(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("v1", "microscopic",
		&VehiclePublic{LaneID: "L1", Position: 0, Speed: 10, Accel: 0, Length: 4},
		&VehiclePrivate{CarFollowing: DefaultIDM(), LaneChanging: DefaultMOBIL()}))

	topo := NewTopology()
	topo.AddLane(LaneSpec{ID: "L1", Length: 1000, Ring: true})

	r := Reactor{Topology: topo, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "microscopic", Store: store, Now: 0}

	require.NoError(t, r.React(ctx, []kernel.Influence{{Payload: kernel.AgentPositionUpdate{}}}, nil))

	pub, err := store.GetPublic("v1", "microscopic")
	require.NoError(t, err)
	vp := pub.(*VehiclePublic)
	assert.InDelta(t, 10.0, vp.Position, 1e-9)
}

func TestReactorClampsOverlapAfterIntegration(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("follower", "microscopic",
		&VehiclePublic{LaneID: "L1", Position: 0, Speed: 30, Accel: 0, Length: 4},
		&VehiclePrivate{CarFollowing: DefaultIDM(), LaneChanging: DefaultMOBIL()}))
	require.NoError(t, store.Include("leader", "microscopic",
		&VehiclePublic{LaneID: "L1", Position: 5, Speed: 1, Accel: 0, Length: 4},
		&VehiclePrivate{CarFollowing: DefaultIDM(), LaneChanging: DefaultMOBIL()}))

	topo := NewTopology()
	topo.AddLane(LaneSpec{ID: "L1", Length: 1000})
	r := Reactor{Topology: topo, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "microscopic", Store: store, Now: 0}

	require.NoError(t, r.React(ctx, []kernel.Influence{{Payload: kernel.AgentPositionUpdate{}}}, nil))

	followerPub, err := store.GetPublic("follower", "microscopic")
	require.NoError(t, err)
	leaderPub, err := store.GetPublic("leader", "microscopic")
	require.NoError(t, err)
	fp := followerPub.(*VehiclePublic)
	lp := leaderPub.(*VehiclePublic)

	assert.LessOrEqual(t, fp.Position, lp.Position-lp.Length+1e-9,
		"an unclamped 30 m/s step would put the follower through the leader's rear bumper")
	assert.LessOrEqual(t, fp.Speed, lp.Speed+1e-9, "a clamped follower is pulled down to its leader's speed")
}

func TestReactorNeverProducesNegativeSpeed(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("v1", "microscopic",
		&VehiclePublic{LaneID: "L1", Position: 0, Speed: 2, Length: 4},
		&VehiclePrivate{CarFollowing: DefaultIDM(), LaneChanging: DefaultMOBIL()}))

	topo := NewTopology()
	topo.AddLane(LaneSpec{ID: "L1", Length: 1000})
	r := Reactor{Topology: topo, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "microscopic", Store: store, Now: 0}

	regular := []kernel.Influence{{Payload: kernel.ChangeSpeed{Target: "v1", Ds: -100}}}
	require.NoError(t, r.React(ctx, nil, regular))

	pub, err := store.GetPublic("v1", "microscopic")
	require.NoError(t, err)
	assert.Equal(t, 0.0, pub.(*VehiclePublic).Speed)
}

func TestReactorStopOverridesChangeSpeedInSameReaction(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("v1", "microscopic",
		&VehiclePublic{LaneID: "L1", Position: 0, Speed: 10, Length: 4},
		&VehiclePrivate{CarFollowing: DefaultIDM(), LaneChanging: DefaultMOBIL()}))

	topo := NewTopology()
	topo.AddLane(LaneSpec{ID: "L1", Length: 1000})
	r := Reactor{Topology: topo, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "microscopic", Store: store, Now: 0}

	regular := []kernel.Influence{
		{Payload: kernel.ChangeSpeed{Target: "v1", Ds: 5}},
		{Payload: kernel.Stop{Target: "v1"}},
	}
	require.NoError(t, r.React(ctx, nil, regular))

	pub, err := store.GetPublic("v1", "microscopic")
	require.NoError(t, err)
	assert.Equal(t, 0.0, pub.(*VehiclePublic).Speed)
}

func TestReactorOrphanTargetDoesNotError(t *testing.T) {
	store := kernel.NewAgentStateStore()
	topo := NewTopology()
	r := Reactor{Topology: topo, Config: Config{DT: 1.0}}

	var notified bool
	ctx := kernel.ReactionContext{
		Level: "microscopic", Store: store, Now: 0,
		Observer: kernel.ObserverFunc(func(now kernel.TimeStamp, level kernel.LevelIdentifier, event kernel.ProbeEvent, detail string) {
			if event == kernel.EventOrphanTarget {
				notified = true
			}
		}),
	}

	regular := []kernel.Influence{{Payload: kernel.ChangeAcceleration{Target: "ghost", Da: 1}}}
	require.NoError(t, r.React(ctx, nil, regular))
	assert.True(t, notified)
}
