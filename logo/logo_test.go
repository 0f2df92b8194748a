package logo

import (
	"math"
	"testing"

	"github.com/gildasmorvan/similar-go/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPheromoneSetAndGetRoundsToCell(t *testing.T) {
	env := NewEnvironment(10, 10, false)
	env.AddPheromone("trail", 0, 0, 0, 0.01)

	env.SetPheromone(2.4, 2.6, "trail", 5)
	assert.Equal(t, 5.0, env.PheromoneValue(2, 3, "trail"))
}

func TestPheromoneToroidalWrap(t *testing.T) {
	env := NewEnvironment(10, 10, true)
	env.AddPheromone("trail", 0, 0, 0, 0.01)

	env.SetPheromone(-1, -1, "trail", 3)
	assert.Equal(t, 3.0, env.PheromoneValue(9, 9, "trail"))
}

func TestPheromoneNonToroidalClamp(t *testing.T) {
	env := NewEnvironment(10, 10, false)
	env.AddPheromone("trail", 0, 0, 0, 0.01)

	env.SetPheromone(-5, 50, "trail", 3)
	assert.Equal(t, 3.0, env.PheromoneValue(0, 9, "trail"))
}

func TestEvaporationDecaysAndSnapsToZeroBelowMinValue(t *testing.T) {
	env := NewEnvironment(10, 10, false)
	env.AddPheromone("trail", 0, 0.5, 0, 0.05)
	env.SetPheromone(5, 5, "trail", 0.08)

	env.DiffuseAndEvaporate(1.0)
	assert.Equal(t, 0.0, env.PheromoneValue(5, 5, "trail"), "0.08 - 0.5*0.08 = 0.04 < min_value, snaps to 0")
}

func TestDiffusionConservesTotalMassOnToroidalGrid(t *testing.T) {
	env := NewEnvironment(5, 5, true)
	env.AddPheromone("trail", 0.2, 0, 0, 0.01)
	env.SetPheromone(2, 2, "trail", 10)

	before := totalPheromone(env, "trail")
	env.DiffuseAndEvaporate(1.0)
	after := totalPheromone(env, "trail")
	assert.InDelta(t, before, after, 1e-9, "diffusion alone must conserve total pheromone mass")
}

func TestMarkAddAndRemove(t *testing.T) {
	env := NewEnvironment(10, 10, false)
	env.AddMark(3, 3, "food")
	assert.Contains(t, env.MarksAt(3, 3), "food")

	env.RemoveMark(3, 3, "food")
	assert.NotContains(t, env.MarksAt(3, 3), "food")
}

func TestRemoveMarkOfAbsentMarkIsNoOp(t *testing.T) {
	env := NewEnvironment(10, 10, false)
	assert.NotPanics(t, func() { env.RemoveMark(1, 1, "nothing-here") })
}

func TestRandomPositionStaysWithinBounds(t *testing.T) {
	env := NewEnvironment(50, 20, false)
	rng := kernel.NewPartitionedRNG(kernel.NewSimulationKey(1)).ForLevel("logo")
	for i := 0; i < 100; i++ {
		x, y := env.RandomPosition(rng)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 50.0)
		assert.GreaterOrEqual(t, y, 0.0)
		assert.Less(t, y, 20.0)
	}
}

func TestToroidalDistanceTakesShortestWrap(t *testing.T) {
	env := NewEnvironment(100, 100, true)
	d := env.Distance(1, 0, 99, 0)
	assert.InDelta(t, 2.0, d, 1e-9, "wrapping across the edge is shorter than crossing the middle")
}

func TestDirectionPointsTowardTarget(t *testing.T) {
	env := NewEnvironment(100, 100, false)
	dir := env.Direction(0, 0, 10, 0)
	assert.InDelta(t, 0.0, dir, 1e-9)
}

func TestPartitionedRNGIsDeterministicPerKey(t *testing.T) {
	a := kernel.NewPartitionedRNG(kernel.NewSimulationKey(42)).ForLevel("logo")
	b := kernel.NewPartitionedRNG(kernel.NewSimulationKey(42)).ForLevel("logo")
	assert.Equal(t, a.Float64(), b.Float64(), "same key and subsystem must reproduce identical draws")
}

func TestReactorAgentPositionUpdateIntegratesKinematics(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("t1", "logo",
		TurtlePublic{X: 0, Y: 0, Heading: 0, Speed: 1, Acceleration: 0},
		TurtlePrivate{}))

	env := NewEnvironment(100, 100, true)
	r := &Reactor{Env: env, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "logo", Store: store, Now: 0}

	require.NoError(t, r.React(ctx, []kernel.Influence{{Payload: kernel.AgentPositionUpdate{}}}, nil))

	pub, err := store.GetPublic("t1", "logo")
	require.NoError(t, err)
	turtle := pub.(TurtlePublic)
	assert.InDelta(t, 1.0, turtle.X, 1e-9, "heading 0 points along +x")
	assert.InDelta(t, 0.0, turtle.Y, 1e-9)
}

func TestReactorChangeDirectionNormalizesAngle(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("t1", "logo",
		TurtlePublic{Heading: 0},
		TurtlePrivate{}))

	env := NewEnvironment(100, 100, true)
	r := &Reactor{Env: env, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "logo", Store: store, Now: 0}

	regular := []kernel.Influence{{Payload: kernel.ChangeDirection{Target: "t1", Dd: -math.Pi / 2}}}
	require.NoError(t, r.React(ctx, nil, regular))

	pub, err := store.GetPublic("t1", "logo")
	require.NoError(t, err)
	assert.InDelta(t, 3*math.Pi/2, pub.(TurtlePublic).Heading, 1e-9)
}

func TestReactorStopOverridesSpeed(t *testing.T) {
	store := kernel.NewAgentStateStore()
	require.NoError(t, store.Include("t1", "logo",
		TurtlePublic{Speed: 5},
		TurtlePrivate{}))

	env := NewEnvironment(100, 100, true)
	r := &Reactor{Env: env, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "logo", Store: store, Now: 0}

	regular := []kernel.Influence{
		{Payload: kernel.ChangeSpeed{Target: "t1", Ds: 10}},
		{Payload: kernel.Stop{Target: "t1"}},
	}
	require.NoError(t, r.React(ctx, nil, regular))

	pub, err := store.GetPublic("t1", "logo")
	require.NoError(t, err)
	assert.Equal(t, 0.0, pub.(TurtlePublic).Speed)
}

func TestReactorEmitPheromoneIsAdditive(t *testing.T) {
	store := kernel.NewAgentStateStore()
	env := NewEnvironment(10, 10, false)
	env.AddPheromone("trail", 0, 0, 0, 0.01)
	env.SetPheromone(5, 5, "trail", 1)

	r := &Reactor{Env: env, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "logo", Store: store, Now: 0}

	regular := []kernel.Influence{{Payload: kernel.EmitPheromone{Location: [2]float64{5, 5}, ID: "trail", Amount: 2}}}
	require.NoError(t, r.React(ctx, nil, regular))

	assert.Equal(t, 3.0, env.PheromoneValue(5, 5, "trail"))
}

func TestReactorPheromoneFieldUpdateDiffusesExactlyOnce(t *testing.T) {
	store := kernel.NewAgentStateStore()
	env := NewEnvironment(5, 5, true)
	env.AddPheromone("trail", 0, 0.5, 0, 0.0)
	env.SetPheromone(2, 2, "trail", 1.0)

	r := &Reactor{Env: env, Config: Config{DT: 1.0}}
	ctx := kernel.ReactionContext{Level: "logo", Store: store, Now: 0}

	require.NoError(t, r.React(ctx, []kernel.Influence{{Payload: kernel.PheromoneFieldUpdate{}}}, nil))

	assert.InDelta(t, 0.5, env.PheromoneValue(2, 2, "trail"), 1e-9, "a single evaporation pass at 0.5/s halves the value")
}

func TestReactorOrphanTargetReportedWithoutError(t *testing.T) {
	store := kernel.NewAgentStateStore()
	env := NewEnvironment(10, 10, false)
	r := &Reactor{Env: env, Config: Config{DT: 1.0}}

	var notified bool
	ctx := kernel.ReactionContext{
		Level: "logo", Store: store, Now: 0,
		Observer: kernel.ObserverFunc(func(now kernel.TimeStamp, level kernel.LevelIdentifier, event kernel.ProbeEvent, detail string) {
			if event == kernel.EventOrphanTarget {
				notified = true
			}
		}),
	}

	regular := []kernel.Influence{{Payload: kernel.Stop{Target: "ghost"}}}
	require.NoError(t, r.React(ctx, nil, regular))
	assert.True(t, notified)
}

func totalPheromone(env *Environment, id string) float64 {
	var total float64
	grid := env.grids[id]
	for _, row := range grid {
		for _, v := range row {
			total += v
		}
	}
	return total
}
