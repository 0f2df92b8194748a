package logo

import (
	"math"

	"github.com/gildasmorvan/similar-go/kernel"
)

// Config tunes the Logo level's reaction.
type Config struct {
	DT float64 `yaml:"dt"`
}

// Reactor applies the influence vocabulary a turtle level can produce
// against its Environment and the agent state store. Grounded on
// similar2logo's Reaction::apply (original_source/cpp/similar2logo/src/
// kernel/reaction/Reaction.cpp).
type Reactor struct {
	Env    *Environment
	Config Config
}

// React implements kernel.LevelReactor.
func (r *Reactor) React(ctx kernel.ReactionContext, system, regular []kernel.Influence) error {
	accelDelta := make(map[kernel.AgentID]float64)
	speedDelta := make(map[kernel.AgentID]float64)
	directionDelta := make(map[kernel.AgentID]float64)
	positionDelta := make(map[kernel.AgentID][2]float64)
	stopped := make(map[kernel.AgentID]bool)

	for _, inf := range regular {
		switch p := inf.Payload.(type) {
		case kernel.ChangeAcceleration:
			// Absolute set (last-write-wins), per the kernel's documented
			// contract; kept consistent with the traffic level rather than
			// the additive semantics of the original environment.
			accelDelta[p.Target] = p.Da
		case kernel.ChangeSpeed:
			speedDelta[p.Target] += p.Ds
		case kernel.Stop:
			stopped[p.Target] = true
		case kernel.ChangeDirection:
			directionDelta[p.Target] += p.Dd
		case kernel.ChangePosition:
			cur := positionDelta[p.Target]
			positionDelta[p.Target] = [2]float64{cur[0] + p.Dx, cur[1] + p.Dy}
		case kernel.EmitPheromone:
			x, y := r.Env.WrapPosition(p.Location[0], p.Location[1])
			x, y = math.Floor(x), math.Floor(y)
			current := r.Env.PheromoneValue(x, y, p.ID)
			r.Env.SetPheromone(x, y, p.ID, current+p.Amount)
		case kernel.DropMark:
			x, y := markCell(p.Mark)
			r.Env.AddMark(x, y, p.Mark)
		case kernel.RemoveMark:
			x, y := markCell(p.Mark)
			r.Env.RemoveMark(x, y, p.Mark)
		case kernel.RemoveMarks:
			for _, m := range p.Marks {
				x, y := markCell(m)
				r.Env.RemoveMark(x, y, m)
			}
		}
	}

	known := make(map[kernel.AgentID]bool)
	for _, agent := range ctx.Store.AgentsInLevel(ctx.Level) {
		known[agent] = true
	}
	for target := range accelDelta {
		if !known[target] {
			r.orphan(ctx, "ChangeAcceleration", string(target))
		}
	}
	for target := range speedDelta {
		if !known[target] {
			r.orphan(ctx, "ChangeSpeed", string(target))
		}
	}
	for target := range stopped {
		if !known[target] {
			r.orphan(ctx, "Stop", string(target))
		}
	}
	for target := range directionDelta {
		if !known[target] {
			r.orphan(ctx, "ChangeDirection", string(target))
		}
	}
	for target := range positionDelta {
		if !known[target] {
			r.orphan(ctx, "ChangePosition", string(target))
		}
	}

	for _, agent := range ctx.Store.AgentsInLevel(ctx.Level) {
		ls, err := ctx.Store.GetPublic(agent, ctx.Level)
		if err != nil {
			continue
		}
		turtle, ok := ls.(TurtlePublic)
		if !ok {
			continue
		}

		if da, ok := accelDelta[agent]; ok {
			turtle.Acceleration = da
		}
		if stopped[agent] {
			turtle.Speed = 0
		} else if ds, ok := speedDelta[agent]; ok {
			turtle.Speed += ds
			if turtle.Speed < 0 {
				turtle.Speed = 0
			}
		}
		if dd, ok := directionDelta[agent]; ok {
			turtle.Heading = normalizeAngle(turtle.Heading + dd)
		}
		if d, ok := positionDelta[agent]; ok {
			turtle.X, turtle.Y = r.Env.WrapPosition(turtle.X+d[0], turtle.Y+d[1])
		}

		_ = ctx.Store.SetPublic(agent, ctx.Level, turtle)
	}

	var tick, pheromoneTick bool
	for _, inf := range system {
		switch inf.Payload.(type) {
		case kernel.AgentPositionUpdate:
			tick = true
		case kernel.PheromoneFieldUpdate:
			pheromoneTick = true
		}
	}

	if tick {
		dt := r.Config.DT
		for _, agent := range ctx.Store.AgentsInLevel(ctx.Level) {
			ls, err := ctx.Store.GetPublic(agent, ctx.Level)
			if err != nil {
				continue
			}
			turtle, ok := ls.(TurtlePublic)
			if !ok {
				continue
			}
			turtle.Speed += turtle.Acceleration * dt
			if turtle.Speed < 0 {
				turtle.Speed = 0
			}
			dx := math.Cos(turtle.Heading) * turtle.Speed * dt
			dy := math.Sin(turtle.Heading) * turtle.Speed * dt
			turtle.X, turtle.Y = r.Env.WrapPosition(turtle.X+dx, turtle.Y+dy)
			_ = ctx.Store.SetPublic(agent, ctx.Level, turtle)
		}
	}

	if pheromoneTick {
		r.Env.DiffuseAndEvaporate(r.Config.DT)
	}

	return nil
}

func (r *Reactor) orphan(ctx kernel.ReactionContext, category, detail string) {
	if ctx.Observer != nil {
		ctx.Observer.Notify(ctx.Now, ctx.Level, kernel.EventOrphanTarget, category+" "+detail)
	}
}

func markCell(mark any) (int, int) {
	if m, ok := mark.(interface{ Cell() (int, int) }); ok {
		return m.Cell()
	}
	return 0, 0
}

func normalizeAngle(a float64) float64 {
	const twoPi = 2 * math.Pi
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}
