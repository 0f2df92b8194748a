package kernel

// Behavior pairs the perception and decision models that drive one agent
// within one level. Heterogeneous agents (a car and a traffic light on the
// same level) carry different Behaviors.
type Behavior struct {
	Perception PerceptionModel
	Decision   DecisionModel
}

// LevelConfig declares one level's identity, clock, visibility, and
// reactor. UpdateFrequency is the divisor of the scheduler's global step
// counter at which this level becomes active: a level with
// UpdateFrequency=4 reacts once every 4 base ticks, per spec §4.4's
// "update_frequency divides step_count" rule. DT is the simulated-time
// length of one activation of this level.
type LevelConfig struct {
	Identifier      LevelIdentifier
	UpdateFrequency int64
	DT              int64
	Perceives       []LevelIdentifier
	Reactor         LevelReactor

	// NaturalTick, if non-nil, is injected by the scheduler as a system
	// influence on every activation of this level (e.g. AgentPositionUpdate,
	// PheromoneFieldUpdate), independent of any agent's decision: these
	// represent the passage of time itself, not an agent-authored request.
	NaturalTick InfluencePayload
}

// Level is a configured level plus its per-agent behaviors, registered with
// a Scheduler via Scheduler.AddLevel.
type Level struct {
	Config    LevelConfig
	behaviors map[AgentID]Behavior
}

// NewLevel returns a Level with no agents yet registered.
func NewLevel(cfg LevelConfig) *Level {
	return &Level{Config: cfg, behaviors: make(map[AgentID]Behavior)}
}

// SetBehavior assigns the perception/decision pair an agent uses while
// participating in this level.
func (l *Level) SetBehavior(agent AgentID, b Behavior) {
	l.behaviors[agent] = b
}

// RemoveBehavior drops an agent's behavior, called when the agent leaves
// the level.
func (l *Level) RemoveBehavior(agent AgentID) {
	delete(l.behaviors, agent)
}

// Behavior returns the behavior registered for agent, if any.
func (l *Level) Behavior(agent AgentID) (Behavior, bool) {
	b, ok := l.behaviors[agent]
	return b, ok
}

// Active reports whether this level is due to run at the given global step
// counter: step is 0-indexed and a level with UpdateFrequency f runs when
// step % f == 0.
func (l *Level) Active(step int64) bool {
	if l.Config.UpdateFrequency <= 0 {
		return false
	}
	return step%l.Config.UpdateFrequency == 0
}
