package kernel

// LocalState is the opaque, deep-cloneable payload a level associates with
// an agent (public or private). Domain packages (traffic, logo) implement
// it for their own state types.
type LocalState interface {
	Clone() LocalState
}

// InfluencePayload is a marker interface implemented by every concrete
// influence payload variant (ChangeAcceleration, ChangeSpeed, Stop, ...).
// It carries no methods: Go has no closed sum type, so the reactor switches
// on the concrete type the way a tagged variant would be matched elsewhere.
type InfluencePayload interface {
	isInfluencePayload()
}

// Payload is embedded by domain packages to satisfy InfluencePayload for
// their own custom payload variants (e.g. a lane-change request), without
// the kernel needing to know about every domain's vocabulary up front.
type Payload struct{}

func (Payload) isInfluencePayload() {}

// Influence is a time-bounded, categorized request from a decision model to
// a level's reactor, per spec §3. System is true for influences used to
// mutate simulation-wide structure (agent lifecycle, natural-tick markers)
// rather than a single agent's kinematic state.
type Influence struct {
	Category    string
	TargetLevel LevelIdentifier
	TLo, THi    TimeStamp
	Payload     InfluencePayload
	System      bool
}

// --- Payload variants (spec §3) ---

// ChangeAcceleration requests Target's acceleration be set to Da.
// Reaction policy: last-write-wins per target.
type ChangeAcceleration struct {
	Target AgentID
	Da     float64
}

func (ChangeAcceleration) isInfluencePayload() {}

// ChangeDirection requests Target's heading be adjusted by Dd radians.
// Reaction policy: additive, modulo 2π.
type ChangeDirection struct {
	Target AgentID
	Dd     float64
}

func (ChangeDirection) isInfluencePayload() {}

// ChangeSpeed requests Target's speed be adjusted by Ds.
// Reaction policy: additive (deltas sum).
type ChangeSpeed struct {
	Target AgentID
	Ds     float64
}

func (ChangeSpeed) isInfluencePayload() {}

// Stop requests Target be brought to a full stop.
// Reaction policy: overrides any ChangeSpeed in the same reaction; sets v=0.
type Stop struct {
	Target AgentID
}

func (Stop) isInfluencePayload() {}

// ChangePosition requests Target's position be shifted by (Dx, Dy).
// Reaction policy: additive, then topology-normalized.
type ChangePosition struct {
	Target AgentID
	Dx, Dy float64
}

func (ChangePosition) isInfluencePayload() {}

// EmitPheromone requests Amount of pheromone ID be deposited at Location.
// Reaction policy: additive at cell(floor(location)).
type EmitPheromone struct {
	Location [2]float64
	ID       string
	Amount   float64
}

func (EmitPheromone) isInfluencePayload() {}

// DropMark requests Mark be added to the environment.
// Reaction policy: set semantics.
type DropMark struct {
	Mark any
}

func (DropMark) isInfluencePayload() {}

// RemoveMark requests a single mark be removed.
// Reaction policy: set semantics; Remove wins over a same-tick Drop.
type RemoveMark struct {
	Mark any
}

func (RemoveMark) isInfluencePayload() {}

// RemoveMarks requests a batch of marks be removed.
type RemoveMarks struct {
	Marks []any
}

func (RemoveMarks) isInfluencePayload() {}

// AddAgentToLevel requests Target be inserted into the target level's store
// with the given public/private state. Used by Scheduler.TransitionAgent.
type AddAgentToLevel struct {
	Target  AgentID
	Public  LocalState
	Private LocalState
}

func (AddAgentToLevel) isInfluencePayload() {}

// RemoveAgentFromLevel requests Target be removed from the target level's
// store. Used by Scheduler.TransitionAgent.
type RemoveAgentFromLevel struct {
	Target AgentID
}

func (RemoveAgentFromLevel) isInfluencePayload() {}

// AddAgent requests Target be inserted into the target level's store with
// the given public/private state. Used by Scheduler.AddAgent, one influence
// per level the agent participates in.
type AddAgent struct {
	Target  AgentID
	Public  LocalState
	Private LocalState
}

func (AddAgent) isInfluencePayload() {}

// RemoveAgent requests Target be removed from the target level's store.
// Used by Scheduler.RemoveAgent.
type RemoveAgent struct {
	Target AgentID
}

func (RemoveAgent) isInfluencePayload() {}

// AgentPositionUpdate is the system-natural-tick marker for the microscopic
// level: its presence in a reaction signals the reactor should advance
// vehicle kinematics for the elapsed interval, independent of any
// agent-authored influence.
type AgentPositionUpdate struct{}

func (AgentPositionUpdate) isInfluencePayload() {}

// PheromoneFieldUpdate is the system-natural-tick marker for the Logo
// level: its presence signals the reactor should diffuse/evaporate the
// pheromone field for the elapsed interval.
type PheromoneFieldUpdate struct{}

func (PheromoneFieldUpdate) isInfluencePayload() {}

// isLifecyclePayload reports whether p is one of the four agent-lifecycle
// payloads the scheduler applies generically before handing the remaining
// system influences to the level's domain reactor.
func isLifecyclePayload(p InfluencePayload) bool {
	switch p.(type) {
	case AddAgentToLevel, RemoveAgentFromLevel, AddAgent, RemoveAgent:
		return true
	default:
		return false
	}
}
