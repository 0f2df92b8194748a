package kernel

// stateEntry holds the public/private pair for one (agent, level) cell.
// Invariant (spec §4.2): neither field is ever nil while the entry exists.
type stateEntry struct {
	public  LocalState
	private LocalState
}

// AgentStateStore maps (agent, level) to public/private state plus a
// perceived-data cache, per spec §4.2 (component B). Grounded on the
// teacher's map-keyed per-request bookkeeping (sim/kvcache.go,
// sim/simulator.go's ReqNumComputedTokens), generalized to the
// agent×level product the kernel needs.
type AgentStateStore struct {
	states    map[AgentID]map[LevelIdentifier]*stateEntry
	perceived map[AgentID]map[LevelIdentifier]PerceivedData
}

// NewAgentStateStore returns an empty store.
func NewAgentStateStore() *AgentStateStore {
	return &AgentStateStore{
		states:    make(map[AgentID]map[LevelIdentifier]*stateEntry),
		perceived: make(map[AgentID]map[LevelIdentifier]PerceivedData),
	}
}

// Include adds an agent to a level with the given public/private state.
// Idempotent: a no-op if the agent is already present in that level.
func (s *AgentStateStore) Include(agent AgentID, level LevelIdentifier, public, private LocalState) error {
	levels, ok := s.states[agent]
	if !ok {
		levels = make(map[LevelIdentifier]*stateEntry)
		s.states[agent] = levels
	}
	if _, present := levels[level]; present {
		return nil
	}
	if public == nil || private == nil {
		return newError(InvalidTransition, "include: agent %q level %q: public and private state must both be non-nil", agent, level)
	}
	levels[level] = &stateEntry{public: public, private: private}
	return nil
}

// Exclude removes an agent from a level. A no-op if the agent was not
// present (idempotent Remove).
func (s *AgentStateStore) Exclude(agent AgentID, level LevelIdentifier) {
	if levels, ok := s.states[agent]; ok {
		delete(levels, level)
		if len(levels) == 0 {
			delete(s.states, agent)
		}
	}
	if p, ok := s.perceived[agent]; ok {
		delete(p, level)
		if len(p) == 0 {
			delete(s.perceived, agent)
		}
	}
}

// Contains reports whether agent is present in level.
func (s *AgentStateStore) Contains(agent AgentID, level LevelIdentifier) bool {
	levels, ok := s.states[agent]
	if !ok {
		return false
	}
	_, ok = levels[level]
	return ok
}

// GetPublic returns agent's public state at level.
func (s *AgentStateStore) GetPublic(agent AgentID, level LevelIdentifier) (LocalState, error) {
	e, err := s.entry(agent, level)
	if err != nil {
		return nil, err
	}
	return e.public, nil
}

// GetPrivate returns agent's private state at level.
func (s *AgentStateStore) GetPrivate(agent AgentID, level LevelIdentifier) (LocalState, error) {
	e, err := s.entry(agent, level)
	if err != nil {
		return nil, err
	}
	return e.private, nil
}

// SetPublic replaces agent's public state at level. Called exclusively by
// reactors during the reaction phase (spec: "perception never mutates
// public state; decision never mutates state at all").
func (s *AgentStateStore) SetPublic(agent AgentID, level LevelIdentifier, public LocalState) error {
	e, err := s.entry(agent, level)
	if err != nil {
		return err
	}
	e.public = public
	return nil
}

// SetPrivate replaces agent's private state at level.
func (s *AgentStateStore) SetPrivate(agent AgentID, level LevelIdentifier, private LocalState) error {
	e, err := s.entry(agent, level)
	if err != nil {
		return err
	}
	e.private = private
	return nil
}

func (s *AgentStateStore) entry(agent AgentID, level LevelIdentifier) (*stateEntry, error) {
	levels, ok := s.states[agent]
	if !ok {
		return nil, newError(NotInLevel, "agent %q is not in any level", agent)
	}
	e, ok := levels[level]
	if !ok {
		return nil, newError(NotInLevel, "agent %q is not in level %q", agent, level)
	}
	return e, nil
}

// PublicSnapshot returns the authoritative, copy-on-write view of level's
// public states, cloned at call time so later mutation of the live store
// cannot be observed through the returned map (spec §8 "snapshot
// immutability").
func (s *AgentStateStore) PublicSnapshot(level LevelIdentifier) map[AgentID]LocalState {
	out := make(map[AgentID]LocalState)
	for agent, levels := range s.states {
		if e, ok := levels[level]; ok {
			out[agent] = e.public.Clone()
		}
	}
	return out
}

// Transition clones both states for agent from level `from` into level
// `to` (adding `to` if absent). It does not remove the agent from `from`;
// the caller composes removal (Scheduler.TransitionAgent does this through
// system influences so both sides change atomically at a tick boundary).
func (s *AgentStateStore) Transition(agent AgentID, from, to LevelIdentifier) error {
	e, err := s.entry(agent, from)
	if err != nil {
		return newError(InvalidTransition, "transition: agent %q not in source level %q", agent, from)
	}
	return s.Include(agent, to, e.public.Clone(), e.private.Clone())
}

// SetPerceived stores the PerceivedData cache for (agent, level), computed
// at perception time and consumed at decision time.
func (s *AgentStateStore) SetPerceived(agent AgentID, level LevelIdentifier, data PerceivedData) {
	levels, ok := s.perceived[agent]
	if !ok {
		levels = make(map[LevelIdentifier]PerceivedData)
		s.perceived[agent] = levels
	}
	levels[level] = data
}

// GetPerceived returns the cached PerceivedData for (agent, level), if any.
func (s *AgentStateStore) GetPerceived(agent AgentID, level LevelIdentifier) (PerceivedData, bool) {
	levels, ok := s.perceived[agent]
	if !ok {
		return nil, false
	}
	data, ok := levels[level]
	return data, ok
}

// AgentsInLevel returns the ids of agents currently present in level, in
// unspecified (map iteration) order; callers that need determinism should
// sort the result.
func (s *AgentStateStore) AgentsInLevel(level LevelIdentifier) []AgentID {
	var out []AgentID
	for agent, levels := range s.states {
		if _, ok := levels[level]; ok {
			out = append(out, agent)
		}
	}
	return out
}
