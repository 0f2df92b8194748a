package kernel

import (
	"sort"
	"sync"
)

// Scheduler runs the perceive -> decide -> react cycle across every
// registered level, multi-rate per spec §4.4: a level only perceives,
// decides, and reacts on steps where Level.Active(step) holds. Perception
// and decision run data-parallel across agents and across active levels
// (goroutines joined at a barrier); reaction runs sequentially, one level
// at a time, to keep conflict resolution deterministic. Grounded on the
// teacher's event-queue-driven Simulator.Step (sim/simulator.go), replacing
// its single-queue drain with the bus-per-level, phase-barrier design
// spec §4.4 and §5 require.
type Scheduler struct {
	bus        *InfluenceBus
	store      *AgentStateStore
	categories *CategoryRegistry
	levels     map[LevelIdentifier]*Level
	observer   Observer

	step int64
	now  TimeStamp
}

// NewScheduler returns an empty scheduler. Use AddLevel to register levels
// before calling Step.
func NewScheduler() *Scheduler {
	return &Scheduler{
		bus:        NewInfluenceBus(),
		store:      NewAgentStateStore(),
		categories: NewCategoryRegistry(),
		levels:     make(map[LevelIdentifier]*Level),
		observer:   noopObserver{},
	}
}

// SetObserver installs the probe that receives lifecycle and recovered-error
// notifications. Pass nil to go back to silently discarding them.
func (s *Scheduler) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

// Store returns the scheduler's agent state store, for direct inspection in
// tests and for domain packages that need to seed state before Step runs.
func (s *Scheduler) Store() *AgentStateStore { return s.store }

// Categories returns the scheduler's category registry.
func (s *Scheduler) Categories() *CategoryRegistry { return s.categories }

// Now returns the scheduler's current global clock.
func (s *Scheduler) Now() TimeStamp { return s.now }

// StepCount returns the current 0-indexed global step counter.
func (s *Scheduler) StepCount() int64 { return s.step }

// AddLevel registers a level, making it eligible to run and to be targeted
// by influences. Must be called before any agent is added to the level.
func (s *Scheduler) AddLevel(level *Level) {
	s.levels[level.Config.Identifier] = level
	s.bus.RegisterLevel(level.Config.Identifier)
}

// AddAgent enqueues a system AddAgent influence so agent becomes visible in
// level at that level's next reaction, with the given behavior applied from
// that point on. Returns UnknownLevel if level was never registered.
func (s *Scheduler) AddAgent(agent AgentID, level LevelIdentifier, public, private LocalState, behavior Behavior) error {
	lvl, ok := s.levels[level]
	if !ok {
		return newError(UnknownLevel, "add_agent: unknown level %q", level)
	}
	lvl.SetBehavior(agent, behavior)
	return s.bus.Emit(Influence{
		Category:    "lifecycle",
		TargetLevel: level,
		TLo:         s.now,
		THi:         s.now,
		System:      true,
		Payload:     AddAgent{Target: agent, Public: public, Private: private},
	})
}

// RemoveAgent enqueues a system RemoveAgent influence so agent disappears
// from level at that level's next reaction.
func (s *Scheduler) RemoveAgent(agent AgentID, level LevelIdentifier) error {
	if _, ok := s.levels[level]; !ok {
		return newError(UnknownLevel, "remove_agent: unknown level %q", level)
	}
	return s.bus.Emit(Influence{
		Category:    "lifecycle",
		TargetLevel: level,
		TLo:         s.now,
		THi:         s.now,
		System:      true,
		Payload:     RemoveAgent{Target: agent},
	})
}

// TransitionAgent moves agent from one level to another: both sides take
// effect atomically at their respective next reactions, by cloning the
// current state at call time and enqueueing AddAgentToLevel on `to` and
// RemoveAgentFromLevel on `from` as system influences (spec §4.4's
// "visibility change is atomic on the next tick boundary").
func (s *Scheduler) TransitionAgent(agent AgentID, from, to LevelIdentifier, behavior Behavior) error {
	fromLvl, ok := s.levels[from]
	if !ok {
		return newError(UnknownLevel, "transition_agent: unknown source level %q", from)
	}
	toLvl, ok := s.levels[to]
	if !ok {
		return newError(UnknownLevel, "transition_agent: unknown target level %q", to)
	}
	public, err := s.store.GetPublic(agent, from)
	if err != nil {
		return err
	}
	private, err := s.store.GetPrivate(agent, from)
	if err != nil {
		return err
	}
	toLvl.SetBehavior(agent, behavior)
	if err := s.bus.Emit(Influence{
		Category: "lifecycle", TargetLevel: to, TLo: s.now, THi: s.now, System: true,
		Payload: AddAgentToLevel{Target: agent, Public: public.Clone(), Private: private.Clone()},
	}); err != nil {
		return err
	}
	_ = fromLvl
	return s.bus.Emit(Influence{
		Category: "lifecycle", TargetLevel: from, TLo: s.now, THi: s.now, System: true,
		Payload: RemoveAgentFromLevel{Target: agent},
	})
}

// perceiveResult pairs an agent with the PerceivedData computed for it, so
// the barrier can fan results back into the store without the goroutines
// racing on the shared map.
type perceiveResult struct {
	agent AgentID
	data  PerceivedData
}

// Step runs one global tick: perception and decision in parallel across
// every level active at the current step counter, then reaction
// sequentially per active level in a deterministic (identifier-sorted)
// order, then advances the clock by the minimum dt among the levels that
// just ran.
func (s *Scheduler) Step() error {
	active := s.activeLevels()
	if len(active) == 0 {
		s.step++
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(active))
	for i, lvl := range active {
		wg.Add(1)
		go func(i int, lvl *Level) {
			defer wg.Done()
			errs[i] = s.perceiveAndDecide(lvl)
		}(i, lvl)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for _, lvl := range active {
		if err := s.react(lvl); err != nil {
			return err
		}
		s.observer.Notify(s.now, lvl.Config.Identifier, EventLevelActivated, "")
	}

	minDT := active[0].Config.DT
	for _, lvl := range active[1:] {
		if lvl.Config.DT < minDT {
			minDT = lvl.Config.DT
		}
	}
	s.now = s.now.Next(minDT)
	s.step++
	return nil
}

// activeLevels returns the levels due to run at the current step, sorted by
// identifier for deterministic reaction order.
func (s *Scheduler) activeLevels() []*Level {
	var out []*Level
	for _, lvl := range s.levels {
		if lvl.Active(s.step) {
			out = append(out, lvl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Config.Identifier < out[j].Config.Identifier
	})
	return out
}

// perceiveAndDecide runs the perceive and decide phases for every agent
// currently in lvl, data-parallel across agents, writing each agent's
// influences straight to the bus (Emit is safe for concurrent callers
// targeting distinct levels only if each goroutine here targets its own
// level's bag; agents within one level still share one bag, so emission
// within a level is serialized through a local mutex). An influence emitted
// with an empty TargetLevel is addressed to lvl.
func (s *Scheduler) perceiveAndDecide(lvl *Level) error {
	agents := s.store.AgentsInLevel(lvl.Config.Identifier)
	if len(agents) == 0 {
		return nil
	}

	publics := make(map[LevelIdentifier]map[AgentID]LocalState, len(lvl.Config.Perceives)+1)
	publics[lvl.Config.Identifier] = s.store.PublicSnapshot(lvl.Config.Identifier)
	for _, other := range lvl.Config.Perceives {
		publics[other] = s.store.PublicSnapshot(other)
	}

	results := make([]perceiveResult, len(agents))
	var wg sync.WaitGroup
	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent AgentID) {
			defer wg.Done()
			behavior, ok := lvl.Behavior(agent)
			if !ok || behavior.Perception == nil {
				return
			}
			private, err := s.store.GetPrivate(agent, lvl.Config.Identifier)
			if err != nil {
				return
			}
			results[i] = perceiveResult{agent: agent, data: behavior.Perception.Perceive(agent, private, publics)}
		}(i, agent)
	}
	wg.Wait()

	var mu sync.Mutex
	var emitErr error
	var dwg sync.WaitGroup
	for _, r := range results {
		if r.agent == "" {
			continue
		}
		s.store.SetPerceived(r.agent, lvl.Config.Identifier, r.data)
		dwg.Add(1)
		go func(r perceiveResult) {
			defer dwg.Done()
			behavior, ok := lvl.Behavior(r.agent)
			if !ok || behavior.Decision == nil {
				return
			}
			private, err := s.store.GetPrivate(r.agent, lvl.Config.Identifier)
			if err != nil {
				return
			}
			influences := behavior.Decision.Decide(r.agent, private, r.data)
			mu.Lock()
			defer mu.Unlock()
			for _, inf := range influences {
				if inf.TargetLevel == "" {
					inf.TargetLevel = lvl.Config.Identifier
				}
				if err := s.bus.Emit(inf); err != nil && emitErr == nil {
					emitErr = err
				}
			}
		}(r)
	}
	dwg.Wait()
	return emitErr
}

// react drains lvl's bus, applies lifecycle influences generically against
// the store, and hands the remaining system and regular influences to the
// level's reactor.
func (s *Scheduler) react(lvl *Level) error {
	system, regular, err := s.bus.Drain(lvl.Config.Identifier)
	if err != nil {
		return err
	}

	remaining := system[:0:0]
	if lvl.Config.NaturalTick != nil {
		remaining = append(remaining, Influence{
			Category: "natural_tick", TargetLevel: lvl.Config.Identifier,
			TLo: s.now, THi: s.now, System: true, Payload: lvl.Config.NaturalTick,
		})
	}
	for _, inf := range system {
		if !isLifecyclePayload(inf.Payload) {
			remaining = append(remaining, inf)
			continue
		}
		switch p := inf.Payload.(type) {
		case AddAgent:
			if err := s.store.Include(p.Target, lvl.Config.Identifier, p.Public, p.Private); err != nil {
				return err
			}
		case AddAgentToLevel:
			if err := s.store.Include(p.Target, lvl.Config.Identifier, p.Public, p.Private); err != nil {
				return err
			}
		case RemoveAgent:
			s.store.Exclude(p.Target, lvl.Config.Identifier)
			lvl.RemoveBehavior(p.Target)
		case RemoveAgentFromLevel:
			s.store.Exclude(p.Target, lvl.Config.Identifier)
			lvl.RemoveBehavior(p.Target)
		}
	}

	if lvl.Config.Reactor == nil {
		return nil
	}
	ctx := ReactionContext{Level: lvl.Config.Identifier, Store: s.store, Categories: s.categories, Observer: s.observer, Now: s.now}
	return lvl.Config.Reactor.React(ctx, remaining, regular)
}
