// Package kernel provides the multi-level, influence-based simulation
// engine at the heart of similar-go.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - time.go: TimeStamp, the monotonic tick type levels advance by.
//   - influence.go: Influence, the time-bounded request a decision model
//     emits and a level reactor consumes.
//   - bus.go: InfluenceBus, the level-keyed queue between decision and
//     reaction.
//   - store.go: AgentStateStore, the per-agent per-level public/private
//     state store and perceived-data cache.
//   - scheduler.go: Scheduler, the event loop driving levels through
//     perception, decision, and reaction each tick.
//
// # Architecture
//
// kernel defines the level-agnostic engine: the bus, the store, the
// scheduler, and the composable decision-model (DMS) interfaces. It knows
// nothing about vehicles, lanes, or turtles — those live in the traffic and
// logo packages, which provide LevelReactor, PerceptionModel, and
// DecisionModel implementations that plug into this engine.
//
// # Key Interfaces
//
// The extension points instantiations implement:
//   - LevelReactor: turns a batch of influences into state mutations for one level.
//   - PerceptionModel: produces a PerceivedData snapshot for one agent at one level.
//   - DecisionModel (DMS): reads perceived data and private state, emits influences.
//   - Observer: a side-effectful probe notified at phase and step boundaries.
package kernel
