package kernel

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run. Two runs
// with the same SimulationKey and identical configuration produce
// bit-for-bit identical results, since every stochastic decision model and
// environment helper draws from an RNG derived from it.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem (e.g. one per level identifier, so a logo level's random
// placement draws are independent of a traffic level's, regardless of
// call order). Grounded on the teacher's PartitionedRNG
// (sim/rng.go), generalized from inference-serving subsystem names
// (workload, router) to level identifiers.
//
// Thread-safety: not thread-safe; each level's perception/decision phase
// should hold its own subsystem RNG rather than sharing one across
// goroutines.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, subsystems: make(map[string]*rand.Rand)}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem, derived as masterSeed XOR fnv1a64(name). The same name always
// returns the same cached *rand.Rand. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// ForLevel returns the RNG for a level, keyed by its identifier.
func (p *PartitionedRNG) ForLevel(level LevelIdentifier) *rand.Rand {
	return p.ForSubsystem(string(level))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey { return p.key }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
