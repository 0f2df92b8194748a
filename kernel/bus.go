package kernel

// bag holds the influences queued against one level, partitioned by system
// flag at emission time so Drain can return each partition in insertion
// order without a sort or scan, per spec §4.1 ("system influences are
// drained before regular influences in the same reaction").
type bag struct {
	system  []Influence
	regular []Influence
}

// InfluenceBus is the typed, level-keyed queue between the decision phase
// and the reaction phase (component A). Grounded on the FIFO shape of the
// teacher's WaitQueue (sim/queue.go), generalized from a single queue to
// one bag per registered level.
type InfluenceBus struct {
	levels map[LevelIdentifier]*bag
}

// NewInfluenceBus returns a bus with no registered levels.
func NewInfluenceBus() *InfluenceBus {
	return &InfluenceBus{levels: make(map[LevelIdentifier]*bag)}
}

// RegisterLevel makes level a valid Emit/Drain target. Idempotent.
func (b *InfluenceBus) RegisterLevel(level LevelIdentifier) {
	if _, ok := b.levels[level]; !ok {
		b.levels[level] = &bag{}
	}
}

// Emit pushes an influence into its target level's bag, O(1) amortized.
// Returns UnknownLevel if the target level was never registered.
func (b *InfluenceBus) Emit(inf Influence) error {
	bg, ok := b.levels[inf.TargetLevel]
	if !ok {
		return newError(UnknownLevel, "emit: target level %q is not registered", inf.TargetLevel)
	}
	if inf.System {
		bg.system = append(bg.system, inf)
	} else {
		bg.regular = append(bg.regular, inf)
	}
	return nil
}

// Drain removes all influences queued for level and returns them
// partitioned by system flag, each in insertion order. The bag is emptied.
func (b *InfluenceBus) Drain(level LevelIdentifier) (system, regular []Influence, err error) {
	bg, ok := b.levels[level]
	if !ok {
		return nil, nil, newError(UnknownLevel, "drain: unknown level %q", level)
	}
	system, regular = bg.system, bg.regular
	bg.system, bg.regular = nil, nil
	return system, regular, nil
}

// IsEmpty reports whether level's bag currently holds no influences.
func (b *InfluenceBus) IsEmpty(level LevelIdentifier) (bool, error) {
	bg, ok := b.levels[level]
	if !ok {
		return false, newError(UnknownLevel, "is_empty: unknown level %q", level)
	}
	return len(bg.system) == 0 && len(bg.regular) == 0, nil
}
