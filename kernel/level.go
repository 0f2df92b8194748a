package kernel

// LevelIdentifier is an opaque tag naming a level ("microscopic",
// "macroscopic", "logo", "control", ...). Levels are compared only for
// equality; there is no implicit ordering between them.
type LevelIdentifier string

// AgentID identifies an agent across the simulation. It is opaque and
// compared only for equality.
type AgentID string

// AgentCategory is a named tag with a set of direct parent categories.
// CategoryRegistry answers the is_a predicate as the reflexive-transitive
// closure of the parent relation, grounded on the original source's
// AgentCategory (cpp/microkernel/include/AgentCategory.h), which the
// distilled spec mentions only as a data-model bullet.
type AgentCategory struct {
	Name    string
	Parents []string
}

// CategoryRegistry stores the direct-parent relation between category names
// and computes the reflexive-transitive closure on demand.
type CategoryRegistry struct {
	categories map[string]AgentCategory
}

// NewCategoryRegistry returns an empty category registry.
func NewCategoryRegistry() *CategoryRegistry {
	return &CategoryRegistry{categories: make(map[string]AgentCategory)}
}

// Register adds or replaces a category definition.
func (r *CategoryRegistry) Register(cat AgentCategory) {
	r.categories[cat.Name] = cat
}

// IsA reports whether child is the same category as parent, or transitively
// descends from it through the registered parent relation. Unknown
// categories are treated as having no parents (IsA returns true only for
// exact equality).
func (r *CategoryRegistry) IsA(child, parent string) bool {
	if child == parent {
		return true
	}
	visited := make(map[string]bool)
	return r.isA(child, parent, visited)
}

func (r *CategoryRegistry) isA(child, parent string, visited map[string]bool) bool {
	if visited[child] {
		return false
	}
	visited[child] = true
	cat, ok := r.categories[child]
	if !ok {
		return false
	}
	for _, p := range cat.Parents {
		if p == parent {
			return true
		}
		if r.isA(p, parent, visited) {
			return true
		}
	}
	return false
}
