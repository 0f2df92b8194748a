package logo

import "github.com/gildasmorvan/similar-go/kernel"

// TurtlePublic is a turtle's publicly perceivable state: position, heading
// (radians), speed, and acceleration. Grounded on similar2logo's
// TurtlePerceivedData / AgentPositionUpdate fields (original_source/cpp/
// similar2logo/src/kernel/influences/AgentPositionUpdate.cpp and Reaction.cpp).
type TurtlePublic struct {
	X, Y         float64
	Heading      float64
	Speed        float64
	Acceleration float64
}

// Clone returns a deep copy.
func (t TurtlePublic) Clone() kernel.LocalState {
	return t
}

// TurtlePrivate carries nothing beyond an identity marker; logo turtles in
// this implementation are driven entirely by their decision models reading
// perceived public state; domains needing private memory embed this type.
type TurtlePrivate struct{}

// Clone returns a deep copy.
func (t TurtlePrivate) Clone() kernel.LocalState {
	return t
}

// Perceived is what a turtle's perception model hands to its decision
// model: its own public state plus a read-only view of the environment.
type Perceived struct {
	Self TurtlePublic
	Env  *Environment
}

// PerceptionModel exposes the shared Environment to every turtle unchanged;
// turtles read pheromone/mark state directly from it during decision.
type PerceptionModel struct {
	Env *Environment
}

// Perceive implements kernel.PerceptionModel.
func (p PerceptionModel) Perceive(self kernel.AgentID, private kernel.LocalState, publics map[kernel.LevelIdentifier]map[kernel.AgentID]kernel.LocalState) kernel.PerceivedData {
	var selfPublic TurtlePublic
	for _, levelPublics := range publics {
		if ls, ok := levelPublics[self]; ok {
			if tp, ok := ls.(TurtlePublic); ok {
				selfPublic = tp
			}
		}
	}
	return Perceived{Self: selfPublic, Env: p.Env}
}
