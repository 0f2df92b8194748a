package logo

import "github.com/gildasmorvan/similar-go/kernel"

// CruiseSpeedDMS always handles: it steers a turtle's speed toward a fixed
// cruising speed, mirroring the default forward-motion behavior of a Logo
// turtle with no obstacle avoidance.
type CruiseSpeedDMS struct {
	CruiseSpeed float64
}

// Decide implements kernel.DMS.
func (d CruiseSpeedDMS) Decide(self kernel.AgentID, private kernel.LocalState, perceivedData kernel.PerceivedData) (bool, []kernel.Influence) {
	perceived, ok := perceivedData.(Perceived)
	if !ok {
		return false, nil
	}
	ds := d.CruiseSpeed - perceived.Self.Speed
	return true, []kernel.Influence{{
		Category: "cruise_speed",
		Payload:  kernel.ChangeSpeed{Target: self, Ds: ds},
	}}
}

// PheromoneTrailDMS always handles: it deposits Amount of pheromone ID at
// the turtle's current location every tick, the classic ant-trail Logo
// behavior.
type PheromoneTrailDMS struct {
	ID     string
	Amount float64
}

// Decide implements kernel.DMS.
func (d PheromoneTrailDMS) Decide(self kernel.AgentID, private kernel.LocalState, perceivedData kernel.PerceivedData) (bool, []kernel.Influence) {
	perceived, ok := perceivedData.(Perceived)
	if !ok {
		return false, nil
	}
	return true, []kernel.Influence{{
		Category: "pheromone_trail",
		Payload: kernel.EmitPheromone{
			Location: [2]float64{perceived.Self.X, perceived.Self.Y},
			ID:       d.ID,
			Amount:   d.Amount,
		},
	}}
}
