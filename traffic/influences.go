package traffic

import "github.com/gildasmorvan/similar-go/kernel"

// ChangeLane requests Target move to ToLane at the next reaction, keeping
// its current arc-length position. A domain-specific influence payload,
// embedding kernel.Payload to satisfy kernel.InfluencePayload per spec §3's
// allowance for levels to extend the influence vocabulary.
type ChangeLane struct {
	kernel.Payload
	Target kernel.AgentID
	ToLane string
}
