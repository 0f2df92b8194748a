package traffic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LaneConfig is the YAML-loadable form of one LaneSpec.
type LaneConfig struct {
	ID        string  `yaml:"id"`
	Length    float64 `yaml:"length"`
	Ring      bool    `yaml:"ring"`
	LeftLane  string  `yaml:"left_lane"`
	RightLane string  `yaml:"right_lane"`
}

// IDMConfig is the YAML-loadable form of IDM parameters.
type IDMConfig struct {
	DesiredSpeed     float64 `yaml:"desired_speed"`
	TimeHeadway      float64 `yaml:"time_headway"`
	MinGap           float64 `yaml:"min_gap"`
	MaxAccel         float64 `yaml:"max_accel"`
	ComfortableDecel float64 `yaml:"comfortable_decel"`
	AccelExponent    float64 `yaml:"accel_exponent"`
	Emergency        bool    `yaml:"emergency_braking"`
}

// ToIDM converts c into a CarFollowingModel, IDMPlus if Emergency is set.
func (c IDMConfig) ToIDM() CarFollowingModel {
	base := IDM{
		DesiredSpeed:     c.DesiredSpeed,
		TimeHeadway:      c.TimeHeadway,
		MinGap:           c.MinGap,
		MaxAccel:         c.MaxAccel,
		ComfortableDecel: c.ComfortableDecel,
		AccelExponent:    c.AccelExponent,
	}
	if c.Emergency {
		return IDMPlus{IDM: base}
	}
	return base
}

// MOBILConfig is the YAML-loadable form of MOBIL parameters.
type MOBILConfig struct {
	Politeness    float64 `yaml:"politeness"`
	Threshold     float64 `yaml:"threshold"`
	MaxSafeDecel  float64 `yaml:"max_safe_decel"`
	RightLaneBias float64 `yaml:"right_lane_bias"`
}

// ToMOBIL converts c into a MOBIL model.
func (c MOBILConfig) ToMOBIL() MOBIL {
	return MOBIL{
		Politeness:    c.Politeness,
		Threshold:     c.Threshold,
		MaxSafeDecel:  c.MaxSafeDecel,
		RightLaneBias: c.RightLaneBias,
	}
}

// NetworkConfig is the top-level YAML document describing a microscopic
// road network: lane geometry plus default driver behavior parameters.
// Grounded on the teacher's yaml-tagged, multi-section config structs
// (cmd/default_config.go).
type NetworkConfig struct {
	DT     float64      `yaml:"dt"`
	Lanes  []LaneConfig `yaml:"lanes"`
	IDM    IDMConfig    `yaml:"idm"`
	MOBIL  MOBILConfig  `yaml:"mobil"`
}

// LoadNetworkConfig reads and parses a NetworkConfig from a YAML file.
func LoadNetworkConfig(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load network config: %w", err)
	}
	var cfg NetworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse network config %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildTopology returns a Topology populated from cfg's lane list.
func (cfg *NetworkConfig) BuildTopology() *Topology {
	t := NewTopology()
	for _, lc := range cfg.Lanes {
		t.AddLane(LaneSpec{ID: lc.ID, Length: lc.Length, Ring: lc.Ring, LeftLane: lc.LeftLane, RightLane: lc.RightLane})
	}
	return t
}
