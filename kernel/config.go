package kernel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchedulerConfig is the top-level, YAML-loadable description of a
// scheduler run: how many base ticks to execute and which levels
// participate, keyed by identifier so a deployment config can enable or
// tune individual levels without touching code. Grounded on the teacher's
// yaml-tagged config structs (cmd/default_config.go, cmd/coefficients_config.go).
type SchedulerConfig struct {
	Steps  int64                 `yaml:"steps"`
	Levels map[string]LevelTuning `yaml:"levels"`
}

// LevelTuning is the subset of a LevelConfig an operator tunes from file;
// Perceives and the Reactor itself stay code-defined since they encode
// wiring, not a knob.
type LevelTuning struct {
	UpdateFrequency int64 `yaml:"update_frequency"`
	DT              int64 `yaml:"dt"`
}

// LoadSchedulerConfig reads and parses a SchedulerConfig from a YAML file.
func LoadSchedulerConfig(path string) (*SchedulerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scheduler config: %w", err)
	}
	var cfg SchedulerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse scheduler config %s: %w", path, err)
	}
	return &cfg, nil
}

// Apply overrides UpdateFrequency/DT on cfg for every level named in t,
// leaving levels not mentioned in the file untouched.
func (t *SchedulerConfig) Apply(levels map[LevelIdentifier]*Level) {
	for name, tuning := range t.Levels {
		if lvl, ok := levels[LevelIdentifier(name)]; ok {
			if tuning.UpdateFrequency > 0 {
				lvl.Config.UpdateFrequency = tuning.UpdateFrequency
			}
			if tuning.DT > 0 {
				lvl.Config.DT = tuning.DT
			}
		}
	}
}
