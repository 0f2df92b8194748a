package logo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PheromoneConfig is the YAML-loadable form of one Pheromone definition.
type PheromoneConfig struct {
	ID          string  `yaml:"id"`
	Diffusion   float64 `yaml:"diffusion"`
	Evaporation float64 `yaml:"evaporation"`
	Default     float64 `yaml:"default"`
	MinValue    float64 `yaml:"min_value"`
}

// EnvironmentConfig is the top-level YAML document describing a Logo
// level's spatial substrate. Grounded on the teacher's yaml-tagged config
// style (cmd/default_config.go).
type EnvironmentConfig struct {
	Width      int               `yaml:"width"`
	Height     int               `yaml:"height"`
	Toroidal   bool              `yaml:"toroidal"`
	DT         float64           `yaml:"dt"`
	Pheromones []PheromoneConfig `yaml:"pheromones"`
}

// LoadEnvironmentConfig reads and parses an EnvironmentConfig from a YAML
// file.
func LoadEnvironmentConfig(path string) (*EnvironmentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}
	var cfg EnvironmentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse environment config %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildEnvironment returns an Environment populated from cfg.
func (cfg *EnvironmentConfig) BuildEnvironment() *Environment {
	env := NewEnvironment(cfg.Width, cfg.Height, cfg.Toroidal)
	for _, p := range cfg.Pheromones {
		env.AddPheromone(p.ID, p.Diffusion, p.Evaporation, p.Default, p.MinValue)
	}
	return env
}
