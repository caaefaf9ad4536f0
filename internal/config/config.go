package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/visualization"
)

const (
	DefaultSimulationTime = 2.0
	DefaultTimeStep       = 0.0
	DefaultModel          = "drop_test"
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Scenario describes one simulation: what to load, how to integrate it and
// what to publish.
type Scenario struct {
	Name           string  `yaml:"name"`
	TimeStep       float64 `yaml:"time_step"`
	SimulationTime float64 `yaml:"simulation_time"`

	Simulator analysis.Config `yaml:"simulator"`
	Models    []Model         `yaml:"models"`
	// AutoRenaming renames a repeated model instance to name_1, name_2, ...
	AutoRenaming bool `yaml:"auto_renaming"`
	// PlantParams overrides runtime plant parameters such as gravity.
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
	// InitialHeights overrides body heights, keyed by scoped body name.
	InitialHeights map[string]float64 `yaml:"initial_heights,omitempty"`

	LcmBuses      map[string]lcm.Params `yaml:"lcm_buses"`
	Visualization visualization.Config  `yaml:"visualization"`
}

// Model loads either a model file or one of the embedded models.
type Model struct {
	File    string `yaml:"file,omitempty"`
	Builtin string `yaml:"builtin,omitempty"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:           "default",
		TimeStep:       DefaultTimeStep,
		SimulationTime: DefaultSimulationTime,
		Simulator:      analysis.DefaultConfig(),
		Models:         []Model{{Builtin: DefaultModel}},
		LcmBuses:       map[string]lcm.Params{lcm.DefaultBusName: {URL: lcm.DefaultURL}},
		Visualization:  visualization.DefaultConfig(),
	}
}

// Validate reports the first problem that would stop the scenario from running.
func (s *Scenario) Validate() error {
	if s.TimeStep < 0 || math.IsNaN(s.TimeStep) {
		return fmt.Errorf("%w: time_step must not be negative, got %g", ErrInvalidScenario, s.TimeStep)
	}
	if !(s.SimulationTime > 0) || math.IsInf(s.SimulationTime, 0) {
		return fmt.Errorf("%w: simulation_time must be positive, got %g", ErrInvalidScenario, s.SimulationTime)
	}
	if s.Simulator.MaxStep <= 0 {
		return fmt.Errorf("%w: simulator.max_step must be positive, got %g", ErrInvalidScenario, s.Simulator.MaxStep)
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("%w: no models", ErrInvalidScenario)
	}
	for i, m := range s.Models {
		if (m.File == "") == (m.Builtin == "") {
			return fmt.Errorf("%w: models[%d] needs exactly one of file or builtin", ErrInvalidScenario, i)
		}
	}
	if s.Visualization.PublishPeriod <= 0 {
		return fmt.Errorf("%w: visualization.publish_period must be positive, got %g",
			ErrInvalidScenario, s.Visualization.PublishPeriod)
	}
	return nil
}

// Clone returns a deep copy.
func (s *Scenario) Clone() *Scenario {
	out := *s
	out.Models = append([]Model(nil), s.Models...)
	out.PlantParams = cloneMap(s.PlantParams)
	out.InitialHeights = cloneMap(s.InitialHeights)
	out.LcmBuses = cloneMap(s.LcmBuses)
	return &out
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Load reads a scenario; fields absent from the file keep their defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	s := DefaultScenario()
	// Models and buses named in the file replace the defaults.
	s.Models = nil
	s.LcmBuses = nil
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if s.Models == nil {
		s.Models = DefaultScenario().Models
	}
	if s.LcmBuses == nil {
		s.LcmBuses = DefaultScenario().LcmBuses
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
