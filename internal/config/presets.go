package config

import "sort"

var Presets = map[string]*Scenario{
	"drop": with(func(s *Scenario) {
		s.Name = "drop"
	}),
	"drop_discrete": with(func(s *Scenario) {
		s.Name = "drop_discrete"
		s.TimeStep = 1e-3
	}),
	"ball": with(func(s *Scenario) {
		s.Name = "ball"
		s.Models = []Model{{Builtin: "ball"}}
		s.SimulationTime = 1.5
	}),
	"stack": with(func(s *Scenario) {
		s.Name = "stack"
		s.Models = []Model{{Builtin: "box"}, {Builtin: "box"}, {Builtin: "ball"}}
		s.AutoRenaming = true
		s.InitialHeights = map[string]float64{"box_1::box": 0.6, "ball::ball": 1.2}
	}),
	"moon": with(func(s *Scenario) {
		s.Name = "moon"
		s.PlantParams = map[string]float64{"gravity": 1.62}
		s.SimulationTime = 4.0
	}),
	"headless": with(func(s *Scenario) {
		s.Name = "headless"
		s.Visualization.PublishIllustration = false
		s.Visualization.PublishProximity = false
		s.Visualization.PublishContacts = false
	}),
}

func with(edit func(*Scenario)) *Scenario {
	s := DefaultScenario()
	edit(s)
	return s
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Scenario {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
