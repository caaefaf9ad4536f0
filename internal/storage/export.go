package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/experiment"
	"github.com/san-kum/robodiagram/internal/lcm"
)

type ExportData struct {
	ID             string             `json:"id"`
	Scenario       string             `json:"scenario"`
	TimeStep       float64            `json:"time_step"`
	SimulationTime float64            `json:"simulation_time"`
	Integrator     string             `json:"integrator"`
	Bodies         []string           `json:"bodies"`
	Times          []float64          `json:"times"`
	Heights        [][]float64        `json:"heights"`
	Channels       []lcm.ChannelStat  `json:"channels"`
	Stats          analysis.Stats     `json:"stats"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

func exportData(result *experiment.Result) ExportData {
	return ExportData{
		ID:             result.ID,
		Scenario:       result.Scenario.Name,
		TimeStep:       result.Scenario.TimeStep,
		SimulationTime: result.Scenario.SimulationTime,
		Integrator:     result.Scenario.Simulator.Integrator,
		Bodies:         result.Bodies,
		Times:          result.Times,
		Heights:        result.Heights,
		Channels:       result.Channels,
		Stats:          result.Stats,
		Metrics:        result.Metrics,
	}
}

func ExportJSON(path string, result *experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSONTo(file, result)
}

func ExportJSONTo(w io.Writer, result *experiment.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(result))
}
