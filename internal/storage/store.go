package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/config"
	"github.com/san-kum/robodiagram/internal/experiment"
	"github.com/san-kum/robodiagram/internal/lcm"
)

const (
	metadataFile = "metadata.json"
	heightsFile  = "heights.csv"
	scenarioFile = "scenario.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Run            string             `json:"run"`
	Scenario       string             `json:"scenario"`
	Timestamp      time.Time          `json:"timestamp"`
	TimeStep       float64            `json:"time_step"`
	SimulationTime float64            `json:"simulation_time"`
	Integrator     string             `json:"integrator"`
	Elapsed        time.Duration      `json:"elapsed_ns"`
	Bodies         []string           `json:"bodies"`
	Stats          analysis.Stats     `json:"stats"`
	Channels       []lcm.ChannelStat  `json:"channels"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Save writes metadata.json, heights.csv and scenario.yaml under a fresh run
// directory and returns the run name.
func (s *Store) Save(result *experiment.Result) (string, error) {
	if result == nil || result.Scenario == nil {
		return "", fmt.Errorf("storage: incomplete result")
	}
	short := result.ID
	if len(short) > 8 {
		short = short[:8]
	}
	runID := fmt.Sprintf("%s_%s", result.Scenario.Name, short)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             result.ID,
		Run:            runID,
		Scenario:       result.Scenario.Name,
		Timestamp:      result.Started,
		TimeStep:       result.Scenario.TimeStep,
		SimulationTime: result.Scenario.SimulationTime,
		Integrator:     result.Scenario.Simulator.Integrator,
		Elapsed:        result.Elapsed,
		Bodies:         result.Bodies,
		Stats:          result.Stats,
		Channels:       result.Channels,
		Metrics:        result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), result.Scenario); err != nil {
		return "", err
	}
	if err := writeHeights(filepath.Join(runDir, heightsFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHeights(path string, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, result.Bodies...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, q := range result.Heights {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range q {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadScenario returns the scenario a run was made from.
func (s *Store) LoadScenario(runID string) (*config.Scenario, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

// LoadHeights returns the recorded body heights and their sample times.
func (s *Store) LoadHeights(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, heightsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	heights := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		q := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			q = append(q, val)
		}
		heights = append(heights, q)
	}

	return heights, times, nil
}
