package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/config"
	"github.com/san-kum/robodiagram/internal/experiment"
	"github.com/san-kum/robodiagram/internal/lcm"
)

func sampleResult(name string, started time.Time) *experiment.Result {
	scenario := config.DefaultScenario()
	scenario.Name = name
	return &experiment.Result{
		ID:       "0f8fad5b-d9cb-469f-a165-70867728950e",
		Scenario: scenario,
		Started:  started,
		Elapsed:  1500 * time.Millisecond,
		Bodies:   []string{"drop_test::light", "drop_test::heavy"},
		Times:    []float64{0, 0.01},
		Heights:  [][]float64{{0.8, 1.2}, {0.7995, 1.1995}},
		Channels: []lcm.ChannelStat{{Channel: "DRAKE_VIEWER_DRAW", Count: 3, Bytes: 120}},
		Stats:    analysis.Stats{Time: 0.01, Steps: 10, Publishes: 4},
		Metrics:  map[string]float64{"energy": 19.6, "at_rest": 0.5},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	result := sampleResult("drop", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	runID, err := st.Save(result)
	require.NoError(t, err)
	assert.Equal(t, "drop_0f8fad5b", runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	want := RunMetadata{
		ID:             result.ID,
		Run:            runID,
		Scenario:       "drop",
		Timestamp:      result.Started,
		TimeStep:       0,
		SimulationTime: config.DefaultSimulationTime,
		Integrator:     "rk4",
		Elapsed:        result.Elapsed,
		Bodies:         result.Bodies,
		Stats:          result.Stats,
		Channels:       result.Channels,
		Metrics:        result.Metrics,
	}
	if diff := cmp.Diff(want, *meta); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	heights, times, err := st.LoadHeights(runID)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.01}, times)
	assert.Equal(t, result.Heights, heights)

	scenario, err := st.LoadScenario(runID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(result.Scenario, scenario))
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	older := sampleResult("old", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleResult("new", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	for _, r := range []*experiment.Result{older, newer} {
		_, err := st.Save(r)
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(st.baseDir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].Scenario)
	assert.Equal(t, "old", runs[1].Scenario)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	runID, err := st.Save(sampleResult("drop", time.Now()))
	require.NoError(t, err)

	for _, name := range []string{metadataFile, heightsFile, scenarioFile} {
		assert.FileExists(t, filepath.Join(tmpDir, runID, name))
	}

	header, err := os.ReadFile(filepath.Join(tmpDir, runID, heightsFile))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(header, []byte("time,drop_test::light,drop_test::heavy\n")))
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, _, err = st.LoadHeights("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = st.Save(nil)
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	result := sampleResult("drop", time.Now())
	require.NoError(t, ExportJSONTo(&buf, result))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, result.Heights, got.Heights)
	assert.Equal(t, "drop", got.Scenario)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, ExportJSON(path, result))
	assert.FileExists(t, path)
}
