package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/robodiagram/internal/config"
	"github.com/san-kum/robodiagram/internal/storage"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd(config.Env{DataDir: t.TempDir()})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestPresetsCommand(t *testing.T) {
	out := execute(t, "presets")
	for _, name := range config.ListPresets() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "drop_test")
}

func TestRunJSON(t *testing.T) {
	out := execute(t, "run", "--preset", "drop", "--time", "0.2", "--json")

	var data storage.ExportData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "drop", data.Scenario)
	assert.Equal(t, 0.2, data.SimulationTime)
	assert.Len(t, data.Times, 21)
	assert.NotEmpty(t, data.Channels)
	assert.InDelta(t, 0.2, data.Stats.Time, 1e-9)
}

func TestRunSummaryAndPlot(t *testing.T) {
	out := execute(t, "run", "--preset", "headless", "--time", "0.1", "--plot")
	assert.Contains(t, out, "headless")
	assert.Contains(t, out, "FINAL HEIGHT")
	assert.Contains(t, out, "energy_loss")
	assert.Contains(t, out, "height")
}

func TestRunIntegratorOverride(t *testing.T) {
	root := newRootCmd(config.Env{DataDir: t.TempDir()})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--integrator", "leapfrog"})
	assert.Error(t, root.Execute())
}

func TestUnknownPreset(t *testing.T) {
	root := newRootCmd(config.Env{DataDir: t.TempDir()})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"describe", "--preset", "nope"})
	assert.ErrorContains(t, root.Execute(), "unknown preset: nope")
}

func TestDescribe(t *testing.T) {
	out := execute(t, "describe")
	assert.Contains(t, out, "plant")
	assert.Contains(t, out, "scene_graph")
	assert.Contains(t, out, "FROM")
	assert.Contains(t, out, "bodies:")
	assert.Contains(t, out, "default")
}

func TestParams(t *testing.T) {
	out := execute(t, "params", "--preset", "moon")
	assert.Contains(t, out, "gravity")
	assert.Contains(t, out, "1.62")
}

func TestSaveListShow(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) string {
		root := newRootCmd(config.Env{DataDir: dir})
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		require.NoError(t, root.Execute(), out.String())
		return out.String()
	}

	run("run", "--preset", "headless", "--time", "0.1", "--save")

	runs, err := storage.New(dir).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Contains(t, run("list"), runs[0].Run)

	shown := run("show", runs[0].Run, "--plot=false")
	assert.Contains(t, shown, "scenario: headless")
	assert.Contains(t, shown, "samples: 11")

	phase := run("show", runs[0].Run, "--plot=false", "--phase", runs[0].Bodies[0])
	assert.Contains(t, phase, "phase portrait: "+runs[0].Bodies[0])
	assert.Contains(t, phase, "•")

	root := newRootCmd(config.Env{DataDir: dir})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"show", runs[0].Run, "--phase", "nobody"})
	assert.ErrorContains(t, root.Execute(), "unknown body: nobody")
}

func TestListEmpty(t *testing.T) {
	assert.Contains(t, execute(t, "list"), "no runs found")
}
