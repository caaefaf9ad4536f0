package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/config"
	"github.com/san-kum/robodiagram/internal/experiment"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/storage"
	"github.com/san-kum/robodiagram/internal/systems"
	"github.com/san-kum/robodiagram/internal/tui"
)

var (
	dataDir      string
	scenarioFile string
	preset       string
	duration     float64
	integrator   string
	plot         bool
	save         bool
	jsonOut      bool
	live         bool
	frameRate    int
	frame        float64
	showPlot     bool
	phaseBody    string
)

// main configures logging from the environment and executes the root command.
func main() {
	envCfg, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l, err := logging.New(envCfg.LogLevel, envCfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Set(l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = newRootCmd(envCfg).ExecuteContext(ctx)
	stop()
	_ = l.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(envCfg config.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "robodiagram",
		Short:        "robot diagram simulation with lcm visualization",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envCfg.DataDir, "data directory")

	scenarioFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario file path (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
		cmd.Flags().Float64Var(&duration, "time", 0, "override simulation time")
		cmd.Flags().StringVar(&integrator, "integrator", "", "override integrator")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot body heights")
	runCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as json")
	runCmd.Flags().BoolVar(&live, "live", false, "repaint body heights while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --live")

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "list the systems and connections of a scenario's diagram",
		Args:  cobra.NoArgs,
		RunE:  describeScenario,
	}
	scenarioFlags(describeCmd)

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list the plant parameters of a scenario",
		Args:  cobra.NoArgs,
		RunE:  plantParams,
	}
	scenarioFlags(paramsCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run a scenario in an interactive terminal view",
		Args:  cobra.NoArgs,
		RunE:  watchScenario,
	}
	scenarioFlags(watchCmd)
	watchCmd.Flags().Float64Var(&frame, "frame", tui.FrameInterval.Seconds(), "simulated seconds per frame")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&showPlot, "plot", true, "plot body heights")
	showCmd.Flags().StringVar(&phaseBody, "phase", "", "draw the height phase portrait of a body")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				models := make([]string, 0, len(p.Models))
				for _, m := range p.Models {
					models = append(models, firstNonEmpty(m.Builtin, m.File))
				}
				fmt.Fprintf(w, "  %-14s %s  %.1fs\n", name, strings.Join(models, ","), p.SimulationTime)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, describeCmd, paramsCmd, watchCmd, listCmd, showCmd, presetsCmd)
	return rootCmd
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// loadScenario resolves --scenario, --preset and the overrides, in that order.
// The returned directory anchors relative model paths.
func loadScenario() (*config.Scenario, string, error) {
	var (
		cfg *config.Scenario
		dir = "."
		err error
	)
	switch {
	case scenarioFile != "":
		cfg, err = config.Load(scenarioFile)
		if err != nil {
			return nil, "", err
		}
		dir = filepath.Dir(scenarioFile)
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultScenario()
	}
	if duration > 0 {
		cfg.SimulationTime = duration
	}
	if integrator != "" {
		cfg.Simulator.Integrator = integrator
	}
	return cfg, dir, cfg.Validate()
}

func setup(opts ...experiment.Option) (*experiment.Experiment, error) {
	cfg, dir, err := loadScenario()
	if err != nil {
		return nil, err
	}
	e := experiment.New(cfg, append([]experiment.Option{experiment.WithBaseDir(dir)}, opts...)...)
	if err := e.Setup(); err != nil {
		return nil, err
	}
	return e, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	var renderer *tui.LiveRenderer
	observer := analysis.ObserverFunc(func(t float64, root *systems.Context[scalar.Float]) {
		if renderer != nil {
			renderer.OnStep(t, root)
		}
	})
	e, err := setup(experiment.WithObserver(observer))
	if err != nil {
		return err
	}
	if live && !jsonOut {
		renderer = tui.NewLiveRenderer(w, e.Scenario().Name, e.Bodies(), e.Heights, frameRate)
		renderer.Start()
		defer renderer.Stop()
	}

	result, err := e.Run(cmd.Context())
	if err != nil {
		e.Finish()
		return err
	}
	if renderer != nil {
		renderer.Frame(e.Time())
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		run, err := st.Save(result)
		if err != nil {
			return err
		}
		if !jsonOut {
			fmt.Fprintf(w, "saved: %s\n", run)
		}
	}

	if jsonOut {
		return storage.ExportJSONTo(w, result)
	}
	printSummary(w, result)
	if plot {
		plotHeights(w, result.Bodies, result.Heights)
	}
	return nil
}

func printSummary(w io.Writer, res *experiment.Result) {
	fmt.Fprintln(w, tui.Header.Render(tui.Title.Render(res.Scenario.Name)+"  "+tui.Subtle.Render(res.ID)))
	fmt.Fprintln(w, "  "+tui.Metric("sim time", fmt.Sprintf("%.3fs", res.Stats.Time))+
		"  "+tui.Metric("steps", fmt.Sprint(res.Stats.Steps))+
		"  "+tui.Metric("publishes", fmt.Sprint(res.Stats.Publishes))+
		"  "+tui.Metric("wall", res.Elapsed.Round(time.Millisecond).String()))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  BODY\tFINAL HEIGHT")
	if n := len(res.Heights); n > 0 {
		last := res.Heights[n-1]
		for i, body := range res.Bodies {
			if i < len(last) {
				fmt.Fprintf(tw, "  %s\t%.4f\n", body, last[i])
			}
		}
	}
	tw.Flush()

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CHANNEL\tMESSAGES\tBYTES")
	for _, ch := range res.Channels {
		fmt.Fprintf(tw, "  %s\t%d\t%d\n", ch.Channel, ch.Count, ch.Bytes)
	}
	tw.Flush()
	printMetrics(w, res.Metrics)
}

func printMetrics(w io.Writer, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintln(w, "  "+tui.Metric(name, fmt.Sprintf("%.4g", metrics[name])))
	}
}

func plotHeights(w io.Writer, bodies []string, heights [][]float64) {
	if len(heights) == 0 {
		fmt.Fprintln(w, "no data to plot")
		return
	}
	for i, body := range bodies {
		data := make([]float64, len(heights))
		for j, row := range heights {
			if i < len(row) {
				data[j] = row[i]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(body+" height"),
		)
		fmt.Fprintf(w, "\n%s\n", graph)
	}
}

func describeScenario(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Finish()

	w := cmd.OutOrStdout()
	d := e.Diagram()
	fmt.Fprintln(w, tui.Header.Render(tui.Title.Render(e.Scenario().Name)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYSTEM\tINPUTS\tOUTPUTS")
	for _, s := range d.Systems() {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Name(), s.NumInputPorts(), s.NumOutputPorts())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO")
	for _, c := range d.Connections() {
		fmt.Fprintf(tw, "%s.%s\t%s.%s\n", c.FromSystem, c.FromPort, c.ToSystem, c.ToPort)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, tui.MetricLabel.Render("bodies: ")+strings.Join(e.Bodies(), ", "))
	fmt.Fprintln(w, tui.MetricLabel.Render("buses:  ")+strings.Join(e.Buses().Names(), ", "))
	return nil
}

func plantParams(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Finish()

	params := e.Diagram().Plant().GetParams()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAM\tVALUE")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%g\n", name, params[name])
	}
	return tw.Flush()
}

func watchScenario(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Finish()

	cfg := e.Scenario()
	m := tui.NewModel(cmd.Context(), e, cfg.Name, cfg.SimulationTime, frame)
	final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tBODIES")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2fs\t%g\t%s\t%d\n",
			run.Run,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.SimulationTime,
			run.TimeStep,
			run.Integrator,
			len(run.Bodies),
		)
	}
	return tw.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	w := cmd.OutOrStdout()

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	heights, times, err := st.LoadHeights(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run: %s\n", meta.Run)
	fmt.Fprintf(w, "scenario: %s\n", meta.Scenario)
	fmt.Fprintf(w, "integrator: %s\n", meta.Integrator)
	fmt.Fprintf(w, "samples: %d\n", len(times))
	fmt.Fprintf(w, "steps: %d  publishes: %d\n", meta.Stats.Steps, meta.Stats.Publishes)
	for _, ch := range meta.Channels {
		fmt.Fprintf(w, "  %-32s %6d msgs %8d bytes\n", ch.Channel, ch.Count, ch.Bytes)
	}
	printMetrics(w, meta.Metrics)

	if showPlot {
		plotHeights(w, meta.Bodies, heights)
	}
	if phaseBody != "" {
		return plotPhase(w, phaseBody, meta.Bodies, times, heights)
	}
	return nil
}

func plotPhase(w io.Writer, body string, bodies []string, times []float64, heights [][]float64) error {
	idx := slices.Index(bodies, body)
	if idx < 0 {
		return fmt.Errorf("unknown body: %s (available: %v)", body, bodies)
	}
	z := make([]float64, len(heights))
	for i, row := range heights {
		if idx < len(row) {
			z[i] = row[idx]
		}
	}
	points, err := analysis.PhasePortrait(times, z)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nphase portrait: %s (height across, rate up)\n", body)
	fmt.Fprint(w, analysis.PlotPhase(points, 60, 16))
	return nil
}
