package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/config"
	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/metrics"
	"github.com/san-kum/robodiagram/internal/multibody"
	"github.com/san-kum/robodiagram/internal/planning"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
	"github.com/san-kum/robodiagram/internal/visualization"
)

// DefaultSamplePeriod is the spacing of recorded body heights.
const DefaultSamplePeriod = 0.01

var ErrNotSetup = errors.New("experiment: not set up")

// Result is the outcome of one scenario run.
type Result struct {
	ID       string
	Scenario *config.Scenario
	Started  time.Time
	Elapsed  time.Duration
	Bodies   []string
	Times    []float64
	// Heights holds one row per sample, one column per body.
	Heights  [][]float64
	Channels []lcm.ChannelStat
	Stats    analysis.Stats
	Metrics  map[string]float64
}

type Option func(*Experiment)

// WithBaseDir resolves relative model file paths against dir.
func WithBaseDir(dir string) Option {
	return func(e *Experiment) { e.baseDir = dir }
}

func WithSamplePeriod(period float64) Option {
	return func(e *Experiment) { e.samplePeriod = period }
}

// WithObserver is notified after every simulator step.
func WithObserver(o analysis.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

// Experiment is a scenario compiled into a diagram and a simulator.
type Experiment struct {
	cfg          *config.Scenario
	baseDir      string
	samplePeriod float64
	observers    []analysis.Observer

	diagram   *planning.RobotDiagram[scalar.Float]
	plant     *multibody.Plant[scalar.Float]
	buses     *lcm.Buses
	recorder  *lcm.Recorder
	simulator *analysis.Simulator
	plantCtx  *systems.Context[scalar.Float]
	metrics   metrics.Set

	result     *Result
	nextSample float64
}

func New(cfg *config.Scenario, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, samplePeriod: DefaultSamplePeriod}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup validates the scenario and builds the diagram, buses and simulator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if !(e.samplePeriod > 0) {
		return fmt.Errorf("experiment: sample period must be positive, got %g", e.samplePeriod)
	}
	rdb, err := planning.NewRobotDiagramBuilder[scalar.Float](planning.WithTimeStep(e.cfg.TimeStep))
	if err != nil {
		return err
	}
	if err := e.load(rdb); err != nil {
		return err
	}
	plant, err := rdb.MutablePlant()
	if err != nil {
		return err
	}
	e.plant = plant
	for _, name := range sortedKeys(e.cfg.PlantParams) {
		if err := plant.SetParam(name, e.cfg.PlantParams[name]); err != nil {
			return fmt.Errorf("experiment: plant_params: %w", err)
		}
	}
	if err := rdb.FinalizePlant(); err != nil {
		return err
	}
	sg, err := rdb.MutableSceneGraph()
	if err != nil {
		return err
	}
	b, err := rdb.MutableBuilder()
	if err != nil {
		return err
	}
	e.buses, err = lcm.ApplyBusConfig(e.cfg.LcmBuses, b)
	if err != nil {
		return err
	}
	err = visualization.ApplyConfig(e.cfg.Visualization, b,
		visualization.WithBuses[scalar.Float](e.buses),
		visualization.WithPlant(plant),
		visualization.WithSceneGraph(sg))
	if err != nil {
		return err
	}
	e.diagram, err = rdb.BuildDiagram()
	if err != nil {
		return err
	}
	return e.start()
}

func (e *Experiment) load(rdb *planning.RobotDiagramBuilder[scalar.Float]) error {
	parser, err := rdb.MutableParser()
	if err != nil {
		return err
	}
	parser.SetAutoRenaming(e.cfg.AutoRenaming)
	for _, m := range e.cfg.Models {
		if m.Builtin != "" {
			_, err = parser.AddBuiltin(m.Builtin)
		} else {
			path := m.File
			if e.baseDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(e.baseDir, path)
			}
			_, err = parser.AddAllModelsFromFile(path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Experiment) start() error {
	root := e.diagram.CreateDefaultContext()
	plantCtx, err := e.diagram.MutablePlantContext(root)
	if err != nil {
		return err
	}
	e.plantCtx = plantCtx
	if err := e.applyInitialHeights(); err != nil {
		return err
	}

	if iface, err := e.buses.Find("experiment", visualization.BusName(e.cfg.Visualization)); err == nil {
		e.recorder, err = lcm.NewRecorder(iface)
		if err != nil {
			return err
		}
	}

	opts := []analysis.Option{
		analysis.WithConfig(e.cfg.Simulator),
		analysis.WithContext(root),
		analysis.WithObserver(analysis.ObserverFunc(e.sample)),
	}
	for _, o := range e.observers {
		opts = append(opts, analysis.WithObserver(o))
	}
	e.simulator, err = analysis.New(e.diagram, opts...)
	if err != nil {
		return err
	}

	plant := e.plant
	e.result = &Result{
		ID:       uuid.NewString(),
		Scenario: e.cfg,
		Started:  time.Now(),
	}
	masses := make([]float64, 0, plant.NumBodies())
	for _, body := range plant.Bodies() {
		e.result.Bodies = append(e.result.Bodies, plant.ScopedName(body))
		masses = append(masses, body.Mass)
	}
	e.metrics = metrics.Default(masses, plant.GetParams()["gravity"])
	e.nextSample = 0
	e.sample(0, root)
	if err := e.simulator.Initialize(); err != nil {
		return err
	}
	return nil
}

func (e *Experiment) applyInitialHeights() error {
	if len(e.cfg.InitialHeights) == 0 {
		return nil
	}
	plant := e.plant
	q, err := plant.GetPositions(e.plantCtx)
	if err != nil {
		return err
	}
	byName := make(map[string]multibody.BodyIndex)
	for _, body := range plant.Bodies() {
		byName[plant.ScopedName(body)] = body.Index
	}
	for _, name := range sortedKeys(e.cfg.InitialHeights) {
		i, ok := byName[name]
		if !ok {
			return fmt.Errorf("experiment: initial_heights: %w: %q", multibody.ErrUnknownBody, name)
		}
		q[i] = scalar.Float(e.cfg.InitialHeights[name])
	}
	return plant.SetPositions(e.plantCtx, q)
}

func (e *Experiment) sample(t float64, _ *systems.Context[scalar.Float]) {
	if t < e.nextSample-1e-9 {
		return
	}
	q, err := e.plant.GetPositions(e.plantCtx)
	if err != nil {
		return
	}
	v, err := e.plant.GetVelocities(e.plantCtx)
	if err != nil {
		return
	}
	heights := scalar.Floats(q)
	e.result.Times = append(e.result.Times, t)
	e.result.Heights = append(e.result.Heights, heights)
	e.metrics.Observe(metrics.Sample{T: t, Q: heights, V: scalar.Floats(v)})
	e.nextSample = (math.Floor(t/e.samplePeriod+1e-9) + 1) * e.samplePeriod
}

// Run advances to the scenario's simulation time.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.AdvanceTo(ctx, e.cfg.SimulationTime); err != nil {
		return nil, err
	}
	return e.Finish(), nil
}

// AdvanceTo advances the simulation to t.
func (e *Experiment) AdvanceTo(ctx context.Context, t float64) error {
	if e.simulator == nil {
		return ErrNotSetup
	}
	return e.simulator.AdvanceToContext(ctx, t)
}

// Finish delivers pending bus traffic, stops recording and returns the result
// so far. It returns nil before Setup.
func (e *Experiment) Finish() *Result {
	if e.simulator == nil {
		return nil
	}
	for _, name := range e.buses.Names() {
		if iface, err := e.buses.Find("experiment", name); err == nil {
			iface.HandleSubscriptions(0)
		}
	}
	if e.recorder != nil {
		e.result.Channels = e.recorder.Stats()
		e.recorder.Close()
		e.recorder = nil
	}
	e.result.Stats = e.simulator.Stats()
	e.result.Metrics = e.metrics.Values()
	e.result.Elapsed = time.Since(e.result.Started)
	logging.L().Info("experiment finished",
		zap.String("id", e.result.ID),
		zap.String("scenario", e.cfg.Name),
		zap.Float64("sim_time", e.result.Stats.Time),
		zap.Int("steps", e.result.Stats.Steps),
		zap.Int("publishes", e.result.Stats.Publishes),
		zap.Duration("elapsed", e.result.Elapsed))
	return e.result
}

// Time is the current simulation time.
func (e *Experiment) Time() float64 {
	if e.simulator == nil {
		return 0
	}
	return e.simulator.Stats().Time
}

// Heights returns the current body heights.
func (e *Experiment) Heights() ([]float64, error) {
	if e.diagram == nil {
		return nil, ErrNotSetup
	}
	q, err := e.plant.GetPositions(e.plantCtx)
	if err != nil {
		return nil, err
	}
	return scalar.Floats(q), nil
}

// Contacts returns the current contact forces keyed by scoped body name.
func (e *Experiment) Contacts() (map[string]float64, error) {
	if e.diagram == nil {
		return nil, ErrNotSetup
	}
	results, err := e.plant.EvalContactResults(e.plantCtx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, results.NumContacts())
	for _, pp := range results.PointPairs {
		out[pp.BodyName] += pp.Force.Float()
	}
	return out, nil
}

func (e *Experiment) Diagram() *planning.RobotDiagram[scalar.Float] { return e.diagram }
func (e *Experiment) Buses() *lcm.Buses                              { return e.buses }
func (e *Experiment) Scenario() *config.Scenario                     { return e.cfg }

// Bodies returns the scoped names of the plant's bodies.
func (e *Experiment) Bodies() []string {
	if e.result == nil {
		return nil
	}
	return slices.Clone(e.result.Bodies)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
