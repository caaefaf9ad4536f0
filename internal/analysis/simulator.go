package analysis

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/integrators"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

const (
	DefaultIntegrator = "rk4"
	DefaultMaxStep    = 1e-3

	minAdaptiveStep = 1e-10
	timeEpsilon     = 1e-10
)

// Config controls continuous integration.
type Config struct {
	Integrator string  `yaml:"integrator"`
	MaxStep    float64 `yaml:"max_step"`
	// Accuracy enables error control when positive and the integrator
	// carries an error estimate.
	Accuracy float64 `yaml:"accuracy"`
}

func DefaultConfig() Config {
	return Config{Integrator: DefaultIntegrator, MaxStep: DefaultMaxStep}
}

func (c Config) validate() error {
	if c.MaxStep <= 0 || math.IsNaN(c.MaxStep) || math.IsInf(c.MaxStep, 0) {
		return fmt.Errorf("%w: max step must be positive, got %g", ErrInvalidConfig, c.MaxStep)
	}
	if c.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy must not be negative, got %g", ErrInvalidConfig, c.Accuracy)
	}
	return nil
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(t float64, root *systems.Context[scalar.Float])
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t float64, root *systems.Context[scalar.Float])

func (f ObserverFunc) OnStep(t float64, root *systems.Context[scalar.Float]) { f(t, root) }

// Stats counts the work done so far.
type Stats struct {
	Time            float64 `json:"time"`
	Steps           int     `json:"steps"`
	RejectedSteps   int     `json:"rejected_steps"`
	DerivativeEvals int     `json:"derivative_evals"`
	DiscreteUpdates int     `json:"discrete_updates"`
	Publishes       int     `json:"publishes"`
}

type Option func(*Simulator)

func WithConfig(cfg Config) Option {
	return func(s *Simulator) { s.cfg = cfg }
}

// WithContext simulates from root instead of a fresh default context.
func WithContext(root *systems.Context[scalar.Float]) Option {
	return func(s *Simulator) { s.root = root }
}

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

type timedEvent struct {
	system string
	update bool
	period float64
	offset float64
	next   int
	fire   func() error
}

func (e *timedEvent) at() float64 { return e.offset + float64(e.next)*e.period }

// skipTo moves the event past every firing at or before t.
func (e *timedEvent) skipTo(t float64) {
	for e.at() <= t+timeEpsilon {
		e.next++
	}
}

type handler struct {
	system string
	fire   func() error
}

// Simulator advances one diagram. It is not safe for concurrent use.
type Simulator struct {
	diagram    *systems.Diagram[scalar.Float]
	root       *systems.Context[scalar.Float]
	cfg        Config
	integrator integrators.Integrator
	observers  []Observer

	leaves     []systems.LeafBinding[scalar.Float]
	continuous []systems.LeafBinding[scalar.Float]
	numStates  int
	updates    []*timedEvent
	publishes  []*timedEvent
	perStep    []handler
	onInit     []handler

	initialized bool
	dtHint      float64
	stats       Stats
}

func New(d systems.DiagramProvider[scalar.Float], opts ...Option) (*Simulator, error) {
	s := &Simulator{diagram: d.AsDiagram(), cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.ByName(s.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s.integrator = integ
	if s.root == nil {
		s.root = s.diagram.CreateDefaultContext()
	}
	leaves, err := s.diagram.Leaves(s.root)
	if err != nil {
		return nil, err
	}
	s.leaves = leaves
	s.collect()
	for _, ev := range append(append([]*timedEvent(nil), s.updates...), s.publishes...) {
		if ev.period <= 0 {
			return nil, fmt.Errorf("%w: %s declares period %g", ErrInvalidConfig, ev.system, ev.period)
		}
	}
	return s, nil
}

func (s *Simulator) collect() {
	for _, lb := range s.leaves {
		leaf, ctx, name := lb.Leaf, lb.Context, lb.System.Name()
		if leaf.NumContinuousStates() > 0 {
			s.continuous = append(s.continuous, lb)
			s.numStates += leaf.NumContinuousStates()
		}
		if ev, ok := leaf.DiscreteUpdate(); ok {
			s.updates = append(s.updates, &timedEvent{
				system: name, update: true, period: ev.Period, offset: ev.Offset,
				fire: func() error { return s.checkDiscrete(name, leaf.ApplyDiscreteUpdate(ctx), ctx) },
			})
		}
		for _, ev := range leaf.PeriodicPublishes() {
			s.publishes = append(s.publishes, &timedEvent{
				system: name, period: ev.Period, offset: ev.Offset,
				fire: func() error { return ev.Handler(ctx) },
			})
		}
		for _, h := range leaf.InitializationPublishes() {
			s.onInit = append(s.onInit, handler{system: name, fire: func() error { return h(ctx) }})
		}
		for _, h := range leaf.PerStepPublishes() {
			s.perStep = append(s.perStep, handler{system: name, fire: func() error { return h(ctx) }})
		}
	}
}

// Context is the root context being advanced.
func (s *Simulator) Context() *systems.Context[scalar.Float] { return s.root }

func (s *Simulator) Stats() Stats {
	st := s.stats
	st.Time = s.now()
	return st
}

func (s *Simulator) now() float64 { return float64(s.root.Time()) }

// Initialize dispatches initialization and per-step publishes, then every
// periodic publish scheduled at the start time. AdvanceTo calls it on first use.
func (s *Simulator) Initialize() error {
	t0 := s.now()
	for _, ev := range append(append([]*timedEvent(nil), s.updates...), s.publishes...) {
		ev.next = 0
		for ev.at() < t0-timeEpsilon {
			ev.next++
		}
	}
	s.dtHint = s.cfg.MaxStep
	s.initialized = true

	if err := s.run(s.onInit); err != nil {
		return err
	}
	if err := s.run(s.perStep); err != nil {
		return err
	}
	if err := s.fireDue(s.publishes, t0); err != nil {
		return err
	}
	logging.L().Debug("simulator initialized",
		zap.Int("leaves", len(s.leaves)),
		zap.Int("continuous_states", s.numStates),
		zap.Int("discrete_updates", len(s.updates)),
		zap.Int("periodic_publishes", len(s.publishes)),
		zap.String("integrator", s.integrator.Name()),
		zap.Float64("t0", t0))
	return nil
}

func (s *Simulator) AdvanceTo(target float64) error {
	return s.AdvanceToContext(context.Background(), target)
}

// AdvanceToContext advances until target or until ctx is canceled. Discrete
// updates scheduled exactly at target are applied by the next call.
func (s *Simulator) AdvanceToContext(ctx context.Context, target float64) error {
	if !s.initialized {
		if err := s.Initialize(); err != nil {
			return err
		}
	}
	now := s.now()
	if target < now-timeEpsilon || math.IsNaN(target) {
		return fmt.Errorf("%w: at t=%g, asked for t=%g", ErrInvalidTime, now, target)
	}

	for now < target-timeEpsilon {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.fireDue(s.updates, now); err != nil {
			return err
		}

		next := math.Min(target, now+s.cfg.MaxStep)
		if te := s.nextEvent(now); te < next {
			next = te
		}
		if err := s.integrate(now, next); err != nil {
			return err
		}
		now = next
		s.root.SetTime(scalar.Float(now))
		s.stats.Steps++

		if err := s.run(s.perStep); err != nil {
			return err
		}
		if err := s.fireDue(s.publishes, now); err != nil {
			return err
		}
		for _, o := range s.observers {
			o.OnStep(now, s.root)
		}
	}
	return nil
}

func (s *Simulator) run(hs []handler) error {
	for _, h := range hs {
		if err := h.fire(); err != nil {
			return fmt.Errorf("analysis: publish of %s: %w", h.system, err)
		}
		s.stats.Publishes++
	}
	return nil
}

func (s *Simulator) fireDue(events []*timedEvent, now float64) error {
	for _, ev := range events {
		if ev.at() > now+timeEpsilon {
			continue
		}
		if err := ev.fire(); err != nil {
			return fmt.Errorf("analysis: event of %s at t=%g: %w", ev.system, now, err)
		}
		ev.skipTo(now)
		if ev.update {
			s.stats.DiscreteUpdates++
		} else {
			s.stats.Publishes++
		}
	}
	return nil
}

// nextEvent is the earliest scheduled event strictly after now.
func (s *Simulator) nextEvent(now float64) float64 {
	next := math.Inf(1)
	for _, events := range [][]*timedEvent{s.updates, s.publishes} {
		for _, ev := range events {
			if t := ev.at(); t > now+timeEpsilon && t < next {
				next = t
			}
		}
	}
	return next
}

func (s *Simulator) checkDiscrete(name string, err error, ctx *systems.Context[scalar.Float]) error {
	if err != nil {
		return err
	}
	x := scalar.Floats(ctx.DiscreteState())
	if !finite(x) {
		return &SimulationError{Step: s.stats.Steps, Time: s.now(), State: x,
			Wrapped: fmt.Errorf("%w in discrete state of %s", ErrInvalidState, name)}
	}
	return nil
}

func (s *Simulator) integrate(from, to float64) error {
	if s.numStates == 0 {
		return nil
	}
	x := s.gather()
	var err error
	if adaptive, ok := s.integrator.(integrators.Adaptive); ok && s.cfg.Accuracy > 0 {
		x, err = s.adaptiveStep(adaptive, from, to, x)
	} else {
		x, err = s.integrator.Step(s.derivative, from, x, to-from)
	}
	if err != nil {
		return &SimulationError{Step: s.stats.Steps, Time: from, Wrapped: err}
	}
	if !finite(x) {
		return &SimulationError{Step: s.stats.Steps, Time: to, State: x, Wrapped: ErrInvalidState}
	}
	return s.scatter(x)
}

func (s *Simulator) adaptiveStep(integ integrators.Adaptive, from, to float64, x []float64) ([]float64, error) {
	t := from
	for t < to-timeEpsilon {
		h := math.Min(s.dtHint, to-t)
		next, dtNext, accepted, err := integ.StepAdaptive(s.derivative, t, x, h, s.cfg.Accuracy)
		if err != nil {
			return nil, err
		}
		s.dtHint = math.Min(dtNext, s.cfg.MaxStep)
		if !accepted {
			s.stats.RejectedSteps++
			if s.dtHint < minAdaptiveStep {
				return nil, fmt.Errorf("%w: %g", ErrStepTooSmall, s.dtHint)
			}
			continue
		}
		x = next
		t += h
	}
	return x, nil
}

func (s *Simulator) derivative(t float64, x []float64) ([]float64, error) {
	s.stats.DerivativeEvals++
	s.root.SetTime(scalar.Float(t))
	if err := s.scatter(x); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(x))
	for _, lb := range s.continuous {
		xdot, err := lb.Leaf.CalcDerivatives(lb.Context)
		if err != nil {
			return nil, fmt.Errorf("analysis: derivatives of %s: %w", lb.System.Name(), err)
		}
		out = append(out, scalar.Floats(xdot)...)
	}
	return out, nil
}

func (s *Simulator) gather() []float64 {
	x := make([]float64, 0, s.numStates)
	for _, lb := range s.continuous {
		x = append(x, scalar.Floats(lb.Context.ContinuousState())...)
	}
	return x
}

func (s *Simulator) scatter(x []float64) error {
	off := 0
	for _, lb := range s.continuous {
		n := lb.Leaf.NumContinuousStates()
		seg := make([]scalar.Float, n)
		for i := range seg {
			seg[i] = scalar.Float(x[off+i])
		}
		if err := lb.Context.SetContinuousState(seg); err != nil {
			return err
		}
		off += n
	}
	return nil
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
