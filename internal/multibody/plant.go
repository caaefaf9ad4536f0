package multibody

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// PlantKind is the Kind of every Plant.
const PlantKind systems.Kind = "multibody_plant"

type ModelInstanceIndex int
type BodyIndex int

const (
	WorldModelInstance   ModelInstanceIndex = 0
	DefaultModelInstance ModelInstanceIndex = 1
)

const (
	DefaultGravity              = 9.81
	DefaultPenetrationAllowance = 1e-3
	DefaultStictionTolerance    = 1e-3
	DefaultDampingRatio         = 1.0
)

// Body is a rigid body constrained to translate along z at a fixed (X, Y).
type Body struct {
	Index    BodyIndex
	Name     string
	Instance ModelInstanceIndex
	Mass     float64
	X, Y     float64
	// Z is the default height of the body frame origin.
	Z float64

	frame geometry.FrameID
}

// BodySpec describes a body to add.
type BodySpec struct {
	Mass    float64
	X, Y, Z float64
}

// Plant is the physical model. Structure is mutable until Finalize; afterwards
// only runtime parameters change.
type Plant[T scalar.Value[T]] struct {
	*systems.LeafSystem[T]

	timeStep  float64
	params    map[string]float64
	instances []string
	bodies    []Body
	finalized bool

	sg         *geometry.SceneGraph[T]
	source     geometry.SourceID
	registered bool

	actuation *systems.InputPort[T]
	query     *systems.InputPort[T]
	poses     *systems.OutputPort[T]
	state     *systems.OutputPort[T]
	contacts  *systems.OutputPort[T]
}

// NewPlant returns an empty plant. A zero timeStep selects continuous dynamics.
func NewPlant[T scalar.Value[T]](timeStep float64) (*Plant[T], error) {
	if timeStep < 0 || math.IsNaN(timeStep) || math.IsInf(timeStep, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidTimeStep, timeStep)
	}
	return newPlant[T](timeStep), nil
}

// newPlant builds a plant for a time step the caller has already checked.
func newPlant[T scalar.Value[T]](timeStep float64) *Plant[T] {
	p := &Plant[T]{
		LeafSystem: systems.NewLeafSystem[T](PlantKind),
		timeStep:   timeStep,
		params: map[string]float64{
			"gravity":               DefaultGravity,
			"penetration_allowance": DefaultPenetrationAllowance,
			"stiction_tolerance":    DefaultStictionTolerance,
			"damping_ratio":         DefaultDampingRatio,
		},
		instances: []string{"WorldModelInstance", "DefaultModelInstance"},
	}
	p.actuation = p.DeclareInputPort("actuation")
	p.query = p.DeclareInputPort("geometry_query")
	p.poses = p.DeclareOutputPort("geometry_pose", p.calcFramePoses)
	p.state = p.DeclareOutputPort("state", p.calcState)
	p.contacts = p.DeclareOutputPort("contact_results", p.calcContactResults)
	return p
}

func (p *Plant[T]) TimeStep() float64                            { return p.timeStep }
func (p *Plant[T]) IsDiscrete() bool                             { return p.timeStep > 0 }
func (p *Plant[T]) IsFinalized() bool                            { return p.finalized }
func (p *Plant[T]) NumBodies() int                               { return len(p.bodies) }
func (p *Plant[T]) NumModelInstances() int                       { return len(p.instances) }
func (p *Plant[T]) Bodies() []Body                               { return slices.Clone(p.bodies) }
func (p *Plant[T]) ActuationInput() *systems.InputPort[T]        { return p.actuation }
func (p *Plant[T]) GeometryQueryInput() *systems.InputPort[T]    { return p.query }
func (p *Plant[T]) GeometryPoseOutput() *systems.OutputPort[T]   { return p.poses }
func (p *Plant[T]) StateOutput() *systems.OutputPort[T]          { return p.state }
func (p *Plant[T]) ContactResultsOutput() *systems.OutputPort[T] { return p.contacts }

// RegisterAsSourceForSceneGraph makes p the pose source for its bodies in sg.
func (p *Plant[T]) RegisterAsSourceForSceneGraph(sg *geometry.SceneGraph[T]) (geometry.SourceID, error) {
	if p.finalized {
		return 0, ErrFinalized
	}
	if p.registered {
		return 0, fmt.Errorf("multibody: plant %q already has a scene graph", p.Name())
	}
	name := p.Name()
	if name == "" {
		name = string(PlantKind)
	}
	src, err := sg.RegisterSource(name)
	if err != nil {
		return 0, err
	}
	p.sg, p.source, p.registered = sg, src, true
	for i := range p.bodies {
		if err := p.registerFrame(&p.bodies[i]); err != nil {
			return 0, err
		}
	}
	return src, nil
}

// SceneGraphSource reports the source id p registered under, if any.
func (p *Plant[T]) SceneGraphSource() (geometry.SourceID, bool) {
	return p.source, p.registered
}

func (p *Plant[T]) AddModelInstance(name string) (ModelInstanceIndex, error) {
	if p.finalized {
		return 0, ErrFinalized
	}
	if name == "" {
		return 0, fmt.Errorf("multibody: empty model instance name")
	}
	if p.HasModelInstanceNamed(name) {
		return 0, fmt.Errorf("%w: model instance %q", ErrDuplicateName, name)
	}
	p.instances = append(p.instances, name)
	return ModelInstanceIndex(len(p.instances) - 1), nil
}

func (p *Plant[T]) HasModelInstanceNamed(name string) bool {
	return slices.Contains(p.instances, name)
}

func (p *Plant[T]) ModelInstanceByName(name string) (ModelInstanceIndex, error) {
	i := slices.Index(p.instances, name)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModelInstance, name)
	}
	return ModelInstanceIndex(i), nil
}

func (p *Plant[T]) ModelInstanceName(i ModelInstanceIndex) string {
	if i < 0 || int(i) >= len(p.instances) {
		return ""
	}
	return p.instances[i]
}

// ScopedName returns "instance::body".
func (p *Plant[T]) ScopedName(b Body) string {
	return p.ModelInstanceName(b.Instance) + "::" + b.Name
}

// AddRigidBody adds a body to instance. Body names are unique per instance.
func (p *Plant[T]) AddRigidBody(name string, instance ModelInstanceIndex, spec BodySpec) (BodyIndex, error) {
	if p.finalized {
		return 0, ErrFinalized
	}
	if instance <= WorldModelInstance || int(instance) >= len(p.instances) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownModelInstance, instance)
	}
	if !(spec.Mass > 0) {
		return 0, fmt.Errorf("%w: body %q mass %g", ErrParameterBounds, name, spec.Mass)
	}
	if _, err := p.BodyByName(name, instance); err == nil {
		return 0, fmt.Errorf("%w: body %q", ErrDuplicateName, name)
	}
	b := Body{
		Index:    BodyIndex(len(p.bodies)),
		Name:     name,
		Instance: instance,
		Mass:     spec.Mass,
		X:        spec.X,
		Y:        spec.Y,
		Z:        spec.Z,
	}
	if p.registered {
		if err := p.registerFrame(&b); err != nil {
			return 0, err
		}
	}
	p.bodies = append(p.bodies, b)
	return b.Index, nil
}

func (p *Plant[T]) registerFrame(b *Body) error {
	frame, err := p.sg.RegisterFrame(p.source, p.ScopedName(*b))
	if err != nil {
		return err
	}
	b.frame = frame
	return nil
}

func (p *Plant[T]) Body(i BodyIndex) (Body, error) {
	if i < 0 || int(i) >= len(p.bodies) {
		return Body{}, fmt.Errorf("%w: %d", ErrUnknownBody, i)
	}
	return p.bodies[i], nil
}

func (p *Plant[T]) BodyByName(name string, instance ModelInstanceIndex) (Body, error) {
	for _, b := range p.bodies {
		if b.Name == name && b.Instance == instance {
			return b, nil
		}
	}
	return Body{}, fmt.Errorf("%w: %q in %q", ErrUnknownBody, name, p.ModelInstanceName(instance))
}

// RegisterVisualGeometry attaches illustration geometry to body. A nil color
// leaves the choice to the visualizer.
func (p *Plant[T]) RegisterVisualGeometry(body BodyIndex, name string, shape geometry.Shape, offset [3]float64, color *geometry.Rgba) (geometry.GeometryID, error) {
	return p.registerGeometry(body, name, shape, offset, geometry.RoleIllustration, geometry.Properties{Color: color})
}

// RegisterCollisionGeometry attaches proximity geometry to body.
func (p *Plant[T]) RegisterCollisionGeometry(body BodyIndex, name string, shape geometry.Shape, offset [3]float64, hydroelastic bool) (geometry.GeometryID, error) {
	return p.registerGeometry(body, name, shape, offset, geometry.RoleProximity, geometry.Properties{Hydroelastic: hydroelastic})
}

func (p *Plant[T]) registerGeometry(body BodyIndex, name string, shape geometry.Shape, offset [3]float64, role geometry.Role, props geometry.Properties) (geometry.GeometryID, error) {
	if p.finalized {
		return 0, ErrFinalized
	}
	if !p.registered {
		return 0, ErrNoSceneGraph
	}
	b, err := p.Body(body)
	if err != nil {
		return 0, err
	}
	id, err := p.sg.RegisterGeometry(p.source, b.frame, name, shape, offset)
	if err != nil {
		return 0, err
	}
	if err := p.sg.AssignRole(p.source, id, role, props); err != nil {
		return 0, err
	}
	return id, nil
}

// GetParams returns the runtime parameters.
func (p *Plant[T]) GetParams() map[string]float64 {
	out := make(map[string]float64, len(p.params))
	for k, v := range p.params {
		out[k] = v
	}
	return out
}

// SetParam changes one runtime parameter. Gravity may be any finite value; the
// other parameters must be positive.
func (p *Plant[T]) SetParam(name string, value float64) error {
	if _, ok := p.params[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || (name != "gravity" && value <= 0) {
		return fmt.Errorf("%w: %s = %g", ErrParameterBounds, name, value)
	}
	p.params[name] = value
	return nil
}

// Finalize seals the structure and declares the state.
func (p *Plant[T]) Finalize() error {
	if p.finalized {
		return ErrAlreadyFinalized
	}
	p.finalize()
	logging.L().Debug("plant finalized",
		zap.String("plant", p.Name()),
		zap.Int("bodies", len(p.bodies)),
		zap.Float64("time_step", p.timeStep))
	return nil
}

func (p *Plant[T]) finalize() {
	n := 2 * len(p.bodies)
	if p.IsDiscrete() {
		p.DeclareDiscreteState(n, p.timeStep, 0, p.discreteUpdate)
	} else {
		p.DeclareContinuousState(n, p.derivatives)
	}
	p.SetDefaultState(p.setDefaultState)
	p.finalized = true
}

func (p *Plant[T]) setDefaultState(ctx *systems.Context[T]) {
	x := p.stateOf(ctx)
	for i, b := range p.bodies {
		x[i] = scalar.From[T](b.Z)
	}
	for i := len(p.bodies); i < len(x); i++ {
		x[i] = scalar.From[T](0)
	}
}

func (p *Plant[T]) stateOf(ctx *systems.Context[T]) []T {
	if p.IsDiscrete() {
		return ctx.MutableDiscreteState()
	}
	return ctx.MutableContinuousState()
}

func (p *Plant[T]) checkContext(ctx *systems.Context[T]) error {
	if !p.finalized {
		return ErrNotFinalized
	}
	return p.ValidateContext(ctx)
}

// GetPositions returns the body heights in ctx.
func (p *Plant[T]) GetPositions(ctx *systems.Context[T]) ([]T, error) {
	if err := p.checkContext(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(p.stateOf(ctx)[:len(p.bodies)]), nil
}

// GetVelocities returns the body vertical velocities in ctx.
func (p *Plant[T]) GetVelocities(ctx *systems.Context[T]) ([]T, error) {
	if err := p.checkContext(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(p.stateOf(ctx)[len(p.bodies):]), nil
}

func (p *Plant[T]) SetPositions(ctx *systems.Context[T], q []T) error {
	return p.setHalf(ctx, q, 0)
}

func (p *Plant[T]) SetVelocities(ctx *systems.Context[T], v []T) error {
	return p.setHalf(ctx, v, len(p.bodies))
}

func (p *Plant[T]) setHalf(ctx *systems.Context[T], values []T, at int) error {
	if err := p.checkContext(ctx); err != nil {
		return err
	}
	if len(values) != len(p.bodies) {
		return fmt.Errorf("%w: got %d values for %d bodies", systems.ErrStateSize, len(values), len(p.bodies))
	}
	copy(p.stateOf(ctx)[at:], values)
	return nil
}

func (p *Plant[T]) actuationValues(ctx *systems.Context[T]) ([]T, error) {
	u, err := systems.EvalInput[[]T](p.actuation, ctx)
	if errors.Is(err, systems.ErrInputNotConnected) {
		u = make([]T, len(p.bodies))
		for i := range u {
			u[i] = scalar.From[T](0)
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	if len(u) != len(p.bodies) {
		return nil, fmt.Errorf("%w: actuation has %d entries for %d bodies", systems.ErrStateSize, len(u), len(p.bodies))
	}
	return u, nil
}

// accelerations returns the vertical acceleration of every body.
func (p *Plant[T]) accelerations(ctx *systems.Context[T]) ([]T, error) {
	u, err := p.actuationValues(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := p.EvalContactResults(ctx)
	if err != nil {
		return nil, err
	}
	force := slices.Clone(u)
	for _, c := range contacts.PointPairs {
		force[c.Body] = force[c.Body].Add(c.Force)
	}
	g := scalar.From[T](p.params["gravity"])
	a := make([]T, len(p.bodies))
	for i, b := range p.bodies {
		a[i] = force[i].Div(scalar.From[T](b.Mass)).Sub(g)
	}
	return a, nil
}

func (p *Plant[T]) derivatives(ctx *systems.Context[T], xdot []T) error {
	a, err := p.accelerations(ctx)
	if err != nil {
		return err
	}
	n := len(p.bodies)
	x := ctx.MutableContinuousState()
	copy(xdot[:n], x[n:])
	copy(xdot[n:], a)
	return nil
}

// discreteUpdate advances one time step with semi-implicit Euler.
func (p *Plant[T]) discreteUpdate(ctx *systems.Context[T], next []T) error {
	a, err := p.accelerations(ctx)
	if err != nil {
		return err
	}
	n := len(p.bodies)
	h := scalar.From[T](p.timeStep)
	for i := 0; i < n; i++ {
		v := next[n+i].Add(h.Mul(a[i]))
		next[n+i] = v
		next[i] = next[i].Add(h.Mul(v))
	}
	return nil
}

func (p *Plant[T]) calcFramePoses(ctx *systems.Context[T]) (any, error) {
	if err := p.checkContext(ctx); err != nil {
		return nil, err
	}
	x := p.stateOf(ctx)
	poses := make(geometry.FramePoseVector[T], len(p.bodies))
	if !p.registered {
		return poses, nil
	}
	for i, b := range p.bodies {
		poses[b.frame] = geometry.Pose[T]{X: scalar.From[T](b.X), Y: scalar.From[T](b.Y), Z: x[i]}
	}
	return poses, nil
}

func (p *Plant[T]) calcState(ctx *systems.Context[T]) (any, error) {
	if err := p.checkContext(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(p.stateOf(ctx)), nil
}

func (p *Plant[T]) calcContactResults(ctx *systems.Context[T]) (any, error) {
	return p.EvalContactResults(ctx)
}

// Clone returns an unconnected copy of p over U. The copy is not attached to a
// scene graph but keeps p's frame registrations, so its pose output matches.
func Clone[U scalar.Value[U], T scalar.Value[T]](p *Plant[T]) *Plant[U] {
	out := newPlant[U](p.timeStep)
	out.SetName(p.Name())
	out.params = p.GetParams()
	out.instances = slices.Clone(p.instances)
	out.bodies = slices.Clone(p.bodies)
	out.source, out.registered = p.source, p.registered
	if p.finalized {
		out.finalize()
	}
	return out
}
