package geometry

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// SceneGraphKind is the Kind of every SceneGraph.
const SceneGraphKind systems.Kind = "scene_graph"

var (
	// ErrUnknownSource indicates a source id that was never registered.
	ErrUnknownSource = errors.New("geometry: unknown source")

	// ErrUnknownFrame indicates a frame id that was never registered or belongs to another source.
	ErrUnknownFrame = errors.New("geometry: unknown frame")

	// ErrUnknownGeometry indicates a geometry id that was never registered.
	ErrUnknownGeometry = errors.New("geometry: unknown geometry")

	// ErrDuplicateName indicates a source, frame or geometry name already in use.
	ErrDuplicateName = errors.New("geometry: duplicate name")

	// ErrRegistrationClosed indicates registration after a context was created.
	ErrRegistrationClosed = errors.New("geometry: registration closed")

	// ErrMissingPose indicates a source whose pose input omits one of its frames.
	ErrMissingPose = errors.New("geometry: missing frame pose")
)

// Pose is a frame origin expressed in the world frame.
type Pose[T scalar.Value[T]] struct {
	X, Y, Z T
}

// FramePoseVector is the value a source writes to its pose input port.
type FramePoseVector[T scalar.Value[T]] map[FrameID]Pose[T]

// SceneGraph owns registered geometry and evaluates it against the poses its
// sources report. Each source gets one pose input port; the single output port
// "query" produces a *QueryObject.
type SceneGraph[T scalar.Value[T]] struct {
	*systems.LeafSystem[T]

	model  *model
	poses  []*systems.InputPort[T]
	query  *systems.OutputPort[T]
	closed atomic.Bool
}

func NewSceneGraph[T scalar.Value[T]]() *SceneGraph[T] {
	return newSceneGraph[T](&model{})
}

func newSceneGraph[T scalar.Value[T]](m *model) *SceneGraph[T] {
	sg := &SceneGraph[T]{LeafSystem: systems.NewLeafSystem[T](SceneGraphKind), model: m}
	sg.query = sg.DeclareOutputPort("query", sg.calcQuery)
	for _, name := range m.sources {
		sg.poses = append(sg.poses, sg.DeclareInputPort(name+"_pose"))
	}
	return sg
}

func (sg *SceneGraph[T]) QueryOutput() *systems.OutputPort[T] { return sg.query }
func (sg *SceneGraph[T]) Inspector() *Inspector               { return &Inspector{m: sg.model} }

// CreateDefaultContext closes registration.
func (sg *SceneGraph[T]) CreateDefaultContext() *systems.Context[T] {
	sg.closed.Store(true)
	return sg.LeafSystem.CreateDefaultContext()
}

// RegisterSource adds a pose producer and declares its pose input port.
func (sg *SceneGraph[T]) RegisterSource(name string) (SourceID, error) {
	if err := sg.open(); err != nil {
		return 0, err
	}
	for _, s := range sg.model.sources {
		if s == name {
			return 0, fmt.Errorf("%w: source %q", ErrDuplicateName, name)
		}
	}
	id := SourceID(len(sg.model.sources))
	sg.model.sources = append(sg.model.sources, name)
	sg.poses = append(sg.poses, sg.DeclareInputPort(name+"_pose"))
	return id, nil
}

// SourcePoseInput returns the pose input port of src.
func (sg *SceneGraph[T]) SourcePoseInput(src SourceID) (*systems.InputPort[T], error) {
	if !sg.hasSource(src) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSource, src)
	}
	return sg.poses[src], nil
}

// RegisterFrame adds a moving frame whose pose src reports.
func (sg *SceneGraph[T]) RegisterFrame(src SourceID, name string) (FrameID, error) {
	if err := sg.open(); err != nil {
		return 0, err
	}
	if !sg.hasSource(src) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSource, src)
	}
	for _, f := range sg.model.frames {
		if f.source == src && f.name == name {
			return 0, fmt.Errorf("%w: frame %q", ErrDuplicateName, name)
		}
	}
	id := FrameID(len(sg.model.frames) + 1)
	sg.model.frames = append(sg.model.frames, frameRecord{id: id, source: src, name: name})
	return id, nil
}

// RegisterGeometry attaches shape to frame at offset. WorldFrame is allowed.
func (sg *SceneGraph[T]) RegisterGeometry(src SourceID, frame FrameID, name string, shape Shape, offset [3]float64) (GeometryID, error) {
	if err := sg.open(); err != nil {
		return 0, err
	}
	if !sg.hasSource(src) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSource, src)
	}
	if frame != WorldFrame {
		f, ok := sg.Inspector().frame(frame)
		if !ok || f.source != src {
			return 0, fmt.Errorf("%w: %d", ErrUnknownFrame, frame)
		}
	}
	if shape == nil {
		return 0, fmt.Errorf("%w: nil shape for %q", ErrInvalidShape, name)
	}
	if err := shape.Validate(); err != nil {
		return 0, err
	}
	for _, g := range sg.model.geometries {
		if g.frame == frame && g.name == name {
			return 0, fmt.Errorf("%w: geometry %q", ErrDuplicateName, name)
		}
	}
	id := GeometryID(len(sg.model.geometries))
	sg.model.geometries = append(sg.model.geometries, geometryRecord{
		id:     id,
		source: src,
		frame:  frame,
		name:   name,
		shape:  shape,
		offset: offset,
		roles:  make(map[Role]Properties),
	})
	return id, nil
}

// AssignRole gives geometry role with props, replacing earlier properties for that role.
func (sg *SceneGraph[T]) AssignRole(src SourceID, id GeometryID, role Role, props Properties) error {
	if err := sg.open(); err != nil {
		return err
	}
	if role == RoleUnassigned {
		return fmt.Errorf("geometry: cannot assign role %s", role)
	}
	if int(id) < 0 || int(id) >= len(sg.model.geometries) || sg.model.geometries[id].source != src {
		return fmt.Errorf("%w: %d", ErrUnknownGeometry, id)
	}
	if props.Color != nil {
		if err := props.Color.Validate(); err != nil {
			return err
		}
		c := *props.Color
		props.Color = &c
	}
	sg.model.geometries[id].roles[role] = props
	return nil
}

func (sg *SceneGraph[T]) open() error {
	if sg.closed.Load() {
		return ErrRegistrationClosed
	}
	return nil
}

func (sg *SceneGraph[T]) hasSource(src SourceID) bool {
	return src >= 0 && int(src) < len(sg.model.sources)
}

func (sg *SceneGraph[T]) calcQuery(ctx *systems.Context[T]) (any, error) {
	in := sg.Inspector()
	poses := make(FramePoseVector[T], in.NumFrames())
	for i, name := range sg.model.sources {
		frames := in.framesOf(SourceID(i))
		if len(frames) == 0 {
			continue
		}
		reported, err := systems.EvalInput[FramePoseVector[T]](sg.poses[i], ctx)
		if err != nil {
			return nil, fmt.Errorf("geometry: source %q: %w", name, err)
		}
		for _, f := range frames {
			p, ok := reported[f]
			if !ok {
				return nil, fmt.Errorf("%w: source %q frame %q", ErrMissingPose, name, in.FrameName(f))
			}
			poses[f] = p
		}
	}
	return &QueryObject[T]{inspector: in, poses: poses}, nil
}

// Clone returns an unconnected scene graph over U with the same registrations
// and ports.
func Clone[U scalar.Value[U], T scalar.Value[T]](sg *SceneGraph[T]) *SceneGraph[U] {
	out := newSceneGraph[U](sg.model.clone())
	out.SetName(sg.Name())
	return out
}
