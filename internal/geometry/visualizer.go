package geometry

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/lcmt"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// VisualizerKind is the Kind of every Visualizer.
const VisualizerKind systems.Kind = "drake_visualizer"

const (
	LoadChannel = "DRAKE_VIEWER_LOAD_ROBOT"
	DrawChannel = "DRAKE_VIEWER_DRAW"
)

// ErrInvalidPeriod indicates a non-positive publish period.
var ErrInvalidPeriod = errors.New("geometry: publish period must be positive")

// VisualizerParams selects what a Visualizer publishes and how often.
type VisualizerParams struct {
	Role                 Role
	DefaultColor         Rgba
	PublishPeriod        float64
	ShowHydroelastic     bool
	UseRoleChannelSuffix bool
}

// DefaultVisualizerParams publishes illustration geometry at 64 Hz.
func DefaultVisualizerParams() VisualizerParams {
	return VisualizerParams{
		Role:          RoleIllustration,
		DefaultColor:  Rgba{R: 0.9, G: 0.9, B: 0.9, A: 1},
		PublishPeriod: 1.0 / 64,
	}
}

// ChannelSuffix returns "_PROXIMITY" and the like when UseRoleChannelSuffix is set.
func (p VisualizerParams) ChannelSuffix() string {
	if !p.UseRoleChannelSuffix {
		return ""
	}
	return "_" + strings.ToUpper(p.Role.String())
}

func (p VisualizerParams) LoadChannel() string { return LoadChannel + p.ChannelSuffix() }
func (p VisualizerParams) DrawChannel() string { return DrawChannel + p.ChannelSuffix() }

// Visualizer publishes the geometry of one role: a load message at
// initialization and a draw message every publish period.
type Visualizer[T scalar.Value[T]] struct {
	*systems.LeafSystem[T]

	params VisualizerParams
	bus    lcm.Interface
	query  *systems.InputPort[T]
}

func NewVisualizer[T scalar.Value[T]](bus lcm.Interface, params VisualizerParams) (*Visualizer[T], error) {
	if bus == nil {
		return nil, fmt.Errorf("geometry: visualizer needs a bus")
	}
	if !(params.PublishPeriod > 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidPeriod, params.PublishPeriod)
	}
	v := &Visualizer[T]{LeafSystem: systems.NewLeafSystem[T](VisualizerKind), params: params, bus: bus}
	v.query = v.DeclareInputPort("query_object")
	v.DeclareInitializationPublish(v.publishLoad)
	v.DeclarePeriodicPublish(params.PublishPeriod, 0, v.publishDraw)
	return v, nil
}

func (v *Visualizer[T]) QueryInput() *systems.InputPort[T] { return v.query }
func (v *Visualizer[T]) Params() VisualizerParams          { return v.params }
func (v *Visualizer[T]) Bus() lcm.Interface                { return v.bus }

func (v *Visualizer[T]) frames(q *QueryObject[T]) ([]FrameID, map[FrameID][]GeometryInfo) {
	var order []FrameID
	byFrame := make(map[FrameID][]GeometryInfo)
	for _, g := range q.Inspector().Geometries(v.params.Role) {
		if _, ok := byFrame[g.Frame]; !ok {
			order = append(order, g.Frame)
		}
		byFrame[g.Frame] = append(byFrame[g.Frame], g)
	}
	return order, byFrame
}

func (v *Visualizer[T]) publishLoad(ctx *systems.Context[T]) error {
	q, err := systems.EvalInput[*QueryObject[T]](v.query, ctx)
	if err != nil {
		return err
	}
	order, byFrame := v.frames(q)
	msg := lcmt.ViewerLoadRobot{Links: make([]lcmt.ViewerLink, 0, len(order))}
	for _, f := range order {
		link := lcmt.ViewerLink{Name: q.Inspector().FrameName(f), RobotNum: int(f)}
		for _, g := range byFrame[f] {
			color := v.params.DefaultColor
			if g.Properties.Color != nil {
				color = *g.Properties.Color
			}
			link.Geometries = append(link.Geometries, lcmt.ViewerGeometry{
				Type:         g.Shape.TypeName(),
				Position:     g.Offset,
				Color:        color.Array(),
				Dimensions:   g.Shape.Dimensions(),
				Hydroelastic: v.params.ShowHydroelastic && g.Properties.Hydroelastic,
			})
		}
		msg.Links = append(msg.Links, link)
	}
	logging.L().Debug("publishing viewer load",
		zap.String("channel", v.params.LoadChannel()), zap.Int("links", len(msg.Links)))
	return v.publish(v.params.LoadChannel(), msg)
}

func (v *Visualizer[T]) publishDraw(ctx *systems.Context[T]) error {
	q, err := systems.EvalInput[*QueryObject[T]](v.query, ctx)
	if err != nil {
		return err
	}
	order, _ := v.frames(q)
	msg := lcmt.ViewerDraw{TimestampMicros: lcmt.Micros(ctx.Time().Float())}
	for _, f := range order {
		p, ok := q.FramePose(f)
		if !ok {
			return fmt.Errorf("%w: frame %d", ErrMissingPose, f)
		}
		msg.LinkNames = append(msg.LinkNames, q.Inspector().FrameName(f))
		msg.RobotNums = append(msg.RobotNums, int(f))
		msg.Positions = append(msg.Positions, [3]float64{p.X.Float(), p.Y.Float(), p.Z.Float()})
	}
	return v.publish(v.params.DrawChannel(), msg)
}

func (v *Visualizer[T]) publish(channel string, msg any) error {
	data, err := lcmt.Encode(msg)
	if err != nil {
		return err
	}
	return v.bus.Publish(channel, data)
}

// AddVisualizer adds a Visualizer to b and connects it to sg's query port.
// On failure b is left unchanged.
func AddVisualizer[T scalar.Value[T]](b *systems.Builder[T], sg *SceneGraph[T], bus lcm.Interface, params VisualizerParams) (*Visualizer[T], error) {
	if sg == nil {
		return nil, fmt.Errorf("geometry: visualizer needs a scene graph")
	}
	var v *Visualizer[T]
	err := b.Atomically(func() error {
		var err error
		v, err = NewVisualizer[T](bus, params)
		if err != nil {
			return err
		}
		if err := b.AddSystem(v); err != nil {
			return err
		}
		return b.Connect(sg.QueryOutput(), v.QueryInput())
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
