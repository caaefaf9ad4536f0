package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/lcmt"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

func TestRoleString(t *testing.T) {
	for _, r := range []Role{RoleUnassigned, RoleProximity, RoleIllustration, RolePerception} {
		parsed, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
	assert.Equal(t, "Role(9)", Role(9).String())
	_, err := ParseRole("texture")
	assert.Error(t, err)
}

func TestRgbaYAML(t *testing.T) {
	var doc struct {
		Color Rgba `yaml:"color"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("color: [0.8, 0.1, 0.1]"), &doc))
	assert.Equal(t, Rgba{R: 0.8, G: 0.1, B: 0.1, A: 1}, doc.Color)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "- 1")

	assert.ErrorIs(t, yaml.Unmarshal([]byte("color: [1, 2]"), &doc), ErrInvalidColor)
	assert.ErrorIs(t, yaml.Unmarshal([]byte("color: [1, 2, 0, 1]"), &doc), ErrInvalidColor)
}

func TestNewShape(t *testing.T) {
	s, err := NewShape("box", []float64{1, 2, 0.5})
	require.NoError(t, err)
	assert.Equal(t, Box{Width: 1, Depth: 2, Height: 0.5}, s)
	assert.Equal(t, 0.25, s.HalfHeight())

	_, err = NewShape("sphere", []float64{0})
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewShape("cylinder", []float64{1})
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewShape("mesh", nil)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

type ball struct {
	sg    *SceneGraph[scalar.Float]
	src   SourceID
	frame FrameID
	geom  GeometryID
}

func newBall(t *testing.T) ball {
	t.Helper()
	sg := NewSceneGraph[scalar.Float]()
	src, err := sg.RegisterSource("plant")
	require.NoError(t, err)
	frame, err := sg.RegisterFrame(src, "ball")
	require.NoError(t, err)
	geom, err := sg.RegisterGeometry(src, frame, "collision", Sphere{Radius: 0.1}, [3]float64{})
	require.NoError(t, err)
	red := NewRgba(1, 0, 0, 1)
	require.NoError(t, sg.AssignRole(src, geom, RoleProximity, Properties{Hydroelastic: true}))
	require.NoError(t, sg.AssignRole(src, geom, RoleIllustration, Properties{Color: &red}))
	return ball{sg: sg, src: src, frame: frame, geom: geom}
}

func TestSceneGraphRegistration(t *testing.T) {
	b := newBall(t)
	sg := b.sg

	_, err := sg.RegisterSource("plant")
	assert.ErrorIs(t, err, ErrDuplicateName)
	_, err = sg.RegisterFrame(SourceID(7), "x")
	assert.ErrorIs(t, err, ErrUnknownSource)
	_, err = sg.RegisterGeometry(b.src, FrameID(42), "x", Sphere{Radius: 1}, [3]float64{})
	assert.ErrorIs(t, err, ErrUnknownFrame)
	_, err = sg.RegisterGeometry(b.src, b.frame, "collision", Sphere{Radius: 1}, [3]float64{})
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorIs(t, sg.AssignRole(b.src, GeometryID(3), RoleProximity, Properties{}), ErrUnknownGeometry)

	in := sg.Inspector()
	assert.Equal(t, []string{"plant"}, in.Sources())
	assert.Equal(t, []FrameInfo{{ID: b.frame, Source: "plant", Name: "ball"}}, in.Frames())
	require.Len(t, in.Geometries(RoleProximity), 1)
	assert.True(t, in.Geometries(RoleProximity)[0].Properties.Hydroelastic)
	assert.Empty(t, in.Geometries(RolePerception))
	assert.Equal(t, []Role{RoleProximity, RoleIllustration}, in.Geometries(RoleUnassigned)[0].Roles)

	port, err := sg.SourcePoseInput(b.src)
	require.NoError(t, err)
	assert.Equal(t, "plant_pose", port.Name())
	assert.Equal(t, 1, sg.NumInputPorts())

	sg.CreateDefaultContext()
	_, err = sg.RegisterSource("late")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestQueryObjectPenetrations(t *testing.T) {
	b := newBall(t)
	ctx := b.sg.CreateDefaultContext()
	port, _ := b.sg.SourcePoseInput(b.src)

	_, err := b.sg.QueryOutput().Eval(ctx)
	assert.ErrorIs(t, err, systems.ErrInputNotConnected)

	require.NoError(t, ctx.FixInputPortValue(port, FramePoseVector[scalar.Float]{}))
	_, err = b.sg.QueryOutput().Eval(ctx)
	assert.ErrorIs(t, err, ErrMissingPose)

	require.NoError(t, ctx.FixInputPortValue(port, FramePoseVector[scalar.Float]{b.frame: {Z: 0.04}}))
	q, err := systems.EvalOutput[*QueryObject[scalar.Float]](b.sg.QueryOutput(), ctx)
	require.NoError(t, err)
	pens, err := q.GroundPenetrations()
	require.NoError(t, err)
	require.Len(t, pens, 1)
	assert.InDelta(t, 0.06, pens[0].Depth.Float(), 1e-12)
	assert.InDelta(t, -0.03, pens[0].Point[2].Float(), 1e-12)

	require.NoError(t, ctx.FixInputPortValue(port, FramePoseVector[scalar.Float]{b.frame: {Z: 1}}))
	q, _ = systems.EvalOutput[*QueryObject[scalar.Float]](b.sg.QueryOutput(), ctx)
	pens, _ = q.GroundPenetrations()
	assert.Empty(t, pens)
}

func TestPenetrationDepthDerivative(t *testing.T) {
	b := newBall(t)
	sg := Clone[scalar.Dual](b.sg)
	ctx := sg.CreateDefaultContext()
	port, _ := sg.SourcePoseInput(b.src)
	z := scalar.Variable(0.05, 0, 1)
	require.NoError(t, ctx.FixInputPortValue(port, FramePoseVector[scalar.Dual]{b.frame: {Z: z}}))

	q, err := systems.EvalOutput[*QueryObject[scalar.Dual]](sg.QueryOutput(), ctx)
	require.NoError(t, err)
	pens, err := q.GroundPenetrations()
	require.NoError(t, err)
	require.Len(t, pens, 1)
	assert.InDelta(t, 0.05, pens[0].Depth.Float(), 1e-12)
	assert.Equal(t, -1.0, pens[0].Depth.Derivative(0))
}

func TestVisualizerChannels(t *testing.T) {
	p := DefaultVisualizerParams()
	assert.Equal(t, LoadChannel, p.LoadChannel())
	p.Role = RoleProximity
	p.UseRoleChannelSuffix = true
	assert.Equal(t, "DRAKE_VIEWER_LOAD_ROBOT_PROXIMITY", p.LoadChannel())
	assert.Equal(t, "DRAKE_VIEWER_DRAW_PROXIMITY", p.DrawChannel())

	bus, _ := lcm.New(lcm.Params{})
	p.PublishPeriod = 0
	_, err := NewVisualizer[scalar.Float](bus, p)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = NewVisualizer[scalar.Float](nil, DefaultVisualizerParams())
	assert.Error(t, err)
}

func TestVisualizerPublishes(t *testing.T) {
	ball := newBall(t)
	bus, _ := lcm.New(lcm.Params{})
	rec, err := lcm.NewRecorder(bus)
	require.NoError(t, err)

	b := systems.NewBuilder[scalar.Float]()
	require.NoError(t, b.AddSystem(ball.sg))
	v, err := AddVisualizer(b, ball.sg, bus, DefaultVisualizerParams())
	require.NoError(t, err)
	d, err := b.Build()
	require.NoError(t, err)

	root := d.CreateDefaultContext()
	sgCtx, err := d.SubsystemContext(ball.sg, root)
	require.NoError(t, err)
	port, _ := ball.sg.SourcePoseInput(ball.src)
	require.NoError(t, sgCtx.FixInputPortValue(port, FramePoseVector[scalar.Float]{ball.frame: {Z: 2}}))

	vCtx, err := d.SubsystemContext(v, root)
	require.NoError(t, err)
	for _, h := range v.InitializationPublishes() {
		require.NoError(t, h(vCtx))
	}
	root.SetTime(0.5)
	for _, e := range v.PeriodicPublishes() {
		require.NoError(t, e.Handler(vCtx))
	}
	bus.HandleSubscriptions(0)

	data, ok := rec.Last(LoadChannel)
	require.True(t, ok)
	var load lcmt.ViewerLoadRobot
	require.NoError(t, lcmt.Decode(data, &load))
	require.Len(t, load.Links, 1)
	assert.Equal(t, "ball", load.Links[0].Name)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, load.Links[0].Geometries[0].Color)
	assert.False(t, load.Links[0].Geometries[0].Hydroelastic)

	data, ok = rec.Last(DrawChannel)
	require.True(t, ok)
	var draw lcmt.ViewerDraw
	require.NoError(t, lcmt.Decode(data, &draw))
	assert.Equal(t, int64(500000), draw.TimestampMicros)
	assert.Equal(t, [][3]float64{{0, 0, 2}}, draw.Positions)
}

func TestAddVisualizerRollsBack(t *testing.T) {
	ball := newBall(t)
	bus, _ := lcm.New(lcm.Params{})
	b := systems.NewBuilder[scalar.Float]()

	_, err := AddVisualizer(b, ball.sg, bus, DefaultVisualizerParams())
	assert.ErrorIs(t, err, systems.ErrUnknownPort)
	assert.Empty(t, b.Systems())
}

func TestRegisterConversions(t *testing.T) {
	ball := newBall(t)
	bus, _ := lcm.New(lcm.Params{})
	b := systems.NewBuilder[scalar.Float]()
	require.NoError(t, b.AddSystem(ball.sg))
	_, err := AddVisualizer(b, ball.sg, bus, DefaultVisualizerParams())
	require.NoError(t, err)
	d, err := b.Build()
	require.NoError(t, err)

	c := systems.NewScalarConverter[scalar.Float, scalar.Expr]()
	RegisterConversions(c)
	sym, err := systems.ConvertDiagram(d, c)
	require.NoError(t, err)
	assert.Equal(t, d.Connections(), sym.Connections())

	sg, err := systems.LookupSubsystem[*SceneGraph[scalar.Expr]](sym, ball.sg.Name(), SceneGraphKind)
	require.NoError(t, err)
	assert.Equal(t, ball.sg.Inspector().Frames(), sg.Inspector().Frames())
}
