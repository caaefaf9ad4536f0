package geometry

import (
	"maps"
	"slices"
)

type SourceID int
type FrameID int
type GeometryID int

// WorldFrame is the fixed frame at the origin. It belongs to no source.
const WorldFrame FrameID = 0

// Properties are the per-role settings of one geometry. A nil Color means the
// publisher's default color.
type Properties struct {
	Color        *Rgba
	Hydroelastic bool
}

type frameRecord struct {
	id     FrameID
	source SourceID
	name   string
}

type geometryRecord struct {
	id     GeometryID
	source SourceID
	frame  FrameID
	name   string
	shape  Shape
	offset [3]float64
	roles  map[Role]Properties
}

// model is the scalar-independent registry shared by a scene graph and every
// query object it produces.
type model struct {
	sources    []string
	frames     []frameRecord
	geometries []geometryRecord
}

func (m *model) clone() *model {
	out := &model{
		sources:    slices.Clone(m.sources),
		frames:     slices.Clone(m.frames),
		geometries: slices.Clone(m.geometries),
	}
	for i := range out.geometries {
		out.geometries[i].roles = maps.Clone(out.geometries[i].roles)
	}
	return out
}

// FrameInfo describes one registered frame.
type FrameInfo struct {
	ID     FrameID
	Source string
	Name   string
}

// GeometryInfo describes one registered geometry. Properties holds the values
// for the role it was queried under.
type GeometryInfo struct {
	ID         GeometryID
	Frame      FrameID
	FrameName  string
	Name       string
	Shape      Shape
	Offset     [3]float64
	Roles      []Role
	Properties Properties
}

// Inspector answers structural questions about a scene graph.
type Inspector struct {
	m *model
}

func (in *Inspector) NumSources() int    { return len(in.m.sources) }
func (in *Inspector) NumFrames() int     { return len(in.m.frames) }
func (in *Inspector) NumGeometries() int { return len(in.m.geometries) }

func (in *Inspector) Sources() []string {
	return slices.Clone(in.m.sources)
}

func (in *Inspector) Frames() []FrameInfo {
	out := make([]FrameInfo, 0, len(in.m.frames))
	for _, f := range in.m.frames {
		out = append(out, FrameInfo{ID: f.id, Source: in.m.sources[f.source], Name: f.name})
	}
	return out
}

// FrameName returns the name of id, or "world" for WorldFrame.
func (in *Inspector) FrameName(id FrameID) string {
	if id == WorldFrame {
		return "world"
	}
	if f, ok := in.frame(id); ok {
		return f.name
	}
	return ""
}

// Geometries returns the geometries that carry role, in registration order.
// RoleUnassigned selects every geometry.
func (in *Inspector) Geometries(role Role) []GeometryInfo {
	var out []GeometryInfo
	for _, g := range in.m.geometries {
		props, ok := g.roles[role]
		if role != RoleUnassigned && !ok {
			continue
		}
		roles := slices.Sorted(maps.Keys(g.roles))
		out = append(out, GeometryInfo{
			ID:         g.id,
			Frame:      g.frame,
			FrameName:  in.FrameName(g.frame),
			Name:       g.name,
			Shape:      g.shape,
			Offset:     g.offset,
			Roles:      roles,
			Properties: props,
		})
	}
	return out
}

func (in *Inspector) frame(id FrameID) (frameRecord, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(in.m.frames) {
		return frameRecord{}, false
	}
	return in.m.frames[i], true
}

func (in *Inspector) framesOf(src SourceID) []FrameID {
	var out []FrameID
	for _, f := range in.m.frames {
		if f.source == src {
			out = append(out, f.id)
		}
	}
	return out
}
