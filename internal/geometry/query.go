package geometry

import (
	"fmt"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// QueryObject is the value of the scene graph's query port: frame poses at one
// instant plus the registry they refer to.
type QueryObject[T scalar.Value[T]] struct {
	inspector *Inspector
	poses     FramePoseVector[T]
}

func (q *QueryObject[T]) Inspector() *Inspector { return q.inspector }

// FramePose returns the world pose of id. WorldFrame is always at the origin.
func (q *QueryObject[T]) FramePose(id FrameID) (Pose[T], bool) {
	if id == WorldFrame {
		return Pose[T]{}, true
	}
	p, ok := q.poses[id]
	return p, ok
}

// GeometryPosition returns the world position of a geometry's origin.
func (q *QueryObject[T]) GeometryPosition(g GeometryInfo) ([3]T, error) {
	p, ok := q.FramePose(g.Frame)
	if !ok {
		return [3]T{}, fmt.Errorf("%w: frame %d", ErrMissingPose, g.Frame)
	}
	return [3]T{
		p.X.Add(scalar.From[T](g.Offset[0])),
		p.Y.Add(scalar.From[T](g.Offset[1])),
		p.Z.Add(scalar.From[T](g.Offset[2])),
	}, nil
}

// PenetrationAsPointPair is one proximity geometry sinking into the ground
// plane z = 0.
type PenetrationAsPointPair[T scalar.Value[T]] struct {
	Geometry GeometryID
	Frame    FrameID
	Depth    T
	// Point is midway between the deepest point and the ground surface.
	Point [3]T
}

// GroundPenetrations lists every proximity geometry below the ground plane.
func (q *QueryObject[T]) GroundPenetrations() ([]PenetrationAsPointPair[T], error) {
	var out []PenetrationAsPointPair[T]
	half := scalar.From[T](0.5)
	for _, g := range q.inspector.Geometries(RoleProximity) {
		if g.Frame == WorldFrame {
			continue
		}
		pos, err := q.GeometryPosition(g)
		if err != nil {
			return nil, err
		}
		depth := scalar.From[T](g.Shape.HalfHeight()).Sub(pos[2])
		if depth.Float() <= 0 {
			continue
		}
		out = append(out, PenetrationAsPointPair[T]{
			Geometry: g.ID,
			Frame:    g.Frame,
			Depth:    depth,
			Point:    [3]T{pos[0], pos[1], depth.Neg().Mul(half)},
		})
	}
	return out, nil
}
