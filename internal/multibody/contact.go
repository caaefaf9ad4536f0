package multibody

import (
	"errors"
	"math"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// PointPairContactInfo is one body pressing into the ground plane.
type PointPairContactInfo[T scalar.Value[T]] struct {
	Body     BodyIndex
	BodyName string
	Geometry geometry.GeometryID
	Depth    T
	// Force is the vertical force the ground applies to the body.
	Force T
	Point [3]T
}

// ContactResults lists every active contact at one instant.
type ContactResults[T scalar.Value[T]] struct {
	PointPairs []PointPairContactInfo[T]
}

func (r ContactResults[T]) NumContacts() int { return len(r.PointPairs) }

// EvalContactResults computes penalty contact forces from the scene graph's
// ground penetrations. A plant whose query input is unconnected has no contacts.
//
// Each contact acts as a spring-damper whose stiffness lets the body's weight
// sink by the penetration allowance, damped at damping_ratio of critical.
// Tension is clamped to zero.
func (p *Plant[T]) EvalContactResults(ctx *systems.Context[T]) (ContactResults[T], error) {
	if err := p.checkContext(ctx); err != nil {
		return ContactResults[T]{}, err
	}
	q, err := systems.EvalInput[*geometry.QueryObject[T]](p.query, ctx)
	if errors.Is(err, systems.ErrInputNotConnected) {
		return ContactResults[T]{}, nil
	}
	if err != nil {
		return ContactResults[T]{}, err
	}
	pens, err := q.GroundPenetrations()
	if err != nil {
		return ContactResults[T]{}, err
	}

	byFrame := make(map[geometry.FrameID]Body, len(p.bodies))
	for _, b := range p.bodies {
		byFrame[b.frame] = b
	}
	x := p.stateOf(ctx)
	n := len(p.bodies)
	zero := scalar.From[T](0)

	var out ContactResults[T]
	for _, pen := range pens {
		b, ok := byFrame[pen.Frame]
		if !ok || !p.registered {
			continue
		}
		k := b.Mass * DefaultGravity / p.params["penetration_allowance"]
		c := 2 * p.params["damping_ratio"] * math.Sqrt(k*b.Mass)
		f := scalar.From[T](k).Mul(pen.Depth).Sub(scalar.From[T](c).Mul(x[n+int(b.Index)]))
		if f.Float() < 0 {
			f = zero
		}
		out.PointPairs = append(out.PointPairs, PointPairContactInfo[T]{
			Body:     b.Index,
			BodyName: p.ScopedName(b),
			Geometry: pen.Geometry,
			Depth:    pen.Depth,
			Force:    f,
			Point:    pen.Point,
		})
	}
	return out, nil
}
