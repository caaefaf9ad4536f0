package geometry

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidColor indicates a color with the wrong arity or a channel outside [0, 1].
var ErrInvalidColor = errors.New("geometry: invalid color")

// Role classifies what a geometry is used for.
type Role int

const (
	RoleUnassigned Role = iota
	RoleProximity
	RoleIllustration
	RolePerception
)

var roleNames = [...]string{
	RoleUnassigned:   "unassigned",
	RoleProximity:    "proximity",
	RoleIllustration: "illustration",
	RolePerception:   "perception",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return RoleUnassigned, fmt.Errorf("geometry: unknown role %q", s)
}

// Rgba is a color with channels in [0, 1]. In YAML it is written [r, g, b, a]
// or [r, g, b] with alpha 1.
type Rgba struct {
	R, G, B, A float64
}

func NewRgba(r, g, b, a float64) Rgba {
	return Rgba{R: r, G: g, B: b, A: a}
}

// RgbaFromSlice builds a color from three or four channels.
func RgbaFromSlice(v []float64) (Rgba, error) {
	var c Rgba
	switch len(v) {
	case 3:
		c = Rgba{R: v[0], G: v[1], B: v[2], A: 1}
	case 4:
		c = Rgba{R: v[0], G: v[1], B: v[2], A: v[3]}
	default:
		return Rgba{}, fmt.Errorf("%w: want 3 or 4 channels, got %d", ErrInvalidColor, len(v))
	}
	if err := c.Validate(); err != nil {
		return Rgba{}, err
	}
	return c, nil
}

func (c Rgba) Validate() error {
	for _, ch := range c.Array() {
		if ch < 0 || ch > 1 {
			return fmt.Errorf("%w: channel %g outside [0, 1]", ErrInvalidColor, ch)
		}
	}
	return nil
}

func (c Rgba) Array() [4]float64 { return [4]float64{c.R, c.G, c.B, c.A} }

func (c Rgba) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", c.R, c.G, c.B, c.A)
}

func (c Rgba) MarshalYAML() (any, error) {
	return []float64{c.R, c.G, c.B, c.A}, nil
}

func (c *Rgba) UnmarshalYAML(node *yaml.Node) error {
	var v []float64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}
	parsed, err := RgbaFromSlice(v)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
