package parsing

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/multibody"
	"github.com/san-kum/robodiagram/internal/scalar"
)

// Parser adds models to one plant.
type Parser[T scalar.Value[T]] struct {
	plant        *multibody.Plant[T]
	autoRenaming bool
}

func NewParser[T scalar.Value[T]](plant *multibody.Plant[T]) *Parser[T] {
	return &Parser[T]{plant: plant}
}

func (p *Parser[T]) Plant() *multibody.Plant[T] { return p.plant }

// SetAutoRenaming makes a model whose name is taken load as name_1, name_2, ...
// instead of failing.
func (p *Parser[T]) SetAutoRenaming(enabled bool) { p.autoRenaming = enabled }

func (p *Parser[T]) AutoRenaming() bool { return p.autoRenaming }

// AddAllModelsFromFile loads every model in path and returns the new model
// instances in file order.
func (p *Parser[T]) AddAllModelsFromFile(path string) ([]multibody.ModelInstanceIndex, error) {
	ft, err := FileTypeOf(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return p.add(path, contents, ft)
}

// AddModelsFromString loads every model in contents.
func (p *Parser[T]) AddModelsFromString(contents string, ft FileType) ([]multibody.ModelInstanceIndex, error) {
	return p.add("<string>", []byte(contents), ft)
}

// AddBuiltin loads one of the embedded models.
func (p *Parser[T]) AddBuiltin(name string) ([]multibody.ModelInstanceIndex, error) {
	contents, err := Builtin(name)
	if err != nil {
		return nil, &LoadError{Path: "builtin:" + name, Err: err}
	}
	return p.add("builtin:"+name, contents, FileTypeYAML)
}

type plan struct {
	name   string
	bodies []bodyPlan
}

type bodyPlan struct {
	spec       bodySpec
	position   [3]float64
	geometries []resolved
}

func (p *Parser[T]) add(path string, contents []byte, ft FileType) ([]multibody.ModelInstanceIndex, error) {
	if p.plant == nil {
		return nil, &LoadError{Path: path, Err: errors.New("parser has no plant")}
	}
	if p.plant.IsFinalized() {
		return nil, &LoadError{Path: path, Err: multibody.ErrFinalized}
	}
	spec, err := decode(contents, ft)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	plans, err := p.check(spec)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var added []multibody.ModelInstanceIndex
	for _, m := range plans {
		idx, err := p.apply(m)
		if err != nil {
			return added, &LoadError{Path: path, Err: err}
		}
		added = append(added, idx)
	}
	logging.L().Debug("models loaded", zap.String("path", path), zap.Int("models", len(added)))
	return added, nil
}

// check validates the whole file before the plant is touched.
func (p *Parser[T]) check(spec fileSpec) ([]plan, error) {
	if len(spec.Models) == 0 {
		return nil, errors.New("no models")
	}
	taken := make(map[string]bool)
	var plans []plan
	for _, m := range spec.Models {
		if m.Name == "" {
			return nil, errors.New("model without a name")
		}
		name, err := p.instanceName(m.Name, taken)
		if err != nil {
			return nil, err
		}
		taken[name] = true

		pl := plan{name: name}
		bodies := make(map[string]bool)
		for _, b := range m.Bodies {
			if b.Name == "" || bodies[b.Name] {
				return nil, fmt.Errorf("model %q: missing or duplicate body name %q", m.Name, b.Name)
			}
			bodies[b.Name] = true
			if !(b.Mass > 0) {
				return nil, fmt.Errorf("model %q body %q: mass must be positive", m.Name, b.Name)
			}
			pos, err := vec3(b.Position, "body "+b.Name+" position")
			if err != nil {
				return nil, err
			}
			bp := bodyPlan{spec: b, position: pos}
			for _, g := range b.Geometries {
				r, err := g.resolve()
				if err != nil {
					return nil, fmt.Errorf("model %q body %q: %w", m.Name, b.Name, err)
				}
				bp.geometries = append(bp.geometries, r)
			}
			pl.bodies = append(pl.bodies, bp)
		}
		plans = append(plans, pl)
	}
	return plans, nil
}

func (p *Parser[T]) instanceName(name string, taken map[string]bool) (string, error) {
	free := func(n string) bool { return !taken[n] && !p.plant.HasModelInstanceNamed(n) }
	if free(name) {
		return name, nil
	}
	if !p.autoRenaming {
		return "", fmt.Errorf("%w: model instance %q", multibody.ErrDuplicateName, name)
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if free(candidate) {
			return candidate, nil
		}
	}
}

func (p *Parser[T]) apply(m plan) (multibody.ModelInstanceIndex, error) {
	idx, err := p.plant.AddModelInstance(m.name)
	if err != nil {
		return 0, err
	}
	_, hasGeometry := p.plant.SceneGraphSource()
	for _, b := range m.bodies {
		body, err := p.plant.AddRigidBody(b.spec.Name, idx, multibody.BodySpec{
			Mass: b.spec.Mass,
			X:    b.position[0],
			Y:    b.position[1],
			Z:    b.position[2],
		})
		if err != nil {
			return 0, err
		}
		if !hasGeometry {
			continue
		}
		for _, g := range b.geometries {
			for _, role := range g.roles {
				var err error
				switch role {
				case geometry.RoleIllustration:
					_, err = p.plant.RegisterVisualGeometry(body, g.name+"_visual", g.shape, g.offset, g.color)
				case geometry.RoleProximity:
					_, err = p.plant.RegisterCollisionGeometry(body, g.name+"_collision", g.shape, g.offset, g.hydroelastic)
				}
				if err != nil {
					return 0, err
				}
			}
		}
	}
	return idx, nil
}
