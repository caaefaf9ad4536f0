package parsing

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robodiagram/internal/geometry"
)

// FileType names a model file syntax.
type FileType string

const (
	FileTypeYAML FileType = "yaml"
	FileTypeTOML FileType = "toml"
)

// FileTypeOf infers the syntax of path from its extension.
func FileTypeOf(path string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FileTypeYAML, nil
	case ".toml":
		return FileTypeTOML, nil
	}
	return "", fmt.Errorf("unsupported model file extension %q", filepath.Ext(path))
}

type fileSpec struct {
	Models []modelSpec `yaml:"models" toml:"models"`
}

type modelSpec struct {
	Name   string     `yaml:"name" toml:"name"`
	Bodies []bodySpec `yaml:"bodies" toml:"bodies"`
}

type bodySpec struct {
	Name       string         `yaml:"name" toml:"name"`
	Mass       float64        `yaml:"mass" toml:"mass"`
	Position   []float64      `yaml:"position" toml:"position"`
	Geometries []geometrySpec `yaml:"geometries" toml:"geometries"`
}

type geometrySpec struct {
	Name         string    `yaml:"name" toml:"name"`
	Shape        string    `yaml:"shape" toml:"shape"`
	Dimensions   []float64 `yaml:"dimensions" toml:"dimensions"`
	Offset       []float64 `yaml:"offset" toml:"offset"`
	Roles        []string  `yaml:"roles" toml:"roles"`
	Color        []float64 `yaml:"color" toml:"color"`
	Hydroelastic bool      `yaml:"hydroelastic" toml:"hydroelastic"`
}

func decode(contents []byte, ft FileType) (fileSpec, error) {
	var spec fileSpec
	switch ft {
	case FileTypeYAML:
		dec := yaml.NewDecoder(bytes.NewReader(contents))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return fileSpec{}, fmt.Errorf("yaml: %w", err)
		}
	case FileTypeTOML:
		md, err := toml.Decode(string(contents), &spec)
		if err != nil {
			return fileSpec{}, fmt.Errorf("toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fileSpec{}, fmt.Errorf("toml: unknown keys %v", undecoded)
		}
	default:
		return fileSpec{}, fmt.Errorf("unsupported file type %q", ft)
	}
	return spec, nil
}

// resolved is a geometry whose shape, roles and color have been checked.
type resolved struct {
	name         string
	shape        geometry.Shape
	offset       [3]float64
	roles        []geometry.Role
	color        *geometry.Rgba
	hydroelastic bool
}

func vec3(v []float64, what string) ([3]float64, error) {
	var out [3]float64
	switch len(v) {
	case 0:
		return out, nil
	case 3:
		copy(out[:], v)
		return out, nil
	}
	return out, fmt.Errorf("%s: want 3 components, got %d", what, len(v))
}

func (g geometrySpec) resolve() (resolved, error) {
	shape, err := geometry.NewShape(g.Shape, g.Dimensions)
	if err != nil {
		return resolved{}, fmt.Errorf("geometry %q: %w", g.Name, err)
	}
	offset, err := vec3(g.Offset, "geometry "+g.Name+" offset")
	if err != nil {
		return resolved{}, err
	}
	r := resolved{name: g.Name, shape: shape, offset: offset, hydroelastic: g.Hydroelastic}
	roles := g.Roles
	if len(roles) == 0 {
		roles = []string{"illustration", "proximity"}
	}
	for _, name := range roles {
		role, err := geometry.ParseRole(name)
		if err != nil {
			return resolved{}, fmt.Errorf("geometry %q: %w", g.Name, err)
		}
		if role != geometry.RoleIllustration && role != geometry.RoleProximity {
			return resolved{}, fmt.Errorf("geometry %q: role %s cannot be loaded", g.Name, role)
		}
		r.roles = append(r.roles, role)
	}
	if len(g.Color) > 0 {
		c, err := geometry.RgbaFromSlice(g.Color)
		if err != nil {
			return resolved{}, fmt.Errorf("geometry %q: %w", g.Name, err)
		}
		r.color = &c
	}
	return r, nil
}
