package visualization

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/multibody"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

var ErrNilBuilder = errors.New("visualization: nil builder")

type options[T scalar.Value[T]] struct {
	buses *lcm.Buses
	plant *multibody.Plant[T]
	sg    *geometry.SceneGraph[T]
	lcm   lcm.Interface
}

type Option[T scalar.Value[T]] func(*options[T])

// WithBuses resolves Config.LcmBus in buses.
func WithBuses[T scalar.Value[T]](buses *lcm.Buses) Option[T] {
	return func(o *options[T]) { o.buses = buses }
}

// WithPlant skips discovery of the plant by name.
func WithPlant[T scalar.Value[T]](p *multibody.Plant[T]) Option[T] {
	return func(o *options[T]) { o.plant = p }
}

// WithSceneGraph skips discovery of the scene graph by name.
func WithSceneGraph[T scalar.Value[T]](sg *geometry.SceneGraph[T]) Option[T] {
	return func(o *options[T]) { o.sg = sg }
}

// WithLcm publishes on iface and ignores the bus registry and Config.LcmBus.
func WithLcm[T scalar.Value[T]](iface lcm.Interface) Option[T] {
	return func(o *options[T]) { o.lcm = iface }
}

// ApplyConfig adds the publishers cfg asks for to b. The plant and scene graph
// come from the options or are discovered under the names "plant" and
// "scene_graph". A transport that cannot be resolved skips every publisher;
// a missing or mistyped plant or scene graph is an error. On error b is left
// unchanged.
func ApplyConfig[T scalar.Value[T]](cfg Config, b *systems.Builder[T], opts ...Option[T]) error {
	if b == nil {
		return ErrNilBuilder
	}
	if !(cfg.PublishPeriod > 0) || math.IsInf(cfg.PublishPeriod, 0) {
		return fmt.Errorf("visualization: %w: got %g", geometry.ErrInvalidPeriod, cfg.PublishPeriod)
	}
	o := options[T]{}
	for _, opt := range opts {
		opt(&o)
	}

	plant := o.plant
	if plant == nil {
		p, err := systems.Lookup[*multibody.Plant[T]](b, multibody.PlantName, multibody.PlantKind)
		if err != nil {
			return fmt.Errorf("visualization: %w", err)
		}
		plant = p
	}
	sg := o.sg
	if sg == nil {
		s, err := systems.Lookup[*geometry.SceneGraph[T]](b, multibody.SceneGraphName, geometry.SceneGraphKind)
		if err != nil {
			return fmt.Errorf("visualization: %w", err)
		}
		sg = s
	}

	bus := o.lcm
	if bus == nil {
		name := BusName(cfg)
		found, err := o.buses.Find("visualization.ApplyConfig", name)
		if err != nil {
			logging.L().Warn("visualization publishers skipped",
				zap.String("lcm_bus", name), zap.Error(err))
			return nil
		}
		bus = found
	}

	params := ConvertConfigToParams(cfg)
	err := b.Atomically(func() error {
		for _, p := range params {
			if _, err := geometry.AddVisualizer(b, sg, bus, p); err != nil {
				return fmt.Errorf("visualization: %s visualizer: %w", p.Role, err)
			}
		}
		if cfg.PublishContacts {
			if _, err := multibody.ConnectContactResultsToLcm(b, plant, bus, cfg.PublishPeriod); err != nil {
				return fmt.Errorf("visualization: contact results: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.L().Info("visualization applied",
		zap.String("url", bus.URL()),
		zap.Int("visualizers", len(params)),
		zap.Bool("contacts", cfg.PublishContacts),
		zap.Float64("publish_period", cfg.PublishPeriod))
	return nil
}

// BusName is the bus cfg publishes on. An empty LcmBus means lcm.DefaultBusName.
func BusName(cfg Config) string {
	if cfg.LcmBus == "" {
		return lcm.DefaultBusName
	}
	return cfg.LcmBus
}

// AddDefault applies DefaultConfig to b.
func AddDefault[T scalar.Value[T]](b *systems.Builder[T], opts ...Option[T]) error {
	return ApplyConfig(DefaultConfig(), b, opts...)
}
