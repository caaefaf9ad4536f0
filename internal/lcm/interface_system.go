package lcm

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// InterfaceSystemKind is the Kind of the bus pump node.
const InterfaceSystemKind systems.Kind = "lcm_interface"

// InterfaceSystem delivers a bus's queued messages after every simulator step.
type InterfaceSystem struct {
	*systems.LeafSystem[scalar.Float]
	bus Interface
}

func NewInterfaceSystem(bus Interface) *InterfaceSystem {
	s := &InterfaceSystem{LeafSystem: systems.NewLeafSystem[scalar.Float](InterfaceSystemKind), bus: bus}
	s.DeclarePerStepPublish(func(*systems.Context[scalar.Float]) error {
		s.bus.HandleSubscriptions(0)
		return nil
	})
	return s
}

// Bus returns the pumped transport.
func (s *InterfaceSystem) Bus() Interface { return s.bus }

// ApplyBusConfig opens one bus per entry of config, adds an InterfaceSystem for
// each to b, and returns the registry. Either every bus is added or none is.
func ApplyBusConfig(config map[string]Params, b *systems.Builder[scalar.Float]) (*Buses, error) {
	if b == nil {
		return nil, fmt.Errorf("lcm: nil builder")
	}
	names := make([]string, 0, len(config))
	for name := range config {
		names = append(names, name)
	}
	slices.Sort(names)

	result := NewBuses()
	err := b.Atomically(func() error {
		for _, name := range names {
			bus, err := New(config[name])
			if err != nil {
				return fmt.Errorf("lcm: bus %q: %w", name, err)
			}
			pump := NewInterfaceSystem(bus)
			pump.SetName(fmt.Sprintf("LcmInterfaceSystem(bus_name=%s, lcm_url=%s)", name, bus.URL()))
			if err := b.AddSystem(pump); err != nil {
				return err
			}
			if err := result.Add(name, bus); err != nil {
				return err
			}
			logging.L().Info("LCM bus created", zap.String("bus", name), zap.String("url", bus.URL()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
