package lcm

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultBusName is the bus publishers use when none is named.
const DefaultBusName = "default"

var (
	// ErrBusNotFound indicates a bus name missing from a registry.
	ErrBusNotFound = errors.New("lcm: bus not found")

	// ErrDuplicateBus indicates a bus name registered twice.
	ErrDuplicateBus = errors.New("lcm: duplicate bus name")
)

// Buses maps bus names to transports. A nil *Buses behaves as an empty registry.
type Buses struct {
	buses map[string]Interface
}

func NewBuses() *Buses {
	return &Buses{buses: make(map[string]Interface)}
}

func (b *Buses) Add(name string, iface Interface) error {
	if iface == nil {
		return fmt.Errorf("lcm: nil transport for bus %q", name)
	}
	if b.buses == nil {
		b.buses = make(map[string]Interface)
	}
	if _, ok := b.buses[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBus, name)
	}
	b.buses[name] = iface
	return nil
}

// Find returns the bus called name. description names the requester in errors.
func (b *Buses) Find(description, name string) (Interface, error) {
	if b != nil {
		if iface, ok := b.buses[name]; ok {
			return iface, nil
		}
	}
	return nil, fmt.Errorf("%w: %s requested bus %q, available %v", ErrBusNotFound, description, name, b.Names())
}

func (b *Buses) Has(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.buses[name]
	return ok
}

func (b *Buses) Len() int {
	if b == nil {
		return 0
	}
	return len(b.buses)
}

// Names returns the registered bus names in sorted order.
func (b *Buses) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.buses))
	for name := range b.buses {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
