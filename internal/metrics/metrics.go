// Package metrics accumulates scalar figures of merit over sampled plant
// states.
package metrics

import "fmt"

// Sample is the plant state at one instant. Q holds body heights and V their
// rates, both indexed by body.
type Sample struct {
	T float64
	Q []float64
	V []float64
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Set observes every member and collects their values by name.
type Set []Metric

func (s Set) Observe(sample Sample) {
	for _, m := range s {
		m.Observe(sample)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Default returns the metrics every experiment records.
func Default(masses []float64, gravity float64) Set {
	return Set{
		NewEnergy(masses, gravity),
		NewEnergyLoss(masses, gravity),
		NewStability(RestSpeed),
		NewPeakSpeed(),
	}
}

func checkLen(s Sample, n int) error {
	if len(s.Q) != n || len(s.V) != n {
		return fmt.Errorf("metrics: sample has %d heights and %d rates, want %d", len(s.Q), len(s.V), n)
	}
	return nil
}
