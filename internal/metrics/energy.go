package metrics

import "math"

// mechanical is the potential plus kinetic energy of point masses moving vertically.
func mechanical(masses []float64, gravity float64, s Sample) float64 {
	var e float64
	for i, m := range masses {
		e += m*gravity*s.Q[i] + 0.5*m*s.V[i]*s.V[i]
	}
	return e
}

// Energy reports the mechanical energy at the latest sample.
type Energy struct {
	name    string
	masses  []float64
	gravity float64
	current float64
}

func NewEnergy(masses []float64, gravity float64) *Energy {
	return &Energy{
		name:    "energy",
		masses:  masses,
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s Sample) {
	if checkLen(s, len(e.masses)) != nil {
		return
	}
	e.current = mechanical(e.masses, e.gravity, s)
}

func (e *Energy) Value() float64 { return e.current }

func (e *Energy) Reset() { e.current = 0 }

// EnergyLoss is the largest relative drop in mechanical energy from the first
// sample. Contact damping makes it grow; zero means nothing was dissipated.
type EnergyLoss struct {
	name    string
	masses  []float64
	gravity float64
	initial float64
	maxLoss float64
	samples int
}

func NewEnergyLoss(masses []float64, gravity float64) *EnergyLoss {
	return &EnergyLoss{
		name:    "energy_loss",
		masses:  masses,
		gravity: gravity,
	}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(s Sample) {
	if checkLen(s, len(e.masses)) != nil {
		return
	}
	energy := mechanical(e.masses, e.gravity, s)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++
	if e.initial != 0 {
		e.maxLoss = math.Max(e.maxLoss, (e.initial-energy)/math.Abs(e.initial))
	}
}

func (e *EnergyLoss) Value() float64 { return e.maxLoss }

func (e *EnergyLoss) Reset() {
	e.initial = 0
	e.maxLoss = 0
	e.samples = 0
}
