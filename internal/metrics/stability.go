package metrics

import "math"

// RestSpeed is the body speed below which a body counts as at rest.
const RestSpeed = 1e-2

// Stability is the fraction of samples in which every body is at rest.
type Stability struct {
	name      string
	threshold float64
	moving    int
	samples   int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "at_rest",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sample Sample) {
	s.samples++
	for _, v := range sample.V {
		if math.Abs(v) > s.threshold {
			s.moving++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.moving)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.moving = 0
	s.samples = 0
}

// PeakSpeed is the largest body speed seen.
type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(s Sample) {
	for _, v := range s.V {
		p.peak = math.Max(p.peak, math.Abs(v))
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }
