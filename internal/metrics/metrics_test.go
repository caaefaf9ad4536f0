package metrics

import (
	"math"
	"testing"
)

func TestEnergy(t *testing.T) {
	m := NewEnergy([]float64{2.0}, 9.81)
	m.Observe(Sample{Q: []float64{1.0}, V: []float64{3.0}})

	expected := 2.0*9.81*1.0 + 0.5*2.0*9.0
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyIgnoresMismatchedSample(t *testing.T) {
	m := NewEnergy([]float64{1, 1}, 9.81)
	m.Observe(Sample{Q: []float64{1}, V: []float64{0}})
	if m.Value() != 0 {
		t.Errorf("expected mismatched sample to be ignored, got %f", m.Value())
	}
}

func TestEnergyLossFreeFall(t *testing.T) {
	const g = 9.81
	m := NewEnergyLoss([]float64{1.0}, g)
	z0 := 1.0
	for i := 0; i <= 10; i++ {
		tm := 0.04 * float64(i)
		m.Observe(Sample{T: tm, Q: []float64{z0 - 0.5*g*tm*tm}, V: []float64{-g * tm}})
	}
	if m.Value() > 1e-9 {
		t.Errorf("free fall conserves energy, loss %g", m.Value())
	}
}

func TestEnergyLossAtRest(t *testing.T) {
	m := NewEnergyLoss([]float64{1.0}, 9.81)
	m.Observe(Sample{Q: []float64{1.0}, V: []float64{0}})
	m.Observe(Sample{Q: []float64{0.25}, V: []float64{0}})
	if math.Abs(m.Value()-0.75) > 1e-9 {
		t.Errorf("expected loss 0.75, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero loss after reset")
	}
}

func TestStability(t *testing.T) {
	s := NewStability(RestSpeed)
	if s.Value() != 1.0 {
		t.Errorf("expected 1 with no samples, got %f", s.Value())
	}
	s.Observe(Sample{V: []float64{0, 2}})
	s.Observe(Sample{V: []float64{0, 0.001}})
	s.Observe(Sample{V: []float64{0, 0}})
	s.Observe(Sample{V: []float64{-0.5, 0}})
	if math.Abs(s.Value()-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %f", s.Value())
	}
}

func TestDefaultSet(t *testing.T) {
	set := Default([]float64{1.0}, 9.81)
	set.Observe(Sample{Q: []float64{1.0}, V: []float64{-2.0}})

	got := set.Values()
	for _, name := range []string{"energy", "energy_loss", "at_rest", "peak_speed"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing metric %q", name)
		}
	}
	if got["peak_speed"] != 2.0 {
		t.Errorf("expected peak speed 2, got %f", got["peak_speed"])
	}
	if got["at_rest"] != 0 {
		t.Errorf("expected moving body, got at_rest %f", got["at_rest"])
	}

	set.Reset()
	if set.Values()["peak_speed"] != 0 {
		t.Error("expected reset peak speed")
	}
}
