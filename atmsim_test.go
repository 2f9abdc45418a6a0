package atmsim

import (
	"math"
	"testing"
)

// TestMinimalConeNoWind is spec.md §8's scenario 1: a minimal cone with
// no wind should produce a non-empty compressed volume, zero scan-frame
// wind, and a finite observation at the scan center regardless of how
// many samples are requested.
func TestMinimalConeNoWind(t *testing.T) {
	cfg := SimConfig{
		AzMin: 0, AzMax: math.Pi / 2,
		ElMin: math.Pi / 3, ElMax: math.Pi / 2.5,
		TMin: 0, TMax: 1,
		XStep: 100, YStep: 100, ZStep: 100,
		Lmin: Dist{Center: 10}, Lmax: Dist{Center: 100},
		W: Dist{Center: 0}, Wdir: Dist{Center: 0},
		Z0: Dist{Center: 2000}, T0: Dist{Center: 280},
		ZAtm: 10000, ZMax: 5000,
		Key1: 0, Key2: 0, Counter1: 0, Counter2: 0,
		RMin: 0, RMax: 5000,
	}

	sim, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Simulate(false); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if sim.ci.Nelem <= 0 {
		t.Fatalf("expected nelem > 0, got %d", sim.ci.Nelem)
	}
	if sim.params.Wx != 0 || sim.params.Wy != 0 || sim.params.Wz != 0 {
		t.Fatalf("expected zero scan-frame wind, got (%g,%g,%g)", sim.params.Wx, sim.params.Wy, sim.params.Wz)
	}

	for _, nsamp := range []int{1, 5} {
		samples := make([]Sample, nsamp)
		for i := range samples {
			samples[i] = Sample{T: 0, Az: math.Pi / 4, El: math.Pi / 3}
		}
		tod, err := sim.Observe(samples, -1)
		if err != nil {
			t.Fatalf("Observe (nsamp=%d): %v", nsamp, err)
		}
		for i, v := range tod {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("Observe (nsamp=%d) sample %d: expected a finite value, got %v", nsamp, i, v)
			}
		}
	}
}

func TestValidateRejectsBadBounds(t *testing.T) {
	cfg := SimConfig{ElMin: 1, ElMax: 0.5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for elmin >= elmax")
	}
}
