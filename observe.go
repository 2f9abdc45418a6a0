package atmsim

import (
	"github.com/ctessum-atm/atmsim/internal/observer"
)

// Sample is one (t,az,el) observation request, in seconds/radians.
type Sample struct {
	T, Az, El float64
}

// Observe fills one TOD value per sample by walking the wind-advected
// line of sight outward through the cached realization. It fails
// immediately if Simulate has not yet produced a realization, per
// spec.md §6's "Fails if no realization is cached in memory." FixedR,
// if positive, selects the single-evaluation calibration mode instead
// of the radial stepping loop.
func (s *Simulator) Observe(samples []Sample, fixedR float64) ([]float64, error) {
	if !s.ready {
		return nil, wrapf(ErrAllocation, "atmsim: Observe called before a realization is ready")
	}

	c := s.Config
	obs := observer.New(observer.Config{
		AzMin: c.AzMin, AzMax: c.AzMax,
		ElMin: c.ElMin, ElMax: c.ElMax,
		TMin: c.TMin,
		RMin: c.RMin, RMax: c.RMax,
		ZMax: c.ZMax, ZAtmInv: 1 / c.ZAtm,
		Wx: s.params.Wx, Wy: s.params.Wy, Wz: s.params.Wz,
		T0:     s.params.T0,
		FixedR: fixedR,
	}, s.grid, s.ci, s.realization)

	obsSamples := make([]observer.Sample, len(samples))
	for i, sm := range samples {
		obsSamples[i] = observer.Sample{T: sm.T, Az: sm.Az, El: sm.El}
	}

	out, err := obs.Observe(obsSamples)
	if err != nil {
		// Per-sample failures (spec.md §7): surface the batch with a
		// non-fatal, wrapped diagnostic; TOD values for failing samples
		// are left as NaN by the Observer.
		return out, wrapf(ErrInterpolationOutOfRange, "atmsim: %v", err)
	}
	return out, nil
}
