// Package observer implements the Observer component of spec.md
// §4.5: for a batch of (t,az,el) samples it walks the wind-advected
// line of sight outward in fixed radial steps, trilinearly interpolates
// the realization, and accumulates a vertically-attenuated TOD value.
package observer

import (
	"errors"
	"math"

	"github.com/ctessum-atm/atmsim/internal/geometry"
)

// ErrOutOfBounds is returned for a sample whose (az,el) falls outside
// the configured scan bounds; spec.md §7's InterpolationOutOfRange.
var ErrOutOfBounds = errors.New("atmsim/observer: sample out of bounds")

// Config bundles the scan/volume parameters the Observer needs beyond
// the grid and realization themselves.
type Config struct {
	AzMin, AzMax float64
	ElMin, ElMax float64
	TMin         float64

	RMin, RMax float64
	ZMax       float64
	ZAtmInv    float64

	Wx, Wy, Wz float64
	T0         float64

	FixedR float64 // > 0 selects the single-evaluation calibration mode
}

// Sample is one (t,az,el) observation request.
type Sample struct {
	T, Az, El float64
}

// Observer evaluates TOD samples against a fixed realization over a
// compressed volume grid.
type Observer struct {
	cfg         Config
	grid        *geometry.Grid
	ci          *geometry.CompressedIndex
	realization []float64
}

// New binds an Observer to one realization. realization is indexed by
// compact index, the same way ci.FullIndex is.
func New(cfg Config, grid *geometry.Grid, ci *geometry.CompressedIndex, realization []float64) *Observer {
	return &Observer{cfg: cfg, grid: grid, ci: ci, realization: realization}
}

// Observe evaluates one batch of samples. A sample outside the scan
// bounds or whose ray never finds a valid corner produces NaN in the
// output at that index and ErrOutOfBounds joined into the returned
// error (the batch still completes, per spec.md §4.5's "else emit a
// sample-level error").
func (o *Observer) Observe(samples []Sample) ([]float64, error) {
	out := make([]float64, len(samples))
	var errs []error
	for i, s := range samples {
		v, err := o.observeOne(s)
		out[i] = v
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

func (o *Observer) observeOne(s Sample) (float64, error) {
	if !o.inBounds(s.Az, s.El) {
		return math.NaN(), ErrOutOfBounds
	}

	dt := s.T - o.cfg.TMin
	xtel := o.cfg.Wx * dt
	ytel := o.cfg.Wy * dt
	ztel := o.cfg.Wz * dt

	az0, el0 := o.grid.Az0, o.grid.El0
	cosEl0, sinEl0 := math.Cos(el0), math.Sin(el0)

	cache := &cornerCache{}
	evalAt := func(r float64) (float64, bool) {
		cosEl, sinEl := math.Cos(s.El), math.Sin(s.El)
		cosAz, sinAz := math.Cos(s.Az-az0), math.Sin(s.Az-az0)

		rx := r * cosEl * cosAz
		ry := r * cosEl * sinAz
		rz := r * sinEl

		// Rotate (rx,ry,rz) by el0 into the scan frame, then translate
		// by the wind-advected telescope position.
		sx := rx*cosEl0 + rz*sinEl0 + xtel
		sy := ry + ytel
		sz := -rx*sinEl0 + rz*cosEl0 + ztel

		val, ok := o.interpCached(cache, sx, sy, sz)
		if !ok {
			return 0, false
		}
		return val * (1 - sz*o.cfg.ZAtmInv), true
	}

	if o.cfg.FixedR > 0 {
		v, ok := evalAt(o.cfg.FixedR)
		if !ok {
			return math.NaN(), ErrOutOfBounds
		}
		return v * o.cfg.T0, nil
	}

	rstep := o.grid.XStep
	r := math.Max(o.cfg.RMin, 1.5*o.grid.XStep)

	var val float64
	var anyHit bool
	for r <= o.cfg.RMax && r*math.Sin(o.cfg.ElMax) < o.cfg.ZMax {
		if v, ok := evalAt(r); ok {
			val += v
			anyHit = true
		}
		r += rstep
	}
	if !anyHit {
		return math.NaN(), ErrOutOfBounds
	}
	return val * rstep * o.cfg.T0, nil
}

// inBounds validates az (allowing a 2π shift) and el against the
// configured scan bounds, per spec.md §4.5 step 1.
func (o *Observer) inBounds(az, el float64) bool {
	if el < o.cfg.ElMin || el > o.cfg.ElMax {
		return false
	}
	if az >= o.cfg.AzMin && az <= o.cfg.AzMax {
		return true
	}
	shifted := az - 2*math.Pi
	if shifted >= o.cfg.AzMin && shifted <= o.cfg.AzMax {
		return true
	}
	shifted = az + 2*math.Pi
	return shifted >= o.cfg.AzMin && shifted <= o.cfg.AzMax
}
