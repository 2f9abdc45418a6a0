package atmsim

import "math"

// Dist is an independent truncated-Gaussian prior: draws are rejected
// until they satisfy the physical bound the caller applies to them.
// A zero Sigma means the parameter is fixed at Center.
type Dist struct {
	Center float64
	Sigma  float64
}

// SimConfig holds every input to one realization: scan bounds, voxel
// steps, the drawn-parameter priors, the PRNG stream words, and the
// knobs that govern caching and slicing. It is constructed once by the
// caller and is immutable thereafter.
type SimConfig struct {
	// Scan bounds, radians / seconds.
	AzMin, AzMax float64
	ElMin, ElMax float64
	TMin, TMax   float64

	// Voxel steps, meters.
	XStep, YStep, ZStep float64

	// Distributions for the drawn scalars.
	Lmin Dist // inner turbulence scale, m
	Lmax Dist // outer turbulence scale, m
	W    Dist // wind speed, m/s
	Wdir Dist // wind direction, radians
	Z0   Dist // water-vapor scale height, m
	T0   Dist // ground temperature, K

	ZAtm float64 // attenuation scale height, m
	ZMax float64 // hard ceiling on the cone's vertical extent, m

	// Counter-based PRNG stream words.
	Key1, Key2         uint64
	Counter1, Counter2 uint64

	CacheDir string

	RMin, RMax float64 // observer radial stepping bounds, m

	SliceMaxSize int // nelem_sim_max: max compressed voxels per factorization slice

	Verbosity int
}

// DefaultSliceMaxSize is used when SliceMaxSize is left at zero.
const DefaultSliceMaxSize = 20000

// Validate checks the invariants spec.md §3 requires of a configuration
// before any pipeline stage runs. All failures are ErrConfiguration.
func (c *SimConfig) Validate() error {
	switch {
	case c.ElMin < 0:
		return wrapf(ErrConfiguration, "atmsim: elmin %g < 0", c.ElMin)
	case c.ElMax > math.Pi/2:
		return wrapf(ErrConfiguration, "atmsim: elmax %g > pi/2", c.ElMax)
	case c.ElMin >= c.ElMax:
		return wrapf(ErrConfiguration, "atmsim: elmin %g >= elmax %g", c.ElMin, c.ElMax)
	case c.AzMin >= c.AzMax:
		return wrapf(ErrConfiguration, "atmsim: azmin %g >= azmax %g", c.AzMin, c.AzMax)
	case c.TMin >= c.TMax:
		return wrapf(ErrConfiguration, "atmsim: tmin %g >= tmax %g", c.TMin, c.TMax)
	case c.Lmin.Center <= 0:
		return wrapf(ErrConfiguration, "atmsim: lmin_center %g <= 0", c.Lmin.Center)
	case c.Lmax.Center <= 0:
		return wrapf(ErrConfiguration, "atmsim: lmax_center %g <= 0", c.Lmax.Center)
	case c.Lmin.Center > c.Lmax.Center:
		return wrapf(ErrConfiguration, "atmsim: lmin_center %g > lmax_center %g", c.Lmin.Center, c.Lmax.Center)
	case c.XStep <= 0 || c.YStep <= 0 || c.ZStep <= 0:
		return wrapf(ErrConfiguration, "atmsim: non-positive voxel step (%g,%g,%g)", c.XStep, c.YStep, c.ZStep)
	case c.ZAtm <= 0:
		return wrapf(ErrConfiguration, "atmsim: zatm %g <= 0", c.ZAtm)
	case c.ZMax <= 0:
		return wrapf(ErrConfiguration, "atmsim: zmax %g <= 0", c.ZMax)
	}
	return nil
}

// sliceMaxSize returns c.SliceMaxSize, or DefaultSliceMaxSize if unset.
func (c *SimConfig) sliceMaxSize() int {
	if c.SliceMaxSize > 0 {
		return c.SliceMaxSize
	}
	return DefaultSliceMaxSize
}
