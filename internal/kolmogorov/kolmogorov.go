// Package kolmogorov implements the Kolmogorov Autocovariance component
// of spec.md §4.3: it numerically integrates the modified Kolmogorov
// power spectrum into a 1-D tabulation of the isotropic spatial
// autocovariance ρ(r), plus the correlation length beyond which ρ is
// treated as zero.
package kolmogorov

import (
	"errors"
	"math"
	"sort"

	"github.com/ctessum-atm/atmsim/internal/coordinator"
	"gonum.org/v1/gonum/floats"
)

// ErrOutOfGrid is returned by Eval when r falls outside
// [RminKolmo, RmaxKolmo]; spec.md §7 treats this as a programmer error
// (RadialOutOfGrid), fatal to the caller.
var ErrOutOfGrid = errors.New("atmsim/kolmogorov: r outside tabulated range")

// corrlim is the fixed correlation-length threshold from spec.md §4.3.
const corrlim = 1e-3

// logStretch is τ, the logarithmic-stretch exponent toward small r.
const logStretch = 10.0

// DefaultNR is the nominal radial-table resolution.
const DefaultNR = 1000

// DefaultNKappa is the nominal number of log-spaced κ integration nodes.
const DefaultNKappa = 100000

// DefaultRminKolmo is the lower bound of the tabulated radial grid.
// spec.md does not pin an exact value; this is small relative to any
// realistic voxel step and keeps the integration away from the r=0
// singularity in 1/r.
const DefaultRminKolmo = 1e-3

// Table is the KolmogorovTable entity from spec.md §3.
type Table struct {
	X, Y                 []float64
	Rcorr, RcorrSq        float64
	RminKolmo, RmaxKolmo float64
}

// Params bundles the knobs Build needs beyond lmin/lmax.
type Params struct {
	NR        int     // radial table resolution; DefaultNR if zero
	NKappa    int     // κ integration nodes; DefaultNKappa if zero
	RminKolmo float64 // DefaultRminKolmo if zero
}

// Build tabulates ρ(r) for turbulence scales (lmin,lmax) over a grid
// whose outer radius covers the volume extents (dx,dy,dz), cooperating
// across c's peers by partitioning the κ integration range and
// sum-reducing the partial integrals (spec.md §4.3's parallel variant).
func Build(c coordinator.Coordinator, lmin, lmax, dx, dy, dz float64, p Params) *Table {
	nr := p.NR
	if nr == 0 {
		nr = DefaultNR
	}
	nKappa := p.NKappa
	if nKappa == 0 {
		nKappa = DefaultNKappa
	}
	rminKolmo := p.RminKolmo
	if rminKolmo == 0 {
		rminKolmo = DefaultRminKolmo
	}
	rmaxKolmo := 1.01 * math.Sqrt(dx*dx+dy*dy+dz*dz)

	kappaMin := 1 / lmax
	kappaMax := 1 / lmin
	kappaL := 0.9 * kappaMax
	kappa0 := 0.75 * kappaMin

	phi := func(k float64) float64 {
		ratio := k / kappaL
		return (1 + 1.802*ratio - 0.254*math.Pow(ratio, 7.0/6.0)) *
			math.Exp(-ratio*ratio) *
			math.Pow(k*k+kappa0*kappa0, -11.0/6.0)
	}

	kappaGrid := logspace(1e-4, 10*kappaMax, nKappa)

	// Partition the κ shells [0,nKappa-1) across peers; each peer
	// integrates its own shells and the partial sums are summed across
	// the group.
	rank, ntask := c.Rank(), c.NTask()
	nShells := len(kappaGrid) - 1

	x := make([]float64, nr)
	raw := make([]float64, nr)
	for i := 0; i < nr; i++ {
		x[i] = rminKolmo + (math.Exp(float64(i)/float64(nr-1)*logStretch)-1)/(math.Exp(logStretch)-1)*(rmaxKolmo-rminKolmo)
	}

	for i, r := range x {
		var sum float64
		for k := rank; k < nShells; k += ntask {
			k0, k1 := kappaGrid[k], kappaGrid[k+1]
			phi0, phi1 := phi(k0), phi(k1)

			var sinTerm float64
			if r*kappaMax < 1e-2 {
				s0 := k0 - k0*k0*k0*r*r/6
				s1 := k1 - k1*k1*k1*r*r/6
				sinTerm = s0 - s1
				sum += 0.5 * (phi0 + phi1) * (k0*math.Cos(k0*r) - k1*math.Cos(k1*r) - sinTerm)
			} else {
				sinTerm = (math.Sin(k0*r) - math.Sin(k1*r)) / r
				sum += 0.5 * (phi0 + phi1) * (k0*math.Cos(k0*r) - k1*math.Cos(k1*r) - sinTerm)
			}
		}
		raw[i] = sum / r
	}
	for i := range raw {
		partial := make([]float64, 1)
		partial[0] = raw[i]
		c.AllReduceSum(partial)
		raw[i] = partial[0]
	}

	norm := raw[0]
	y := make([]float64, nr)
	copy(y, raw)
	floats.Scale(1/norm, y)
	y[0] = 1.0

	t := &Table{X: x, Y: y, RminKolmo: rminKolmo, RmaxKolmo: rmaxKolmo}
	t.Rcorr, t.RcorrSq = correlationLength(x, y)
	return t
}

// correlationLength scans kolmo_y from the right (largest r first) and
// returns the first x[i] at which |y[i]| >= corrlim, per spec.md §4.3.
func correlationLength(x, y []float64) (rcorr, rcorrSq float64) {
	for i := len(y) - 1; i >= 0; i-- {
		if math.Abs(y[i]) >= corrlim {
			return x[i], x[i] * x[i]
		}
	}
	return x[0], x[0] * x[0]
}

// Eval is the kolmogorov(r) operation from spec.md §4.3: binary search
// on X plus linear interpolation, with r=0 and r=RmaxKolmo handled
// exactly and out-of-range requests failing.
func (t *Table) Eval(r float64) (float64, error) {
	if r == 0 {
		return t.Y[0], nil
	}
	if r == t.RmaxKolmo {
		return t.Y[len(t.Y)-1], nil
	}
	if r < t.RminKolmo || r > t.RmaxKolmo {
		return 0, ErrOutOfGrid
	}
	i := sort.SearchFloat64s(t.X, r)
	if i == 0 {
		return t.Y[0], nil
	}
	if i >= len(t.X) {
		return t.Y[len(t.Y)-1], nil
	}
	x0, x1 := t.X[i-1], t.X[i]
	y0, y1 := t.Y[i-1], t.Y[i]
	frac := (r - x0) / (x1 - x0)
	return y0 + frac*(y1-y0), nil
}

// logspace returns n points log-uniformly spaced in [lo,hi].
func logspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	logLo, logHi := math.Log(lo), math.Log(hi)
	for i := range out {
		frac := float64(i) / float64(n-1)
		out[i] = math.Exp(logLo + frac*(logHi-logLo))
	}
	return out
}
