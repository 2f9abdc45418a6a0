package covariance

import (
	"math"

	"github.com/ctessum-atm/atmsim/internal/geometry"
	"github.com/ctessum-atm/atmsim/internal/kolmogorov"

	"github.com/ctessum/sparse"
)

// diagBoost is the fixed factor the diagonal is pre-multiplied by to
// nudge the slice covariance toward positive definiteness, per
// spec.md §4.4.
const diagBoost = 1.01

// pruneFrac is the fraction of diag[icol]*diag[irow] an off-diagonal
// entry's square must exceed to be retained.
const pruneFrac = 1e-6

// Coord is a point in the horizontal frame, as produced by ind2coord.
type Coord struct {
	X, Y, Z float64
}

// covEval is the cov_eval(c1,c2) operation: an exponential water-vapor
// altitude weighting times the isotropic Kolmogorov covariance ρ, or
// zero once the pair separates by more than rcorr.
func covEval(c1, c2 Coord, z0inv float64, table *kolmogorov.Table) float64 {
	dx, dy, dz := c1.X-c2.X, c1.Y-c2.Y, c1.Z-c2.Z
	distSq := dx*dx + dy*dy + dz*dz
	if distSq >= table.RcorrSq {
		return 0
	}
	rho, err := table.Eval(math.Sqrt(distSq))
	if err != nil {
		panic(err) // kolmogorov.ErrOutOfGrid: a programmer error, fatal
	}
	return math.Exp(-(c1.Z+c2.Z)*z0inv) * rho
}

// SliceCovariance is a symmetric sparse covariance matrix for one
// slice's compact indices, held as a lower-triangle sparse::SparseArray
// alongside the coordinates and diagonal used to assemble it.
type SliceCovariance struct {
	N      int
	Coords []Coord
	Diag   []float64
	Arr    *sparse.SparseArray // N x N, lower triangle only (irow >= icol)
}

// Build is the build_sparse_covariance operation: over all ordered
// pairs (irow >= icol) in the slice [s.Start,s.End), it computes
// coordinates via g.Ind2Coord, prunes pairs separated by more than
// rcorr on any axis, evaluates cov_eval, and retains entries that pass
// the relative-magnitude threshold. The diagonal is boosted by
// diagBoost before the off-diagonal pass so the prune threshold (which
// reads diag) sees the boosted values.
func Build(s Slice, fullIndex []int64, g *geometry.Grid, z0inv float64, table *kolmogorov.Table) *SliceCovariance {
	n := s.End - s.Start
	coords := make([]Coord, n)
	for i := 0; i < n; i++ {
		x, y, z := g.Ind2Coord(int(fullIndex[s.Start+i]))
		coords[i] = Coord{X: x, Y: y, Z: z}
	}

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = covEval(coords[i], coords[i], z0inv, table) * diagBoost
	}

	arr := sparse.ZerosSparse(n, n)
	rcorr := table.Rcorr
	for irow := 0; irow < n; irow++ {
		arr.Set(diag[irow], irow, irow)
		for icol := 0; icol < irow; icol++ {
			if math.Abs(coords[irow].X-coords[icol].X) > rcorr ||
				math.Abs(coords[irow].Y-coords[icol].Y) > rcorr ||
				math.Abs(coords[irow].Z-coords[icol].Z) > rcorr {
				continue
			}
			val := covEval(coords[irow], coords[icol], z0inv, table)
			if val*val <= pruneFrac*diag[icol]*diag[irow] {
				continue
			}
			arr.Set(val, irow, icol)
		}
	}

	return &SliceCovariance{N: n, Coords: coords, Diag: diag, Arr: arr}
}
