package covariance

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrFactorization is returned by Factorize when the sparse Cholesky
// solver fails even after every band-diagonal retry. The root package
// maps it onto atmsim.ErrFactorization, the same way geometry.ErrEmptyCone
// is mapped at its component boundary.
var ErrFactorization = errors.New("atmsim/covariance: factorization failed after all retries")

// maxRetries is ntry from spec.md §4.4: one plain attempt plus three
// banded retries.
const maxRetries = 4

// Factorize is the sqrt_sparse_covariance operation: it Cholesky-
// factorizes sc's covariance into a lower-triangular L such that
// L*L' == sc's covariance (up to the banding applied on retry), retrying
// up to maxRetries-1 times with progressively narrower half-bandwidth
// ndiag_k = max(3, n*(ntry-k)/ntry). The fourth failure is fatal.
func Factorize(sc *SliceCovariance) (*mat.TriDense, error) {
	n := sc.N
	dense := toDense(sc, n)

	for k := 0; k < maxRetries; k++ {
		if k > 0 {
			ndiag := n * (maxRetries - k) / maxRetries
			if ndiag < 3 {
				ndiag = 3
			}
			bandInPlace(dense, n, ndiag)
		}

		sym := mat.NewSymDense(n, append([]float64(nil), dense...))
		var chol mat.Cholesky
		if chol.Factorize(sym) {
			var L mat.TriDense
			chol.LTo(&L)
			return &L, nil
		}
	}
	return nil, fmt.Errorf("%w: n=%d", ErrFactorization, n)
}

// toDense expands sc's lower-triangle sparse entries into a full
// row-major dense buffer suitable for mat.NewSymDense (which only
// reads the upper triangle, so symmetrizing isn't strictly required,
// but keeps the buffer self-consistent for banding).
func toDense(sc *SliceCovariance, n int) []float64 {
	out := make([]float64, n*n)
	for irow := 0; irow < n; irow++ {
		for icol := 0; icol <= irow; icol++ {
			v := sc.Arr.Get(irow, icol)
			if v == 0 {
				continue
			}
			out[irow*n+icol] = v
			out[icol*n+irow] = v
		}
	}
	return out
}

// bandInPlace is the band_in_place(A, lower, upper) retry operation: it
// zeroes every entry more than ndiag steps from the diagonal.
func bandInPlace(dense []float64, n, ndiag int) {
	for irow := 0; irow < n; irow++ {
		for icol := 0; icol < n; icol++ {
			if icol < irow-ndiag || icol > irow+ndiag {
				dense[irow*n+icol] = 0
			}
		}
	}
}
