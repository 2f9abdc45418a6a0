package atmsim

import (
	"errors"
	"fmt"
)

// ErrConfiguration reports an invalid or physically impossible configuration:
// bad scan bounds, impossible geometry, or lmin_center > lmax_center.
var ErrConfiguration = errors.New("atmsim: configuration error")

// ErrSamplingExhausted reports that the parameter sampler drew its full
// normal-variate buffer without satisfying the physical constraints on
// the drawn scalars. Usually means the configured sigmas are pathological.
var ErrSamplingExhausted = errors.New("atmsim: sampling exhausted")

// ErrAllocation reports that the simulator could not allocate the index
// tables, the realization vector, or the sparse solver's workspace.
var ErrAllocation = errors.New("atmsim: allocation failure")

// ErrFactorization reports that the sparse Cholesky factorization of a
// slice's covariance matrix failed after every band-diagonal retry.
var ErrFactorization = errors.New("atmsim: factorization failure")

// ErrCacheMissOrCorrupt reports that the on-disk cache for a set of PRNG
// words is absent, partial, or truncated. It is recoverable: the caller
// should fall through to rebuilding the realization.
var ErrCacheMissOrCorrupt = errors.New("atmsim: cache miss or corrupt")

// ErrEmptyObservationCone reports that the observation cone touched zero
// voxels for the given configuration. Fatal; the geometry is degenerate.
var ErrEmptyObservationCone = errors.New("atmsim: empty observation cone")

// ErrInterpolationOutOfRange reports that a single sample's line of sight
// left the simulated volume during Observe. It is a per-sample condition;
// the batch continues and the offending sample is flagged in the status.
var ErrInterpolationOutOfRange = errors.New("atmsim: interpolation out of range")

// ErrRadialOutOfGrid reports a kolmogorov(r) evaluation outside
// [rmin_kolmo, rmax_kolmo]. Always a programmer error in the caller.
var ErrRadialOutOfGrid = errors.New("atmsim: radial argument out of grid")

// wrapf mirrors the fmt.Errorf("pkg.Func: %v", err) convention this
// codebase uses at component boundaries, pinned to one of the sentinels
// above so callers can still errors.Is against it.
func wrapf(sentinel error, format string, args ...any) error {
	return &wrapped{sentinel: sentinel, msg: fmt.Sprintf(format, args...)}
}

type wrapped struct {
	sentinel error
	msg      string
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.sentinel }
