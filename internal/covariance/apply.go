package covariance

import (
	"github.com/ctessum-atm/atmsim/internal/rng"

	"gonum.org/v1/gonum/mat"
)

// Apply is the apply_sparse_covariance operation: it draws
// nelem_slice unit-normal variates from stream at
// (key1,key2,counter1,counter2), computes y = L*n, subtracts y's mean
// (softening inter-slice boundary discontinuities), and writes the
// result into realization[s.Start:s.End]. It returns the number of
// stream draws consumed so the caller can advance counter2 by that
// count, per spec.md §4.4.
func Apply(s Slice, L *mat.TriDense, stream rng.Stream, key1, key2, counter1, counter2 uint64, realization []float64) int {
	n := s.End - s.Start

	buf := make([]float64, n)
	stream.Normal(key1, key2, counter1, counter2, buf)

	nvec := mat.NewVecDense(n, buf)
	var y mat.VecDense
	y.MulVec(L, nvec)

	var mean float64
	for i := 0; i < n; i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(n)

	for i := 0; i < n; i++ {
		realization[s.Start+i] = y.AtVec(i) - mean
	}
	return n
}
