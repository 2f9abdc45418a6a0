package covariance

import (
	"github.com/ctessum-atm/atmsim/internal/coordinator"
	"github.com/ctessum-atm/atmsim/internal/geometry"
	"github.com/ctessum-atm/atmsim/internal/kolmogorov"
	"github.com/ctessum-atm/atmsim/internal/rng"
)

// Run drives the Sparse Realization Engine over every slice of the
// compressed volume: slice k is owned by rank k mod ntask (spec.md
// §4.4's parallel variant). The owning rank builds and factorizes the
// slice covariance and applies it to draw the slab's realization into
// its local copy of realization; every other rank skips that work but
// still advances counter2 by the same slice size, so all ranks agree
// on PRNG state and slice boundaries. Because slice ownership
// partitions realization's indices disjointly, every entry is nonzero
// on exactly one rank and zero everywhere else, so a single
// AllReduceSum over the whole vector reconciles every rank's local
// copy into the complete, shared realization spec.md §5 requires — no
// rank ever reads another rank's factorization or draw, only the
// summed result.
func Run(c coordinator.Coordinator, fullIndex []int64, g *geometry.Grid, z0inv float64, table *kolmogorov.Table, sliceMaxSize int, stream rng.Stream, key1, key2, counter1, baseCounter2 uint64, realization []float64) error {
	slices := Slices(fullIndex, g.XStride, sliceMaxSize)

	counter2 := baseCounter2
	for k, s := range slices {
		if !coordinator.OwnsSlice(c, k) {
			counter2 += uint64(s.End - s.Start)
			continue
		}

		sc := Build(s, fullIndex, g, z0inv, table)
		L, err := Factorize(sc)
		if err != nil {
			return err
		}
		n := Apply(s, L, stream, key1, key2, counter1, counter2, realization)
		counter2 += uint64(n)
	}
	c.AllReduceSum(realization)
	return nil
}
