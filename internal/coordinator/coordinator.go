// Package coordinator models the "cooperating peers" capability set from
// spec.md §9's Design Notes: a single implementation of the sliced
// covariance build and volume flagging is parameterized by a small
// interface, rather than duplicated for serial and peer-parallel builds
// the way the original C++ sources do it. Local is the trivial
// single-process binding; Group runs N goroutine peers over in-process
// channels so the decomposition logic — and its bitwise-reproducibility
// guarantee — can be exercised without spawning real OS processes.
package coordinator

// Coordinator is the capability set every peer needs: knowing its own
// rank and the group size, synchronizing at a barrier, broadcasting a
// scalar from one rank to all, and reducing a bitmap (logical OR) or a
// vector (sum) across the group.
type Coordinator interface {
	Rank() int
	NTask() int
	Barrier()
	BroadcastScalars(values []float64, root int) []float64
	AllReduceOR(bitmap []bool)
	AllReduceSum(vec []float64)
}

// Local is the trivial coordinator for single-process mode: ntask is 1,
// every operation is a no-op that returns its input unchanged.
type Local struct{}

func (Local) Rank() int  { return 0 }
func (Local) NTask() int { return 1 }
func (Local) Barrier()   {}

func (Local) BroadcastScalars(values []float64, root int) []float64 { return values }
func (Local) AllReduceOR(bitmap []bool)                             {}
func (Local) AllReduceSum(vec []float64)                            {}

// OwnsSlice reports whether rank owns slice k under the round-robin
// assignment spec.md §4.4/§5 specifies: slice k belongs to rank k mod
// ntask.
func OwnsSlice(c Coordinator, k int) bool {
	return k%c.NTask() == c.Rank()
}
