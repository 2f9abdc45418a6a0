// Package store models the polymorphic backing store spec.md §9's
// Design Notes calls for: the realization vector is either privately
// owned by one process or mapped into a shared-memory window peer
// processes on the same node can attach to. Observer holds Read
// capability over a Store; the slice-owning rank holds ExclusiveWrite
// over its own index range while building, and the whole Store
// becomes read-only once a post-build barrier has run.
package store

// Store holds the realization vector a Simulate call produces.
// Backing reports whether it lives in process-private memory or a
// shared-memory window.
type Store struct {
	Realization []float64

	backing Backing
	region  *Region // non-nil only when backing == Shared
}

// Backing distinguishes a process-private store from one backed by a
// shared-memory window other peers on the same node can map.
type Backing int

const (
	Private Backing = iota
	Shared
)

func (b Backing) String() string {
	if b == Shared {
		return "shared"
	}
	return "private"
}

// NewPrivate allocates a Store with an ordinary, process-private
// realization slice. This is the single-process default.
func NewPrivate(nelem int) *Store {
	return &Store{
		Realization: make([]float64, nelem),
		backing:     Private,
	}
}

// NewShared allocates a Store backed by an anonymous, shared-memory
// mapping (MAP_SHARED) that another process on the same node could
// attach to if it inherited the mapping across a fork — the mechanism real MPI shared-memory windows use. Close
// releases the mapping. NewShared fails with ErrAllocation-flavored
// errors when the region cannot be mapped, matching spec.md §7's rule
// that shared-window allocation failure fails the whole simulate.
func NewShared(nelem int) (*Store, error) {
	nBytes := int64(nelem) * 8 // realization(float64)
	region, err := newRegion(nBytes)
	if err != nil {
		return nil, err
	}
	s := &Store{backing: Shared, region: region}
	s.Realization = region.float64Slice(0, nelem)
	return s, nil
}

// Backing reports which variant backs s.
func (s *Store) Backing() Backing { return s.backing }

// Close releases a shared-memory mapping. It is a no-op for a private
// store.
func (s *Store) Close() error {
	if s.region == nil {
		return nil
	}
	return s.region.close()
}
