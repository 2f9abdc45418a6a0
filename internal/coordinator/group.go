package coordinator

import "sync"

// Group is an in-process stand-in for a set of cooperating peer
// processes sharing one node. Each member of the group is a goroutine
// holding a *Peer; Peer implements Coordinator by synchronizing against
// its siblings through shared, mutex-guarded state. It gives the
// decomposition logic in internal/geometry, internal/kolmogorov, and
// internal/covariance a real multi-peer execution to run under without
// requiring actual separate OS processes or a network transport.
type Group struct {
	ntask int

	mu        sync.Mutex
	cond      *sync.Cond
	barrierN  int
	barrierID int

	broadcastBuf []float64
	reduceBitmap []bool
	reduceVector []float64
}

// NewGroup creates a Group of ntask peers.
func NewGroup(ntask int) *Group {
	g := &Group{ntask: ntask}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Peer returns the Coordinator for group member rank.
func (g *Group) Peer(rank int) Coordinator {
	return &member{g: g, rank: rank}
}

type member struct {
	g    *Group
	rank int
}

func (m *member) Rank() int  { return m.rank }
func (m *member) NTask() int { return m.g.ntask }

// Barrier blocks until every peer in the group has called Barrier.
func (m *member) Barrier() {
	g := m.g
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.barrierID
	g.barrierN++
	if g.barrierN == g.ntask {
		g.barrierN = 0
		g.barrierID++
		g.cond.Broadcast()
		return
	}
	for g.barrierID == id {
		g.cond.Wait()
	}
}

// BroadcastScalars has rank root publish values to the group; every
// peer's call returns a copy of root's values once all have arrived.
func (m *member) BroadcastScalars(values []float64, root int) []float64 {
	g := m.g
	g.mu.Lock()
	if m.rank == root {
		g.broadcastBuf = append([]float64(nil), values...)
	}
	g.mu.Unlock()

	m.Barrier()

	g.mu.Lock()
	out := append([]float64(nil), g.broadcastBuf...)
	g.mu.Unlock()
	return out
}

// AllReduceOR merges bitmap with every peer's bitmap via logical OR, in
// place, leaving every peer with the same merged bitmap.
func (m *member) AllReduceOR(bitmap []bool) {
	g := m.g
	g.mu.Lock()
	if g.reduceBitmap == nil {
		g.reduceBitmap = make([]bool, len(bitmap))
	}
	for i, v := range bitmap {
		if v {
			g.reduceBitmap[i] = true
		}
	}
	g.mu.Unlock()

	m.Barrier()

	g.mu.Lock()
	copy(bitmap, g.reduceBitmap)
	g.mu.Unlock()

	m.Barrier()
	g.mu.Lock()
	if m.rank == 0 {
		g.reduceBitmap = nil
	}
	g.mu.Unlock()
	m.Barrier()
}

// AllReduceSum sums vec across every peer, in place, element-wise.
func (m *member) AllReduceSum(vec []float64) {
	g := m.g
	g.mu.Lock()
	if g.reduceVector == nil {
		g.reduceVector = make([]float64, len(vec))
	}
	for i, v := range vec {
		g.reduceVector[i] += v
	}
	g.mu.Unlock()

	m.Barrier()

	g.mu.Lock()
	copy(vec, g.reduceVector)
	g.mu.Unlock()

	m.Barrier()
	g.mu.Lock()
	if m.rank == 0 {
		g.reduceVector = nil
	}
	g.mu.Unlock()
	m.Barrier()
}
