package geometry

import (
	"sync"

	"github.com/ctessum-atm/atmsim/internal/coordinator"
)

// flagCone marks hit[f] = true for every voxel f the observation cone
// touches, striping x-layers across both the cooperating peers (rank
// modulo ntask) and, within each peer, nWorkers goroutines — spec.md
// §4.2's "voxel flagging is striped by rank over x-layers" and §5's
// "Volume flagging... [is] safe to parallelize across independent
// voxels".
func flagCone(c coordinator.Coordinator, g *Grid, hit []bool, nWorkers int) {
	layerWork(c, g.NX, nWorkers, func(ix int) {
		for iy := 0; iy < g.NY; iy++ {
			for iz := 0; iz < g.NZ; iz++ {
				x, y, z := g.coord(ix, iy, iz)
				if g.inCone(x, y, z, 0, false) {
					hit[g.index(ix, iy, iz)] = true
				}
			}
		}
	})
}

// dilate expands hit by dilationOffsets and returns the dilated
// bitmap, striping work the same way flagCone does.
func dilate(c coordinator.Coordinator, g *Grid, hit []bool, nWorkers int) []bool {
	out := make([]bool, g.NN)
	copy(out, hit)

	layerWork(c, g.NX, nWorkers, func(ix int) {
		for iy := 0; iy < g.NY; iy++ {
			for iz := 0; iz < g.NZ; iz++ {
				if !hit[g.index(ix, iy, iz)] {
					continue
				}
				for _, off := range dilationOffsets {
					jx, jy, jz := ix+off[0], iy+off[1], iz+off[2]
					if jx < 0 || jx >= g.NX || jy < 0 || jy >= g.NY || jz < 0 || jz >= g.NZ {
						continue
					}
					out[g.index(jx, jy, jz)] = true
				}
			}
		}
	})
	return out
}

// layerWork partitions x-layers [0,nx) across c's peers by rank modulo
// ntask, then fans the peer's share out over nWorkers goroutines. fn
// must only touch the layer index it is given.
func layerWork(c coordinator.Coordinator, nx, nWorkers int, fn func(ix int)) {
	rank, ntask := c.Rank(), c.NTask()
	if nWorkers < 1 {
		nWorkers = 1
	}

	var mine []int
	for ix := 0; ix < nx; ix++ {
		if ix%ntask == rank {
			mine = append(mine, ix)
		}
	}

	var wg sync.WaitGroup
	chunks := make(chan int)
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ix := range chunks {
				fn(ix)
			}
		}()
	}
	for _, ix := range mine {
		chunks <- ix
	}
	close(chunks)
	wg.Wait()
}
