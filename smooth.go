package atmsim

// smoothWidth is the fixed y/z kernel half-width the original
// implementation's smooth() uses (the x offset is pinned to zero).
const smoothWidth = 3

// Smooth replaces each voxel's realization value with the mean of the
// compressed voxels within smoothWidth steps of it in y and z (x fixed),
// an optional post-processing pass supplementing spec.md §4.4's core
// pipeline, grounded on the original implementation's atm_sim::smooth.
// Averaging lowers the variance of the realization. It is a no-op until
// Simulate has produced a realization.
func (s *Simulator) Smooth() {
	if !s.ready {
		return
	}
	g, ci := s.grid, s.ci

	smoothed := make([]float64, len(s.realization))
	for i, full := range ci.FullIndex {
		ix := int(full) / g.XStride
		rem := int(full) % g.XStride
		iy := rem / g.YStride
		iz := rem % g.YStride

		var sum float64
		var n int
		for yoff := -smoothWidth; yoff <= smoothWidth; yoff++ {
			jy := iy + yoff
			if jy < 0 {
				continue
			}
			if jy >= g.NY {
				break
			}
			for zoff := -smoothWidth; zoff <= smoothWidth; zoff++ {
				jz := iz + zoff
				if jz < 0 {
					continue
				}
				if jz >= g.NZ {
					break
				}
				full := ix*g.XStride + jy*g.YStride + jz*g.ZStride
				if compact := ci.Compressed[full]; compact >= 0 {
					sum += s.realization[compact]
					n++
				}
			}
		}
		if n > 0 {
			smoothed[i] = sum / float64(n)
		}
	}
	copy(s.realization, smoothed)
}
