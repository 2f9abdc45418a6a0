package geometry

import "math"

// Decompose splits a dense index into its (ix,iy,iz) voxel coordinates
// using the grid's strides.
func (g *Grid) Decompose(full int) (ix, iy, iz int) {
	ix = full / g.XStride
	rem := full % g.XStride
	iy = rem / g.YStride
	iz = rem % g.YStride
	return
}

// Ind2Coord is the ind2coord operation from spec.md §4.4: it decomposes
// a dense index into (ix,iy,iz), computes the scan-frame voxel
// coordinate, then rotates into the horizontal frame where the
// isotropic Kolmogorov covariance is evaluated as a function of plain
// Euclidean distance.
func (g *Grid) Ind2Coord(full int) (x, y, z float64) {
	ix, iy, iz := g.Decompose(full)
	sx, sy, sz := g.coord(ix, iy, iz)
	return g.toHorizontal(sx, sy, sz)
}

// Coord2Ind is the inverse of Ind2Coord: given a point in the
// horizontal frame, it rotates back into the scan frame and returns
// the dense index of the voxel containing it, or ok=false if the
// point falls outside the grid.
func (g *Grid) Coord2Ind(hx, hy, hz float64) (full int, ok bool) {
	sx, sy, sz := g.fromHorizontal(hx, hy, hz)
	ix := int(math.Floor((sx - g.XStart) / g.XStep))
	iy := int(math.Floor((sy - g.YStart) / g.YStep))
	iz := int(math.Floor((sz - g.ZStart) / g.ZStep))
	if ix < 0 || ix >= g.NX || iy < 0 || iy >= g.NY || iz < 0 || iz >= g.NZ {
		return 0, false
	}
	return g.index(ix, iy, iz), true
}

// toHorizontal rotates a scan-frame point into the horizontal frame:
// (x*cosel0 - z*sinel0, y, x*sinel0 + z*cosel0), per spec.md §4.4.
func (g *Grid) toHorizontal(x, y, z float64) (hx, hy, hz float64) {
	ce, se := math.Cos(g.El0), math.Sin(g.El0)
	return x*ce - z*se, y, x*se + z*ce
}

// fromHorizontal runs toHorizontal backward.
func (g *Grid) fromHorizontal(hx, hy, hz float64) (x, y, z float64) {
	ce, se := math.Cos(g.El0), math.Sin(g.El0)
	return hx*ce + hz*se, hy, -hx*se + hz*ce
}
