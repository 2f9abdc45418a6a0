package observer

import "math"

// cornerCache memoizes the eight corner values of the voxel cell last
// looked up by interpCached, so a ray stepping outward along nearly the same
// line of sight doesn't repeat the compressed-index lookups for every
// r, per spec.md §4.5's "per-sample caches avoid repeated index
// lookups along a line of sight."
type cornerCache struct {
	valid         bool
	ix, iy, iz    int
	corners       [8]float64
	cornersPresent [8]bool
}

// interpCached is the interp(x,y,z,cache) operation: it locates the voxel
// cell containing (x,y,z), reuses cache's corner values if the
// integer cell is unchanged, otherwise reloads the eight corners from
// the compressed realization, and returns the trilinear combination.
// ok is false if every corner of the cell is outside the compressed
// volume.
func (o *Observer) interpCached(cache *cornerCache, x, y, z float64) (float64, bool) {
	g := o.grid

	fx := (x - g.XStart) / g.XStep
	fy := (y - g.YStart) / g.YStep
	fz := (z - g.ZStart) / g.ZStep

	ix := int(math.Floor(fx))
	iy := int(math.Floor(fy))
	iz := int(math.Floor(fz))

	if ix < 0 || ix+1 >= g.NX || iy < 0 || iy+1 >= g.NY || iz < 0 || iz+1 >= g.NZ {
		return 0, false
	}

	tx := fx - float64(ix)
	ty := fy - float64(iy)
	tz := fz - float64(iz)

	if !cache.valid || cache.ix != ix || cache.iy != iy || cache.iz != iz {
		cache.valid = true
		cache.ix, cache.iy, cache.iz = ix, iy, iz
		n := 0
		for dx := 0; dx <= 1; dx++ {
			for dy := 0; dy <= 1; dy++ {
				for dz := 0; dz <= 1; dz++ {
					full := (ix+dx)*g.XStride + (iy+dy)*g.YStride + (iz+dz)*g.ZStride
					compact := o.ci.Compressed[full]
					if compact < 0 {
						cache.cornersPresent[n] = false
						cache.corners[n] = 0
					} else {
						cache.cornersPresent[n] = true
						cache.corners[n] = o.realization[compact]
					}
					n++
				}
			}
		}
	}

	anyPresent := false
	for _, p := range cache.cornersPresent {
		if p {
			anyPresent = true
			break
		}
	}
	if !anyPresent {
		return 0, false
	}

	c := cache.corners
	c000, c001 := c[0], c[1]
	c010, c011 := c[2], c[3]
	c100, c101 := c[4], c[5]
	c110, c111 := c[6], c[7]

	c00 := c000*(1-tz) + c001*tz
	c01 := c010*(1-tz) + c011*tz
	c10 := c100*(1-tz) + c101*tz
	c11 := c110*(1-tz) + c111*tz

	c0 := c00*(1-ty) + c01*ty
	c1 := c10*(1-ty) + c11*ty

	return c0*(1-tx) + c1*tx, true
}
