// Package geometry implements the Volume Geometry component of
// spec.md §4.2: it derives the axis-aligned bounding box of the
// observation cone over the scan duration, the voxel grid, and the
// compressed index bijection between dense and cone-hit voxels.
package geometry

import (
	"errors"
	"math"

	"github.com/ctessum-atm/atmsim/internal/coordinator"
)

// ErrEmptyCone is returned by Build when the observation cone touches
// zero voxels. It is fatal — the caller should surface it as
// spec.md §7's EmptyObservationCone.
var ErrEmptyCone = errors.New("atmsim/geometry: observation cone is empty")

// Config is the subset of SimConfig the Volume Geometry stage needs.
type Config struct {
	AzMin, AzMax float64
	ElMin, ElMax float64
	TMin, TMax   float64

	XStep, YStep, ZStep float64

	ZMax float64 // configured ceiling, before the rmax clamp
	RMax float64 // observer's outer radial bound, also used to clamp zmax
}

// Grid is the VolumeGrid entity from spec.md §3: the axis-aligned
// voxel lattice in the scan frame.
type Grid struct {
	XStart, YStart, ZStart float64
	DX, DY, DZ             float64
	XStep, YStep, ZStep    float64
	NX, NY, NZ, NN         int
	XStride, YStride, ZStride int

	MaxDist float64

	AzMin, AzMax, ElMin, ElMax float64
	Az0, El0                   float64

	Wx, Wy, Wz float64 // scan-frame wind, carried through for ind2coord/in_cone reuse
	Dt         float64 // tmax - tmin
}

// CompressedIndex is the bijection from spec.md §3: FullIndex maps
// compact index -> dense index (strictly increasing); Compressed maps
// dense index -> compact index or -1.
type CompressedIndex struct {
	FullIndex  []int64 // len Nelem
	Compressed []int32 // len NN, entries -1 or in [0,Nelem)
	Nelem      int
}

// dilationOffsets is the {-2..3}^3 neighborhood spec.md §4.2 step 7
// dilates the hit set by, to guarantee trilinear-interpolation corners
// are always available.
var dilationOffsets = func() [][3]int {
	var offs [][3]int
	for dx := -2; dx <= 3; dx++ {
		for dy := -2; dy <= 3; dy++ {
			for dz := -2; dz <= 3; dz++ {
				offs = append(offs, [3]int{dx, dy, dz})
			}
		}
	}
	return offs
}()

// index packs a 3D voxel coordinate into a dense index using g's
// strides.
func (g *Grid) index(ix, iy, iz int) int {
	return ix*g.XStride + iy*g.YStride + iz*g.ZStride
}

// coord returns the scan-frame coordinate of voxel (ix,iy,iz)'s corner.
func (g *Grid) coord(ix, iy, iz int) (x, y, z float64) {
	return g.XStart + float64(ix)*g.XStep, g.YStart + float64(iy)*g.YStep, g.ZStart + float64(iz)*g.ZStep
}

// zCorner evaluates the corner z formula from spec.md §4.2 step 2:
// z(r,el,az) = -r*cos(el)*cos(az)*sin(el0) + r*sin(el)*cos(el0), where
// az here is the offset from the scan azimuth center.
func zCorner(r, el, az, sinEl0, cosEl0 float64) float64 {
	return -r*math.Cos(el)*math.Cos(az)*sinEl0 + r*math.Sin(el)*cosEl0
}

// Build constructs the volume grid and compressed index for cfg, under
// the given scan-frame wind (already sign-inverted per spec.md §4.1),
// cooperating across the peers in c. nWorkers bounds the intra-process
// goroutine fan-out used for flagging and dilation.
func Build(c coordinator.Coordinator, cfg Config, wx, wy, wz float64, nWorkers int) (*Grid, *CompressedIndex, error) {
	g := newGrid(cfg, wx, wy, wz)

	hit := make([]bool, g.NN)
	flagCone(c, g, hit, nWorkers)
	c.AllReduceOR(hit)

	dilated := dilate(c, g, hit, nWorkers)
	c.AllReduceOR(dilated)

	ci := compress(g, dilated)
	if ci.Nelem == 0 {
		return g, ci, ErrEmptyCone
	}
	return g, ci, nil
}

func newGrid(cfg Config, wx, wy, wz float64) *Grid {
	az0 := (cfg.AzMin + cfg.AzMax) / 2
	el0 := (cfg.ElMin + cfg.ElMax) / 2
	dt := cfg.TMax - cfg.TMin
	daz := cfg.AzMax - cfg.AzMin

	zmax := math.Min(cfg.ZMax, cfg.RMax*math.Sin(cfg.ElMax))
	maxdist := zmax / math.Sin(el0)

	var deltaYCone float64
	if daz > math.Pi {
		deltaYCone = 2 * maxdist * math.Cos(cfg.ElMin)
	} else {
		deltaYCone = 2 * maxdist * math.Cos(cfg.ElMin) * math.Cos(math.Max(0, (math.Pi-daz)/2))
	}

	sinEl0, cosEl0 := math.Sin(el0), math.Cos(el0)
	// The apex (r=0, z=0) and the azimuth center join the far corners:
	// z is linear in r and, per elevation, lowest at the azimuth center.
	var zMin, zMax float64
	for _, el := range [2]float64{cfg.ElMin, cfg.ElMax} {
		for _, az := range [3]float64{cfg.AzMin - az0, 0, cfg.AzMax - az0} {
			z := zCorner(maxdist, el, az, sinEl0, cosEl0)
			if z < zMin {
				zMin = z
			}
			if z > zMax {
				zMax = z
			}
		}
	}
	deltaZCone := zMax - zMin

	deltaXCone := maxdist

	deltaX := deltaXCone + math.Abs(wx)*dt + 2*cfg.XStep
	deltaY := deltaYCone + math.Abs(wy)*dt + 2*cfg.YStep
	deltaZ := deltaZCone + math.Abs(wz)*dt + 2*cfg.ZStep

	var xstart float64
	if wx < 0 {
		xstart = -math.Abs(wx)*dt - 2*cfg.XStep
	} else {
		xstart = 0
	}

	var ystart float64
	if wy < 0 {
		ystart = -math.Abs(wy)*dt - 2*cfg.YStep
	} else {
		ystart = -2 * cfg.YStep
	}

	// zstart follows the Design Notes' recommended variant (spec.md §9
	// Open Questions): anchored on the corner-computed zMin rather than
	// a fixed margin, since zMin is already negative for wedges that
	// dip below horizontal and a fixed-margin start can clip the cone.
	zstart := zMin - math.Abs(wz)*dt - cfg.ZStep

	nx := int(deltaX/cfg.XStep) + 1
	ny := int(deltaY/cfg.YStep) + 1
	nz := int(deltaZ/cfg.ZStep) + 1

	g := &Grid{
		XStart: xstart, YStart: ystart, ZStart: zstart,
		DX: deltaX, DY: deltaY, DZ: deltaZ,
		XStep: cfg.XStep, YStep: cfg.YStep, ZStep: cfg.ZStep,
		NX: nx, NY: ny, NZ: nz, NN: nx * ny * nz,
		YStride: nz, ZStride: 1,
		MaxDist: maxdist,
		AzMin:   cfg.AzMin, AzMax: cfg.AzMax, ElMin: cfg.ElMin, ElMax: cfg.ElMax,
		Az0: az0, El0: el0,
		Wx: wx, Wy: wy, Wz: wz,
		Dt: dt,
	}
	g.XStride = ny * nz
	return g
}

func compress(g *Grid, hit []bool) *CompressedIndex {
	ci := &CompressedIndex{Compressed: make([]int32, g.NN)}
	for i := range ci.Compressed {
		ci.Compressed[i] = -1
	}
	for f, h := range hit {
		if h {
			ci.Compressed[f] = int32(len(ci.FullIndex))
			ci.FullIndex = append(ci.FullIndex, int64(f))
		}
	}
	ci.Nelem = len(ci.FullIndex)
	return ci
}
