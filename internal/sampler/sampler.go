// Package sampler implements the Parameter Sampler component of
// spec.md §4.1: it draws the per-realization scalars from independent
// truncated Gaussians via rejection, then derives the wind vector in
// the scan frame.
package sampler

import (
	"fmt"
	"math"

	"github.com/ctessum-atm/atmsim/internal/coordinator"
	"github.com/ctessum-atm/atmsim/internal/rng"
)

// maxDraws is the size of the normal-variate buffer pulled from the
// stream before giving up (spec.md §4.1: "up to 10,000 unit-normal
// variates").
const maxDraws = 10000

// varsPerAttempt is the number of independent scalars drawn together in
// one rejection attempt: lmin, lmax, w, wdir, z0, T0.
const varsPerAttempt = 6

// Dist is an independent truncated-Gaussian prior: Sigma == 0 means the
// parameter is fixed at Center.
type Dist struct {
	Center, Sigma float64
}

// Priors bundles the six independent distributions Draw samples from.
type Priors struct {
	Lmin, Lmax, W, Wdir, Z0, T0 Dist
}

// Params is the DrawnParams entity from spec.md §3: the sampled
// scalars plus the wind vector derived in the scan frame.
type Params struct {
	Lmin, Lmax float64
	W, Wdir    float64
	Z0, T0     float64

	// Wind components in the scan frame, sign-inverted per spec.md
	// §4.1 (the simulator advects the telescope through a static
	// atmosphere, not the atmosphere past the telescope).
	Wx, Wy, Wz float64

	Z0Inv float64 // 1/(2*z0)
}

// Draw samples Params from priors using stream, indexed at
// (key1,key2,counter1,counter2), then derives the scan-frame wind from
// az0 (scan azimuth center) and el0 (scan elevation center). It returns
// the number of stream normals consumed (always maxDraws, per spec.md
// §4.1's "advance counter2 by that count").
func Draw(stream rng.Stream, key1, key2, counter1, counter2 uint64, priors Priors, az0, el0 float64) (Params, int, error) {
	buf := make([]float64, maxDraws)
	stream.Normal(key1, key2, counter1, counter2, buf)

	attempts := maxDraws / varsPerAttempt
	for a := 0; a < attempts; a++ {
		pos := a * varsPerAttempt
		lmin := priors.Lmin.Center + priors.Lmin.Sigma*buf[pos+0]
		lmax := priors.Lmax.Center + priors.Lmax.Sigma*buf[pos+1]
		w := priors.W.Center + priors.W.Sigma*buf[pos+2]
		wdir := priors.Wdir.Center + priors.Wdir.Sigma*buf[pos+3]
		z0 := priors.Z0.Center + priors.Z0.Sigma*buf[pos+4]
		t0 := priors.T0.Center + priors.T0.Sigma*buf[pos+5]

		if !(lmin > 0 && lmax > 0 && lmin < lmax && w >= 0 && z0 > 0 && t0 > 0) {
			continue
		}

		wdir = math.Mod(wdir, math.Pi)
		if wdir < 0 {
			wdir += math.Pi
		}

		p := Params{Lmin: lmin, Lmax: lmax, W: w, Wdir: wdir, Z0: z0, T0: t0}
		p.Wx, p.Wy, p.Wz = scanFrameWind(w, wdir, az0, el0)
		p.Z0Inv = 1 / (2 * z0)
		return p, maxDraws, nil
	}
	return Params{}, maxDraws, fmt.Errorf("atmsim/sampler: exhausted %d normals without satisfying physical constraints", maxDraws)
}

// Broadcast lets one rank draw Params and broadcast the six scalars to
// every peer, which each recompute the derived wind locally — the
// parallel-variant protocol from spec.md §4.1's last paragraph.
func Broadcast(c coordinator.Coordinator, root int, local Params) Params {
	scalars := []float64{local.Lmin, local.Lmax, local.W, local.Wdir, local.Z0, local.T0}
	scalars = c.BroadcastScalars(scalars, root)
	p := Params{Lmin: scalars[0], Lmax: scalars[1], W: scalars[2], Wdir: scalars[3], Z0: scalars[4], T0: scalars[5]}
	return p
}

// RecomputeWind fills in the derived fields of p (wind in scan frame,
// z0inv) from its six sampled scalars. Peers that received p via
// Broadcast call this locally rather than receiving the derived fields
// directly, per spec.md §4.1.
func RecomputeWind(p Params, az0, el0 float64) Params {
	p.Wx, p.Wy, p.Wz = scanFrameWind(p.W, p.Wdir, az0, el0)
	p.Z0Inv = 1 / (2 * p.Z0)
	return p
}

// scanFrameWind rotates the horizontal wind (w cos wdir, w sin wdir, 0)
// from the east-north-up frame into the scan frame: first by azimuth
// offset (az0 - pi/2) about the vertical axis, then by the central
// elevation el0 about the scan frame's y-axis (the same rotation
// ind2coord uses between the scan and horizontal frames, run in
// reverse since we are going horizontal -> scan). The result is
// sign-inverted, per spec.md §4.1, so the simulator can advect the
// telescope through a static field rather than advect the field past a
// static telescope.
func scanFrameWind(w, wdir, az0, el0 float64) (wx, wy, wz float64) {
	wx0 := w * math.Cos(wdir)
	wy0 := w * math.Sin(wdir)

	theta := az0 - math.Pi/2
	ct, st := math.Cos(theta), math.Sin(theta)
	xh := wx0*ct - wy0*st
	yh := wx0*st + wy0*ct

	ce, se := math.Cos(el0), math.Sin(el0)
	x := xh*ce + 0*se
	z := -xh*se + 0*ce
	y := yh

	return -x, -y, -z
}
