package atmsim

import (
	"context"
	"errors"
	"runtime"

	"github.com/ctessum-atm/atmsim/internal/cache"
	"github.com/ctessum-atm/atmsim/internal/covariance"
	"github.com/ctessum-atm/atmsim/internal/geometry"
	"github.com/ctessum-atm/atmsim/internal/kolmogorov"
	"github.com/ctessum-atm/atmsim/internal/sampler"
	volstore "github.com/ctessum-atm/atmsim/internal/store"
)

// Simulate runs the full pipeline — parameter draw, geometry and
// compression, Kolmogorov table (sized from the grid extents),
// per-slice covariance build, and cache save — in that strict order. If
// useCache is true, it first attempts to load a matching realization
// from disk and, on success, skips straight to a ready state with a
// realization bitwise identical to the one a previous call with the
// same PRNG words produced.
func (s *Simulator) Simulate(useCache bool) error {
	c := s.Config

	key := cache.Key{Key1: c.Key1, Key2: c.Key2, Counter1: c.Counter1, Counter2: c.Counter2}

	if useCache && s.store != nil {
		if ok, err := s.loadFromCache(key); err != nil {
			return err
		} else if ok {
			return nil
		}
		s.Log.WithField("key", key).Info("atmsim: cache miss, rebuilding realization")
	}

	az0 := (c.AzMin + c.AzMax) / 2
	el0 := (c.ElMin + c.ElMax) / 2

	params, nDrawn, err := sampler.Draw(s.Stream, c.Key1, c.Key2, c.Counter1, c.Counter2,
		sampler.Priors{
			Lmin: sampler.Dist(c.Lmin), Lmax: sampler.Dist(c.Lmax),
			W: sampler.Dist(c.W), Wdir: sampler.Dist(c.Wdir),
			Z0: sampler.Dist(c.Z0), T0: sampler.Dist(c.T0),
		}, az0, el0)
	if err != nil {
		return wrapf(ErrSamplingExhausted, "atmsim: %v", err)
	}
	if s.Coordinator.NTask() > 1 {
		params = sampler.Broadcast(s.Coordinator, 0, params)
		params = sampler.RecomputeWind(params, az0, el0)
	}
	s.params = params

	nWorkers := runtime.GOMAXPROCS(-1)

	grid, ci, err := geometry.Build(s.Coordinator, geometry.Config{
		AzMin: c.AzMin, AzMax: c.AzMax,
		ElMin: c.ElMin, ElMax: c.ElMax,
		TMin: c.TMin, TMax: c.TMax,
		XStep: c.XStep, YStep: c.YStep, ZStep: c.ZStep,
		ZMax: c.ZMax, RMax: c.RMax,
	}, params.Wx, params.Wy, params.Wz, nWorkers)
	if err != nil {
		if errors.Is(err, geometry.ErrEmptyCone) {
			return wrapf(ErrEmptyObservationCone, "atmsim: %v", err)
		}
		return wrapf(ErrAllocation, "atmsim: building volume geometry: %v", err)
	}
	s.grid, s.ci = grid, ci

	table := kolmogorov.Build(s.Coordinator, params.Lmin, params.Lmax, grid.DX, grid.DY, grid.DZ, kolmogorov.Params{})
	s.table = table

	if s.volume != nil {
		s.volume.Close()
		s.volume = nil
	}
	var vol *volstore.Store
	if s.Coordinator.NTask() > 1 {
		vol, err = volstore.NewShared(ci.Nelem)
		if err != nil {
			return wrapf(ErrAllocation, "atmsim: allocating shared realization window: %v", err)
		}
	} else {
		vol = volstore.NewPrivate(ci.Nelem)
	}

	err = covariance.Run(s.Coordinator, ci.FullIndex, grid, params.Z0Inv, table, c.sliceMaxSize(),
		s.Stream, c.Key1, c.Key2, c.Counter1, c.Counter2+uint64(nDrawn), vol.Realization)
	if err != nil {
		vol.Close()
		if errors.Is(err, covariance.ErrFactorization) {
			return wrapf(ErrFactorization, "atmsim: %v", err)
		}
		return wrapf(ErrAllocation, "atmsim: %v", err)
	}
	s.volume = vol
	s.realization = vol.Realization
	s.ready = true

	if s.store != nil {
		if err := s.saveToCache(key); err != nil {
			s.Log.WithError(err).Warn("atmsim: failed to persist realization to cache")
		}
	}
	return nil
}

func (s *Simulator) loadFromCache(key cache.Key) (bool, error) {
	meta, real, err := s.store.Load(context.Background(), key, 4)
	if err != nil {
		return false, nil // ErrMissOrCorrupt: fall through and rebuild, per spec.md §7
	}

	c := s.Config
	az0 := (c.AzMin + c.AzMax) / 2
	el0 := (c.ElMin + c.ElMax) / 2

	grid := &geometry.Grid{
		XStart: meta.XStart, YStart: meta.YStart, ZStart: meta.ZStart,
		DX: meta.DX, DY: meta.DY, DZ: meta.DZ,
		XStep: c.XStep, YStep: c.YStep, ZStep: c.ZStep,
		NX: meta.NX, NY: meta.NY, NZ: meta.NZ, NN: meta.NN,
		YStride: meta.NZ, ZStride: 1,
		MaxDist: meta.MaxDist,
		AzMin: c.AzMin, AzMax: c.AzMax, ElMin: c.ElMin, ElMax: c.ElMax,
		Az0: az0, El0: el0,
		Wx: meta.Wx, Wy: meta.Wy, Wz: meta.Wz,
		Dt: c.TMax - c.TMin,
	}
	grid.XStride = meta.NY * meta.NZ

	ci := &geometry.CompressedIndex{FullIndex: real.FullIndex, Nelem: meta.Nelem}
	ci.Compressed = make([]int32, meta.NN)
	for i := range ci.Compressed {
		ci.Compressed[i] = -1
	}
	for compact, full := range real.FullIndex {
		ci.Compressed[full] = int32(compact)
	}

	if s.volume != nil {
		s.volume.Close()
		s.volume = nil
	}
	s.grid, s.ci = grid, ci
	s.realization = real.Realization
	s.params = sampler.Params{
		Lmin: meta.Lmin, Lmax: meta.Lmax, W: meta.W, Wdir: meta.Wdir,
		Z0: meta.Z0, T0: meta.T0,
		Wx: meta.Wx, Wy: meta.Wy, Wz: meta.Wz,
		Z0Inv: 1 / (2 * meta.Z0),
	}
	s.ready = true
	return true, nil
}

func (s *Simulator) saveToCache(key cache.Key) error {
	meta := cache.Metadata{
		NN: s.grid.NN, Nelem: s.ci.Nelem,
		NX: s.grid.NX, NY: s.grid.NY, NZ: s.grid.NZ,
		DX: s.grid.DX, DY: s.grid.DY, DZ: s.grid.DZ,
		XStart: s.grid.XStart, YStart: s.grid.YStart, ZStart: s.grid.ZStart,
		MaxDist: s.grid.MaxDist,
		Wx:      s.params.Wx, Wy: s.params.Wy, Wz: s.params.Wz,
		Lmin: s.params.Lmin, Lmax: s.params.Lmax,
		W: s.params.W, Wdir: s.params.Wdir,
		Z0: s.params.Z0, T0: s.params.T0,
	}
	return s.store.Save(key, meta, cache.Realization{
		FullIndex:   s.ci.FullIndex,
		Realization: s.realization,
	})
}
