// Package atmsim generates time-ordered atmospheric data for
// ground-based mm/submm telescope simulations: a frozen Kolmogorov
// turbulence field is drawn once per realization, advected past the
// telescope by a sampled wind, and sampled along arbitrary lines of
// sight to produce synthetic TOD.
package atmsim

import (
	"github.com/ctessum-atm/atmsim/internal/cache"
	"github.com/ctessum-atm/atmsim/internal/coordinator"
	"github.com/ctessum-atm/atmsim/internal/geometry"
	"github.com/ctessum-atm/atmsim/internal/kolmogorov"
	"github.com/ctessum-atm/atmsim/internal/rng"
	"github.com/ctessum-atm/atmsim/internal/sampler"
	volstore "github.com/ctessum-atm/atmsim/internal/store"

	"github.com/sirupsen/logrus"
)

// Simulator owns one realization's configuration, its drawn scalars
// once simulate has run, and the derived grid/realization it produced.
// A Simulator is not safe for concurrent Simulate calls, but Observe is
// safe for concurrent use once Simulate has completed, per spec.md §5.
type Simulator struct {
	Config SimConfig

	Stream      rng.Stream
	Coordinator coordinator.Coordinator
	Log         *logrus.Logger

	store *cache.Store

	params sampler.Params
	grid   *geometry.Grid
	ci     *geometry.CompressedIndex
	table  *kolmogorov.Table

	volume      *volstore.Store // backs realization when built fresh, not loaded from cache
	realization []float64
	ready       bool
}

// Close releases any shared-memory window backing the current
// realization. It is safe to call on a Simulator that never built a
// realization, or whose realization came from the on-disk cache
// instead (which is always process-private).
func (s *Simulator) Close() error {
	if s.volume == nil {
		return nil
	}
	err := s.volume.Close()
	s.volume = nil
	return err
}

// New constructs a Simulator. If cfg.CacheDir is non-empty, an on-disk
// cache store is opened (and created, if absent) for Simulate's
// use_cache path.
func New(cfg SimConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		Config:      cfg,
		Stream:      rng.CounterStream{},
		Coordinator: coordinator.Local{},
		Log:         defaultLogger(cfg.Verbosity),
	}

	if cfg.CacheDir != "" {
		store, err := cache.NewStore(cfg.CacheDir)
		if err != nil {
			return nil, wrapf(ErrAllocation, "atmsim: opening cache dir: %v", err)
		}
		s.store = store
	}
	return s, nil
}

func defaultLogger(verbosity int) *logrus.Logger {
	log := logrus.New()
	switch {
	case verbosity <= 0:
		log.SetLevel(logrus.WarnLevel)
	case verbosity == 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Ready reports whether Simulate has produced a usable realization.
func (s *Simulator) Ready() bool { return s.ready }
