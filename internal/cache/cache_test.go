package cache

import (
	"context"
	"errors"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	k := Key{Key1: 1, Key2: 2, Counter1: 3, Counter2: 4}
	meta := Metadata{
		NN: 100, Nelem: 3, NX: 5, NY: 5, NZ: 4,
		DX: 1.5, DY: 1.5, DZ: 2, XStart: -1, YStart: -2, ZStart: 0,
		MaxDist: 123.456, Wx: 1, Wy: -2, Wz: 0,
		Lmin: 10, Lmax: 100, W: 5, Wdir: 0.5, Z0: 2000, T0: 280,
	}
	real := Realization{
		FullIndex:   []int64{7, 42, 99},
		Realization: []float64{1.1, -2.2, 3.3},
	}

	if err := s.Save(k, meta, real); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotMeta, gotReal, err := s.Load(context.Background(), k, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotMeta != meta {
		t.Errorf("metadata round-trip mismatch: got %+v, want %+v", gotMeta, meta)
	}
	for i := range real.FullIndex {
		if gotReal.FullIndex[i] != real.FullIndex[i] || gotReal.Realization[i] != real.Realization[i] {
			t.Errorf("realization[%d] mismatch: got (%d,%g), want (%d,%g)",
				i, gotReal.FullIndex[i], gotReal.Realization[i], real.FullIndex[i], real.Realization[i])
		}
	}
}

func TestLoadMissingIsCacheMissOrCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, _, err = s.Load(context.Background(), Key{Key1: 9, Key2: 9, Counter1: 9, Counter2: 9}, 4)
	if !errors.Is(err, ErrMissOrCorrupt) {
		t.Fatalf("expected ErrMissOrCorrupt, got %v", err)
	}
}
