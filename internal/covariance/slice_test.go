package covariance

import "testing"

func TestSlicesContiguousCover(t *testing.T) {
	// Three X-layers of sizes 4, 3, 5 at xstride=100.
	var full []int64
	for i := 0; i < 4; i++ {
		full = append(full, int64(0*100+i))
	}
	for i := 0; i < 3; i++ {
		full = append(full, int64(1*100+i))
	}
	for i := 0; i < 5; i++ {
		full = append(full, int64(2*100+i))
	}

	slices := Slices(full, 100, 6)
	if len(slices) == 0 {
		t.Fatal("expected at least one slice")
	}

	// Cover [0,nelem) with no gaps or overlaps.
	if slices[0].Start != 0 {
		t.Fatalf("first slice must start at 0, got %d", slices[0].Start)
	}
	for i := 1; i < len(slices); i++ {
		if slices[i].Start != slices[i-1].End {
			t.Fatalf("slices not contiguous: slice %d ends at %d, slice %d starts at %d",
				i-1, slices[i-1].End, i, slices[i].Start)
		}
	}
	if got := slices[len(slices)-1].End; got != len(full) {
		t.Fatalf("last slice must end at nelem=%d, got %d", len(full), got)
	}

	// No slice should exceed the cap except a lone oversized layer.
	for _, s := range slices {
		if s.End-s.Start > 6 {
			t.Errorf("slice [%d,%d) exceeds sliceMaxSize=6", s.Start, s.End)
		}
	}
}

func TestSlicesOversizedSingleLayer(t *testing.T) {
	var full []int64
	for i := 0; i < 20; i++ {
		full = append(full, int64(i))
	}
	slices := Slices(full, 100, 5)
	if len(slices) != 1 {
		t.Fatalf("a single oversized layer must still form one slice, got %d slices", len(slices))
	}
	if slices[0].Start != 0 || slices[0].End != 20 {
		t.Fatalf("expected [0,20), got [%d,%d)", slices[0].Start, slices[0].End)
	}
}

func TestSlicesEmpty(t *testing.T) {
	if s := Slices(nil, 100, 10); s != nil {
		t.Fatalf("expected nil for empty index, got %v", s)
	}
}
