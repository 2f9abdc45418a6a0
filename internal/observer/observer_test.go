package observer

import (
	"math"
	"testing"
)

func TestInBoundsShiftedAzimuth(t *testing.T) {
	o := &Observer{cfg: Config{AzMin: 0, AzMax: math.Pi / 2, ElMin: math.Pi / 3, ElMax: math.Pi / 2.5}}

	if !o.inBounds(math.Pi/4, math.Pi/2.8) {
		t.Error("center of the cone should be in bounds")
	}
	if !o.inBounds(math.Pi/4+2*math.Pi, math.Pi/2.8) {
		t.Error("azimuth shifted by +2pi should still be accepted")
	}
	if o.inBounds(math.Pi, math.Pi/2.8) {
		t.Error("azimuth far outside the cone should be rejected")
	}
	if o.inBounds(math.Pi/4, 0) {
		t.Error("elevation outside the cone should be rejected")
	}
}
