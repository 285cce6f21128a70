package passes

import (
	"math"
	"testing"

	"github.com/star/skywatch/internal/geom"
)

func TestApparentMagnitude_StandardConditions(t *testing.T) {
	// At 1000 km range and 90° phase the terms reduce to a fixed offset:
	// -15.75 + 5·log10(1000) = -0.75 and -2.5·log10(sin 90° + (π/2)·cos 90°) = 0.
	got := ApparentMagnitude(-1.8, 1000, math.Pi/2)
	want := -1.8 - 0.75
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("magnitude at standard conditions = %.6f, want %.6f", got, want)
	}
}

func TestApparentMagnitude_RangeDimming(t *testing.T) {
	// Doubling the range dims by 5·log10(2) ≈ 1.505 magnitudes.
	near := ApparentMagnitude(-1.8, 500, math.Pi/2)
	far := ApparentMagnitude(-1.8, 1000, math.Pi/2)
	if d := far - near; math.Abs(d-5*math.Log10(2)) > 1e-9 {
		t.Errorf("range dimming = %.6f mag, want %.6f", d, 5*math.Log10(2))
	}
}

func TestApparentMagnitude_PhaseDimming(t *testing.T) {
	// A fuller phase (smaller angle) is brighter.
	full := ApparentMagnitude(-1.8, 1000, 0.2)
	half := ApparentMagnitude(-1.8, 1000, math.Pi/2)
	thin := ApparentMagnitude(-1.8, 1000, math.Pi-0.2)

	if full >= half {
		t.Errorf("full phase (%.3f) should be brighter than half (%.3f)", full, half)
	}
	if half >= thin {
		t.Errorf("half phase (%.3f) should be brighter than thin (%.3f)", half, thin)
	}
}

func TestApparentMagnitude_ClampsDegeneratePhase(t *testing.T) {
	// Phase angles at the exact ends of [0, π] must not produce ±Inf.
	for _, beta := range []float64{0, math.Pi, -1, 4} {
		m := ApparentMagnitude(-1.8, 1000, beta)
		if math.IsNaN(m) || math.IsInf(m, 0) {
			t.Errorf("magnitude at phase %v = %v, want finite", beta, m)
		}
	}
}

func TestPhaseAngle(t *testing.T) {
	sat := geom.Vec3{}

	tests := []struct {
		name     string
		sun, obs geom.Vec3
		wantRad  float64
	}{
		{"opposition", geom.Vec3{X: 1e8}, geom.Vec3{X: 1e3}, 0},
		{"quadrature", geom.Vec3{X: 1e8}, geom.Vec3{Y: 1e3}, math.Pi / 2},
		{"conjunction", geom.Vec3{X: 1e8}, geom.Vec3{X: -1e3}, math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PhaseAngle(sat, tt.sun, tt.obs)
			if math.Abs(got-tt.wantRad) > 1e-9 {
				t.Errorf("PhaseAngle = %.9f rad, want %.9f", got, tt.wantRad)
			}
		})
	}
}
