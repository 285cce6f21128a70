package eclipse

import (
	"errors"
	"testing"
	"time"

	"github.com/star/skywatch/internal/geom"
)

const earthRadiusKm = 6371.0

func TestInShadow_Geometry(t *testing.T) {
	// Sun on the +X axis at 1 AU.
	sun := geom.Vec3{X: 1.496e8}

	tests := []struct {
		name string
		sat  geom.Vec3
		want bool
	}{
		{
			name: "directly behind Earth on the anti-sun axis",
			sat:  geom.Vec3{X: -7000},
			want: true,
		},
		{
			name: "between Earth and sun",
			sat:  geom.Vec3{X: 7000},
			want: false,
		},
		{
			name: "night side but outside the cylinder",
			sat:  geom.Vec3{X: -7000, Y: 7000},
			want: false,
		},
		{
			name: "night side just inside the cylinder wall",
			sat:  geom.Vec3{X: -7000, Y: earthRadiusKm - 1},
			want: true,
		},
		{
			name: "night side just outside the cylinder wall",
			sat:  geom.Vec3{X: -7000, Y: earthRadiusKm + 1},
			want: false,
		},
		{
			// Projection exactly zero is day side: the comparison is
			// strict on the night-side test.
			name: "terminator plane",
			sat:  geom.Vec3{Y: 7000},
			want: false,
		},
		{
			// Distance from the axis exactly the body radius is sunlit:
			// the cylinder test is a strict less-than.
			name: "exactly on the cylinder wall",
			sat:  geom.Vec3{X: -7000, Y: earthRadiusKm},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InShadow(tt.sat, sun, earthRadiusKm); got != tt.want {
				t.Errorf("InShadow(%+v) = %v, want %v", tt.sat, got, tt.want)
			}
		})
	}
}

// fakePositioner returns scripted positions keyed by Unix second, and an
// error for any time not in the script.
type fakePositioner struct {
	positions map[int64]geom.Vec3
}

func (f *fakePositioner) PositionECI(t time.Time) (geom.Vec3, geom.Vec3, error) {
	p, ok := f.positions[t.Unix()]
	if !ok {
		return geom.Vec3{}, geom.Vec3{}, errors.New("no position scripted")
	}
	return p, geom.Vec3{}, nil
}

func TestScannerInShadowAt(t *testing.T) {
	base := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	tenMin := base.Add(10 * time.Minute)
	fake := &fakePositioner{positions: map[int64]geom.Vec3{
		base.Unix():   {X: -7000}, // eclipsed
		tenMin.Unix(): {X: 7000},  // sunlit
	}}

	s := &Scanner{
		NORADID:      25544,
		Sat:          fake,
		Sun:          func(time.Time) geom.Vec3 { return geom.Vec3{X: 1.496e8} },
		BodyRadiusKm: earthRadiusKm,
	}

	inShadow, ok := s.InShadowAt(base)
	if !ok || !inShadow {
		t.Errorf("at base: inShadow=%v ok=%v, want true/true", inShadow, ok)
	}

	inShadow, ok = s.InShadowAt(tenMin)
	if !ok || inShadow {
		t.Errorf("at +10m: inShadow=%v ok=%v, want false/true", inShadow, ok)
	}

	// Unscripted time: propagation failure surfaces as ok=false.
	if _, ok := s.InShadowAt(base.Add(time.Hour)); ok {
		t.Error("expected ok=false for failed propagation")
	}
}

func TestScannerUsesCache(t *testing.T) {
	base := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	calls := 0

	s := &Scanner{
		NORADID: 25544,
		Sat: positionerFunc(func(time.Time) (geom.Vec3, geom.Vec3, error) {
			calls++
			return geom.Vec3{X: -7000}, geom.Vec3{}, nil
		}),
		Sun:          func(time.Time) geom.Vec3 { return geom.Vec3{X: 1.496e8} },
		BodyRadiusKm: earthRadiusKm,
		Cache:        NewCache(16, DefaultBucket),
	}

	// Two queries within the same bucket: one propagation.
	s.InShadowAt(base)
	s.InShadowAt(base.Add(time.Second))
	if calls != 1 {
		t.Errorf("propagation calls = %d, want 1 (second query should hit cache)", calls)
	}

	// A query in a different bucket propagates again.
	s.InShadowAt(base.Add(time.Minute))
	if calls != 2 {
		t.Errorf("propagation calls = %d, want 2", calls)
	}
}

type positionerFunc func(time.Time) (geom.Vec3, geom.Vec3, error)

func (f positionerFunc) PositionECI(t time.Time) (geom.Vec3, geom.Vec3, error) {
	return f(t)
}
