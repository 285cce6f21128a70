package propagation

import (
	"math"
	"testing"
	"time"

	"github.com/star/skywatch/internal/tle"
)

var issEntry = tle.TLEEntry{
	NORADID:    25544,
	Name:       "ISS (ZARYA)",
	Epoch:      time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC),
	MeanMotion: 15.49874301,
	Line1:      "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
	Line2:      "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058",
}

func TestSGP4Propagator_ISS(t *testing.T) {
	prop, err := NewSGP4Propagator(issEntry.Line1, issEntry.Line2, issEntry.NORADID)
	if err != nil {
		t.Fatalf("NewSGP4Propagator: %v", err)
	}

	// Propagate near epoch; ISS orbits at ~415 km altitude, ~7.66 km/s.
	pos, vel, err := prop.PositionECI(issEntry.Epoch.Add(30 * time.Minute))
	if err != nil {
		t.Fatalf("PositionECI: %v", err)
	}

	alt := pos.Norm() - 6371.0
	if alt < 350 || alt > 500 {
		t.Errorf("ISS altitude = %.1f km, want 350-500 km", alt)
	}

	speed := vel.Norm()
	if math.Abs(speed-7.66) > 0.2 {
		t.Errorf("ISS speed = %.3f km/s, want ~7.66 km/s", speed)
	}
}

func TestNewSGP4Propagator_InvalidLines(t *testing.T) {
	tests := []struct {
		name  string
		line1 string
		line2 string
	}{
		{"empty", "", ""},
		{"short line1", "1 25544U", issEntry.Line2},
		{"wrong line1 prefix", "9" + issEntry.Line1[1:], issEntry.Line2},
		{"wrong line2 prefix", issEntry.Line1, "9" + issEntry.Line2[1:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSGP4Propagator(tt.line1, tt.line2, 99999); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestElementSetCache(t *testing.T) {
	c := NewElementSetCache()

	p1, err := c.Get(issEntry)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Misses() != 1 || c.Hits() != 0 {
		t.Errorf("after first Get: hits=%d misses=%d, want 0/1", c.Hits(), c.Misses())
	}

	p2, err := c.Get(issEntry)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p1 != p2 {
		t.Error("second Get should return the cached propagator")
	}
	if c.Hits() != 1 {
		t.Errorf("hits = %d, want 1", c.Hits())
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	// Different element text for the same object is a distinct entry.
	refreshed := issEntry
	refreshed.Line1 = "1 25544U 98067A   25046.18032407  .00016717  00000+0  30099-3 0  9994"
	if _, err := c.Get(refreshed); err != nil {
		t.Fatalf("Get refreshed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len after refreshed elements = %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestPropagatePositions_SkipsNothingOnValidTimes(t *testing.T) {
	c := NewElementSetCache()

	times := []time.Time{
		issEntry.Epoch,
		issEntry.Epoch.Add(10 * time.Minute),
		issEntry.Epoch.Add(20 * time.Minute),
	}

	samples, err := PropagatePositions(c, issEntry, times)
	if err != nil {
		t.Fatalf("PropagatePositions: %v", err)
	}
	if len(samples) != len(times) {
		t.Fatalf("got %d samples, want %d", len(samples), len(times))
	}

	for i, s := range samples {
		if !s.ECIKm.IsFinite() || s.ECIKm.Norm() < 6200 {
			t.Errorf("sample %d: bad ECI position %+v", i, s.ECIKm)
		}
		if s.Geodetic != nil {
			t.Errorf("sample %d: batch path should not fill geodetic", i)
		}
	}
}

func TestPropagateGeodetic(t *testing.T) {
	c := NewElementSetCache()

	s, err := PropagateGeodetic(c, issEntry, issEntry.Epoch.Add(time.Hour))
	if err != nil {
		t.Fatalf("PropagateGeodetic: %v", err)
	}
	if s == nil {
		t.Fatal("expected a sample")
	}
	if s.Geodetic == nil {
		t.Fatal("expected geodetic point")
	}

	// ISS inclination is 51.64°: sub-satellite latitude bounded by it.
	if math.Abs(s.Geodetic.LatDeg) > 52.0 {
		t.Errorf("sub-satellite latitude = %.2f°, exceeds inclination bound", s.Geodetic.LatDeg)
	}
	if s.Geodetic.LonDeg < -180 || s.Geodetic.LonDeg > 180 {
		t.Errorf("longitude = %.2f° out of range", s.Geodetic.LonDeg)
	}
	if s.Geodetic.AltM < 300000 || s.Geodetic.AltM > 500000 {
		t.Errorf("altitude = %.0f m, want 300-500 km", s.Geodetic.AltM)
	}
}
