package geom

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// TestJulianDate verifies the Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC
			name:     "Vallado example date",
			time:     time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC),
			expected: 2453101.827411875,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			diff := math.Abs(got - tt.expected)
			if diff > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.expected, diff)
			}
		})
	}
}

// TestGMST validates the GMST calculation against the go-satellite library's
// GSTimeFromDate function, which uses the same IAU-82 model.
func TestGMST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC), // integer seconds for library compat
		},
		{
			name: "recent date 2026",
			time: time.Date(2026, 8, 23, 4, 1, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			our := GMST(tt.time)
			// go-satellite's GSTimeFromDate returns GMST in radians.
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			diff := math.Abs(our - ref)
			// Allow small difference for float precision; 1e-8 radians ≈ 0.06 arcsec.
			if diff > 1e-8 {
				t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tt.time, our, ref, diff)
			}
		})
	}
}

// TestTEMEToECEF validates the TEME→ECEF transform against the go-satellite
// library's ECIToECEF function using the same GMST. Both use simplified
// GMST-only rotation (no nutation or polar motion), so they should agree
// to floating point precision.
func TestTEMEToECEF(t *testing.T) {
	tests := []struct {
		name   string
		posKm  Vec3
		velKmS Vec3
		time   time.Time
	}{
		{
			// Vallado "Fundamentals of Astrodynamics" Example 3-15
			name:   "Vallado example 3-15",
			posKm:  Vec3{X: 5094.18016, Y: 6127.64465, Z: 6380.34453},
			velKmS: Vec3{X: -4.746131487, Y: 0.786598499, Z: 5.531931288},
			time:   time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		},
		{
			name:   "LEO equatorial",
			posKm:  Vec3{X: 6778.0},
			velKmS: Vec3{Y: 7.5},
			time:   time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "LEO polar",
			posKm:  Vec3{Z: 6978.0},
			velKmS: Vec3{X: 7.4},
			time:   time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gmst := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			posM, _ := TEMEToECEF(tt.posKm, tt.velKmS, gmst)

			// Reference: go-satellite's ECIToECEF (uses km).
			refVec := satellite.ECIToECEF(
				satellite.Vector3{X: tt.posKm.X, Y: tt.posKm.Y, Z: tt.posKm.Z},
				gmst,
			)

			diff := posM.Sub(Vec3{X: refVec.X * 1000, Y: refVec.Y * 1000, Z: refVec.Z * 1000})

			// Tolerance: 1 meter.
			if math.Abs(diff.X) > 1.0 || math.Abs(diff.Y) > 1.0 || math.Abs(diff.Z) > 1.0 {
				t.Errorf("position mismatch:\n  ours: [%.3f, %.3f, %.3f] m\n  ref:  [%.3f, %.3f, %.3f] m",
					posM.X, posM.Y, posM.Z,
					refVec.X*1000, refVec.Y*1000, refVec.Z*1000)
			}

			if !ValidECEF(posM) {
				t.Errorf("ECEF position failed validation: [%.1f, %.1f, %.1f] m", posM.X, posM.Y, posM.Z)
			}
		})
	}
}

// TestTEMEToECEFVelocity verifies the velocity transform includes the Earth
// rotation correction.
func TestTEMEToECEFVelocity(t *testing.T) {
	// Prograde equatorial satellite; GMST = 0 aligns TEME X with ECEF X.
	posM, velMS := TEMEToECEF(Vec3{X: 6778.0}, Vec3{Y: 7.5}, 0)

	if math.Abs(posM.X-6778000.0) > 0.1 {
		t.Errorf("X position: got %.1f, want 6778000.0", posM.X)
	}

	// Earth rotation velocity at this radius: ω*R = 7.292115e-5 * 6778 ≈ 0.4943 km/s.
	expectedVY := (7.5 - OmegaEarth*6778.0) * 1000.0
	if math.Abs(velMS.Y-expectedVY) > 0.1 {
		t.Errorf("VY: got %.1f m/s, want %.1f m/s", velMS.Y, expectedVY)
	}
}

func TestValidECEF(t *testing.T) {
	tests := []struct {
		name  string
		pos   Vec3
		valid bool
	}{
		{"LEO", Vec3{X: 6778000}, true},
		{"GEO", Vec3{X: 42164000}, true},
		{"too low", Vec3{X: 5000000}, false},
		{"too high", Vec3{X: 60000000}, false},
		{"NaN", Vec3{X: math.NaN()}, false},
		{"Inf", Vec3{X: math.Inf(1)}, false},
		{"zero", Vec3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidECEF(tt.pos); got != tt.valid {
				t.Errorf("ValidECEF(%v) = %v, want %v", tt.pos, got, tt.valid)
			}
		})
	}
}
