// Package geom provides the coordinate geometry for the pass-search engine:
// reference-frame transforms, ground-station look angles, and ground-track
// distances.
//
// The primary transform is TEME (True Equator Mean Equinox) to ECEF
// (Earth-Centered Earth-Fixed), needed because SGP4 outputs positions in
// TEME while look angles are computed against an Earth-fixed station.
//
// Method: simplified Vallado-style rotation using GMST only (TEME → PEF ≈
// ECEF). This ignores polar motion and equation of equinoxes, which
// introduces ~50m error at most — acceptable for visibility prediction.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package geom

import "math"

// TEMEToECEF rotates a TEME position (km) and velocity (km/s) to ECEF using
// a precomputed GMST angle (radians). Outputs are in meters and m/s.
//
// Position transform: r_ECEF = R3(θ) * r_TEME
// Velocity transform: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF
//
// where R3(θ) is a rotation about the Z-axis by angle θ (GMST),
// and ω = [0, 0, ω_earth] is Earth's angular velocity vector.
func TEMEToECEF(posKm, velKmS Vec3, gmst float64) (posM, velMS Vec3) {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := posKm.X*cosG + posKm.Y*sinG
	y := -posKm.X*sinG + posKm.Y*cosG
	z := posKm.Z

	vx := velKmS.X*cosG + velKmS.Y*sinG
	vy := -velKmS.X*sinG + velKmS.Y*cosG
	vz := velKmS.Z

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	vx += OmegaEarth * y
	vy -= OmegaEarth * x

	posM = Vec3{x * 1000.0, y * 1000.0, z * 1000.0}
	velMS = Vec3{vx * 1000.0, vy * 1000.0, vz * 1000.0}
	return posM, velMS
}

// ValidECEF checks that an ECEF position (meters) is physically reasonable
// for an Earth-orbiting satellite: finite, with magnitude between ~6200km
// (just under Earth's surface radius) and ~50000km (above GEO).
func ValidECEF(p Vec3) bool {
	if !p.IsFinite() {
		return false
	}
	mag := p.Norm()
	const minRadius = 6200.0 * 1000.0
	const maxRadius = 50000.0 * 1000.0
	return mag >= minRadius && mag <= maxRadius
}
