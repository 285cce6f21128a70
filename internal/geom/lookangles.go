package geom

import "math"

// LookAngles holds azimuth, elevation, and range from a ground station to
// a satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// LookAnglesTo computes azimuth, elevation, and range from a ground station
// to a satellite position given in ECEF meters.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado
// Section 4.4. Returns ok=false when the satellite position is non-finite
// or coincides with the station; callers must treat the sample as absent
// and skip it rather than aborting a search loop.
func LookAnglesTo(g GroundStation, sat Vec3) (LookAngles, bool) {
	if !sat.IsFinite() {
		return LookAngles{}, false
	}

	r := sat.Sub(g.ecef)

	sinLat := math.Sin(g.latRad)
	cosLat := math.Cos(g.latRad)
	sinLon := math.Sin(g.lonRad)
	cosLon := math.Cos(g.lonRad)

	// Rotate the ECEF range vector to SEZ (South, East, Zenith).
	south := sinLat*cosLon*r.X + sinLat*sinLon*r.Y - cosLat*r.Z
	east := -sinLon*r.X + cosLon*r.Y
	zenith := cosLat*cosLon*r.X + cosLat*sinLon*r.Y + sinLat*r.Z

	rangeMag := math.Sqrt(south*south + east*east + zenith*zenith)
	if rangeMag == 0 || math.IsNaN(rangeMag) || math.IsInf(rangeMag, 0) {
		return LookAngles{}, false
	}

	el := math.Asin(zenith / rangeMag)

	// Azimuth measured clockwise from North. In SEZ, North = -South,
	// so az = atan2(east, -south).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeMag / 1000.0,
	}, true
}
