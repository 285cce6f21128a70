package geom

import (
	"fmt"
	"math"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// EarthRadiusKm is the mean Earth radius used for ground-track distance
// and shadow geometry.
const EarthRadiusKm = 6371.0

// GroundStation is a fixed observer location. ECEF coordinates are
// precomputed once so they can be reused across many satellite lookups.
type GroundStation struct {
	LatDeg, LonDeg, HeightM float64

	latRad, lonRad float64
	ecef           Vec3 // meters
}

// NewGroundStation creates a GroundStation from geodetic coordinates.
// Latitude and longitude are in degrees, height in meters above the
// WGS-84 ellipsoid.
func NewGroundStation(latDeg, lonDeg, heightM float64) GroundStation {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return GroundStation{
		LatDeg:  latDeg,
		LonDeg:  lonDeg,
		HeightM: heightM,
		latRad:  lat,
		lonRad:  lon,
		ecef: Vec3{
			X: (N + heightM) * cosLat * math.Cos(lon),
			Y: (N + heightM) * cosLat * math.Sin(lon),
			Z: (N*(1-wgs84E2) + heightM) * sinLat,
		},
	}
}

// ECEF returns the station position in ECEF meters.
func (g GroundStation) ECEF() Vec3 { return g.ecef }

// Key returns a stable identity string for cache keys.
func (g GroundStation) Key() string {
	return fmt.Sprintf("%.6f,%.6f,%.1f", g.LatDeg, g.LonDeg, g.HeightM)
}

// Geodetic holds a geodetic position (latitude/longitude in degrees,
// altitude in meters above the ellipsoid).
type Geodetic struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts an ECEF position (meters) to geodetic coordinates
// using the iterative Bowring method. Converges in 2-3 iterations for Earth
// orbits.
func ECEFToGeodetic(p Vec3) Geodetic {
	lon := math.Atan2(p.Y, p.X)

	rho := math.Sqrt(p.X*p.X + p.Y*p.Y)

	lat := math.Atan2(p.Z, rho*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(p.Z+wgs84E2*N*sinLat, rho)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = rho/cosLat - N
	} else {
		alt = math.Abs(p.Z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   alt,
	}
}

// GroundDistanceKm returns the great-circle distance (km) between two
// geodetic points, by the haversine formula.
func GroundDistanceKm(lat1Deg, lon1Deg, lat2Deg, lon2Deg float64) float64 {
	phi1 := lat1Deg * math.Pi / 180
	phi2 := lat2Deg * math.Pi / 180
	dPhi := (lat2Deg - lat1Deg) * math.Pi / 180
	dLambda := (lon2Deg - lon1Deg) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}
