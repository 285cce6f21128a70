// Package sun provides a low-precision solar ephemeris: the sun's position
// in an Earth-centered inertial frame at a given time.
//
// The series is the classic Meeus/Astronomical-Almanac low-precision model
// used by the PREDICT family of satellite trackers. Accuracy is a few
// hundredths of a degree, far better than the cylindrical shadow model
// consuming it requires.
package sun

import (
	"math"
	"time"

	"github.com/star/skywatch/internal/geom"
)

const (
	astronomicalUnitKm = 1.49597870691e8
	twoPi              = 2 * math.Pi
	deg2rad            = math.Pi / 180.0
	secsPerDay         = 86400.0
)

// Position returns the sun's geocentric ECI position in kilometers at t.
func Position(t time.Time) geom.Vec3 {
	jd := julianDate(t.UTC())

	mjd := jd - 2415020.0
	year := 1900 + mjd/365.25
	T := (mjd + deltaET(year)/secsPerDay) / 36525.0

	// Mean anomaly, mean longitude, eccentricity of Earth's orbit.
	m := deg2rad * modf(358.47583+modf(35999.04975*T, 360.0)-(0.000150+0.0000033*T)*T*T, 360.0)
	l := deg2rad * modf(279.69668+modf(36000.76892*T, 360.0)+0.0003025*T*T, 360.0)
	e := 0.01675104 - (0.0000418+0.000000126*T)*T

	// Equation of center and longitude of the ascending node of the moon
	// (for the nutation correction to apparent longitude).
	c := deg2rad * ((1.919460-(0.004789+0.000014*T)*T)*math.Sin(m) +
		(0.020094-0.000100*T)*math.Sin(2*m) + 0.000293*math.Sin(3*m))
	o := deg2rad * modf(259.18-1934.142*T, 360.0)

	// Apparent ecliptic longitude and true anomaly.
	lsa := modf(l+c-deg2rad*(0.00569-0.00479*math.Sin(o)), twoPi)
	nu := modf(m+c, twoPi)

	// Distance in AU, obliquity of the ecliptic.
	r := 1.0000002 * (1.0 - e*e) / (1.0 + e*math.Cos(nu))
	eps := deg2rad * (23.452294 - (0.0130125+(0.00000164-0.000000503*T)*T)*T + 0.00256*math.Cos(o))

	rKm := astronomicalUnitKm * r

	return geom.Vec3{
		X: rKm * math.Cos(lsa),
		Y: rKm * math.Sin(lsa) * math.Cos(eps),
		Z: rKm * math.Sin(lsa) * math.Sin(eps),
	}
}

// deltaET approximates the difference between UT and ephemeris time (TDT)
// in seconds, from a least-squares fit of 1950-1991 almanac data.
func deltaET(year float64) float64 {
	return 26.465 + 0.747622*(year-1950) + 1.886913*math.Sin(twoPi*(year-1975)/33)
}

// julianDate converts a UTC time to Julian Date.
func julianDate(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day()) +
		(float64(t.Hour())+float64(t.Minute())/60.0+
			(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600.0)/24.0

	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
}

// modf returns a mod b, normalized to [0, b).
func modf(a, b float64) float64 {
	v := math.Mod(a, b)
	if v < 0 {
		v += b
	}
	return v
}
