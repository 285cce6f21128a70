// Package eclipse classifies whether a satellite is inside the primary
// body's shadow and locates illumination transitions within a time interval.
package eclipse

import (
	"time"

	"github.com/star/skywatch/internal/geom"
)

// InShadow reports whether a satellite at satECI (km, body-centered
// inertial) lies inside the body's shadow given the sun at sunECI (km).
//
// The shadow is modelled as an infinite cylinder of radius bodyRadiusKm
// extending away from the sun: the satellite is eclipsed iff its projection
// onto the body→sun direction is negative (night side) and its perpendicular
// distance from the sun-body line is less than the body radius. The sun's
// finite angular size is deliberately ignored (no penumbra); downstream
// consumers depend on this exact classification.
func InShadow(satECI, sunECI geom.Vec3, bodyRadiusKm float64) bool {
	d := sunECI.Unit()

	along := satECI.Dot(d)
	if along >= 0 {
		return false
	}

	perp := satECI.Sub(d.Scale(along))
	return perp.Norm() < bodyRadiusKm
}

// Positioner yields a satellite's inertial position (km) at a time.
// Implementations may fail for degenerate inputs; failed samples are skipped.
type Positioner interface {
	PositionECI(t time.Time) (pos, vel geom.Vec3, err error)
}

// Scanner classifies illumination for one satellite, memoizing results in
// an optional bucketed cache.
type Scanner struct {
	NORADID      int
	Sat          Positioner
	Sun          func(time.Time) geom.Vec3
	BodyRadiusKm float64
	Cache        *Cache // may be nil
}

// InShadowAt classifies illumination at t. ok=false means the satellite
// position could not be propagated and the sample must be skipped.
func (s *Scanner) InShadowAt(t time.Time) (inShadow, ok bool) {
	if s.Cache != nil {
		if v, hit := s.Cache.Lookup(s.NORADID, t); hit {
			return v, true
		}
	}

	pos, _, err := s.Sat.PositionECI(t)
	if err != nil {
		return false, false
	}

	v := InShadow(pos, s.Sun(t), s.BodyRadiusKm)
	if s.Cache != nil {
		s.Cache.Store(s.NORADID, t, v)
	}
	return v, true
}
