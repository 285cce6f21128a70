package propagation

import (
	"time"

	"github.com/star/skywatch/internal/geom"
	"github.com/star/skywatch/internal/tle"
)

// PositionSample is one propagated satellite state. ECI is the TEME frame
// in kilometers; ECEF is in meters. Geodetic is filled only by the geodetic
// propagation path. Samples are ephemeral: produced per propagation call
// and not retained beyond the computation that requested them.
type PositionSample struct {
	Time     time.Time      `json:"time"`
	ECIKm    geom.Vec3      `json:"eci_km"`
	ECEF     geom.Vec3      `json:"ecef_m"`
	Velocity geom.Vec3      `json:"velocity_ms"`
	Geodetic *geom.Geodetic `json:"geodetic,omitempty"`
}

// PropagatePositions propagates the entry to each timestamp and returns
// one sample per timestamp that propagated successfully. Failed timestamps
// are skipped, matching the search loop's skip-and-continue policy.
func PropagatePositions(cache *ElementSetCache, entry tle.TLEEntry, times []time.Time) ([]PositionSample, error) {
	prop, err := cache.Get(entry)
	if err != nil {
		return nil, err
	}

	samples := make([]PositionSample, 0, len(times))
	for _, t := range times {
		pos, vel, err := prop.PositionECI(t)
		if err != nil {
			continue
		}
		ecef, velECEF := geom.TEMEToECEF(pos, vel, geom.GMST(t))
		samples = append(samples, PositionSample{
			Time:     t.UTC(),
			ECIKm:    pos,
			ECEF:     ecef,
			Velocity: velECEF,
		})
	}
	return samples, nil
}

// PropagateGeodetic propagates the entry to a single timestamp and returns
// the sample with the sub-satellite geodetic point filled in, or nil when
// the propagation yields no valid position.
func PropagateGeodetic(cache *ElementSetCache, entry tle.TLEEntry, t time.Time) (*PositionSample, error) {
	prop, err := cache.Get(entry)
	if err != nil {
		return nil, err
	}

	pos, vel, err := prop.PositionECI(t)
	if err != nil {
		return nil, nil
	}
	ecef, velECEF := geom.TEMEToECEF(pos, vel, geom.GMST(t))
	g := geom.ECEFToGeodetic(ecef)
	return &PositionSample{
		Time:     t.UTC(),
		ECIKm:    pos,
		ECEF:     ecef,
		Velocity: velECEF,
		Geodetic: &g,
	}, nil
}
