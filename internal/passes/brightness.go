package passes

import (
	"math"

	"github.com/star/skywatch/internal/geom"
)

// ApparentMagnitude estimates the visual magnitude of a sunlit satellite
// from its standard (intrinsic) magnitude, the observer range, and the
// solar phase angle at the satellite, using the diffuse-sphere model:
//
//	m = m₀ − 15.75 + 5·log10(range_km) − 2.5·log10(sin β + (π−β)·cos β)
//
// where β is the phase angle (sun-satellite-observer, radians). At 1000 km
// range and 90° phase this reduces to m₀ − 0.75.
func ApparentMagnitude(stdMag, rangeKm, phaseAngleRad float64) float64 {
	beta := phaseAngleRad
	if beta < 1e-6 {
		beta = 1e-6
	}
	if beta > math.Pi-1e-6 {
		beta = math.Pi - 1e-6
	}

	phaseTerm := math.Sin(beta) + (math.Pi-beta)*math.Cos(beta)
	return stdMag - 15.75 + 5*math.Log10(rangeKm) - 2.5*math.Log10(phaseTerm)
}

// PhaseAngle returns the sun-satellite-observer angle in radians. All three
// positions must be in the same frame and units.
func PhaseAngle(sat, sunPos, observer geom.Vec3) float64 {
	toSun := sunPos.Sub(sat).Unit()
	toObs := observer.Sub(sat).Unit()

	cosBeta := toSun.Dot(toObs)
	if cosBeta > 1 {
		cosBeta = 1
	}
	if cosBeta < -1 {
		cosBeta = -1
	}
	return math.Acos(cosBeta)
}
