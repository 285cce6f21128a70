package passes

import (
	"time"

	"github.com/star/skywatch/internal/eclipse"
)

// Pass describes a single visibility window of an orbiting object over a
// ground station. Immutable once returned by a search.
//
// For elevation passes the apex is the point of maximum elevation. For
// swath passes the apex is the point of minimum ground-track distance and
// MinGroundDistKm is set.
type Pass struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ApexTime        time.Time `json:"apex_time"`
	MaxElevation    float64   `json:"max_elevation"`
	AzimuthStart    float64   `json:"azimuth_start"`
	AzimuthApex     float64   `json:"azimuth_apex"`
	AzimuthEnd      float64   `json:"azimuth_end"`
	DurationSeconds float64   `json:"duration_seconds"`

	MinGroundDistKm *float64 `json:"min_ground_dist_km,omitempty"`
	ApexMagnitude   *float64 `json:"apex_magnitude,omitempty"`

	EclipseTransitions []eclipse.Transition `json:"eclipse_transitions"`
}

// Config holds the parameters for an elevation-threshold pass search.
type Config struct {
	Start           time.Time
	End             time.Time
	MinElevationDeg float64
	MaxPasses       int

	// TransitionStep is the fixed step of the illumination scan inside
	// each found pass. Zero selects the default (30s).
	TransitionStep time.Duration

	// StandardMagnitude, when set, enables apparent-magnitude estimation
	// at the pass apex.
	StandardMagnitude *float64

	CollectStats bool
}

// SwathConfig holds the parameters for a ground-track swath pass search:
// a pass is any interval where the sub-satellite point stays within half
// the swath width of the station.
type SwathConfig struct {
	Start     time.Time
	End       time.Time
	SwathKm   float64
	MaxPasses int

	TransitionStep time.Duration
	CollectStats   bool
}

// SearchStats is an optional timing breakdown of one search, for
// performance diagnostics only.
type SearchStats struct {
	TotalMs          float64 `json:"total_ms"`
	PropagationMs    float64 `json:"propagation_ms"`
	PropagationCalls int     `json:"propagation_calls"`
	GeometryMs       float64 `json:"geometry_ms"`
	EclipseMs        float64 `json:"eclipse_ms"`
	TransitionMs     float64 `json:"transition_ms"`
	Iterations       int     `json:"iterations"`
	PassesFound      int     `json:"passes_found"`
}
