package dispatch

import (
	"time"

	"github.com/star/skywatch/internal/geom"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/tle"
)

// JobType identifies one of the dispatcher's job kinds.
type JobType string

const (
	JobPropagatePositions JobType = "PROPAGATE_POSITIONS"
	JobPropagateGeodetic  JobType = "PROPAGATE_GEODETIC"
	JobPassesElevation    JobType = "COMPUTE_PASSES_ELEVATION"
	JobPassesSwath        JobType = "COMPUTE_PASSES_SWATH"
	JobClearCache         JobType = "CLEAR_CACHE"
)

// Job is one unit of work. Data must hold the request type matching Type;
// a mismatch produces a failed Response, never a crash.
type Job struct {
	ID   uint64
	Type JobType
	Data any
}

// Response is the outcome of one Job. When Success is false, Error carries
// a human-readable reason and Result is nil.
type Response struct {
	ID      uint64
	Type    JobType
	Success bool
	Result  any
	Error   string
}

// PositionsRequest is the payload for JobPropagatePositions.
type PositionsRequest struct {
	Entry tle.TLEEntry
	Times []time.Time
}

// GeodeticRequest is the payload for JobPropagateGeodetic.
type GeodeticRequest struct {
	Entry tle.TLEEntry
	Time  time.Time
}

// ElevationRequest is the payload for JobPassesElevation.
type ElevationRequest struct {
	Entry   tle.TLEEntry
	Station geom.GroundStation
	Config  passes.Config
}

// SwathRequest is the payload for JobPassesSwath.
type SwathRequest struct {
	Entry   tle.TLEEntry
	Station geom.GroundStation
	Config  passes.SwathConfig
}

// PassResult is the Result payload of both pass-search job types. Stats is
// nil unless the request asked for statistics.
type PassResult struct {
	Passes []passes.Pass       `json:"passes"`
	Stats  *passes.SearchStats `json:"stats,omitempty"`
}
