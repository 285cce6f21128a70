package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/star/skywatch/internal/dispatch"
	"github.com/star/skywatch/internal/geom"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/tle"
)

// maxWindow bounds the search window accepted over the API, so that a single
// request cannot pin a worker for an unbounded amount of time.
const maxWindow = 31 * 24 * time.Hour

type tleBody struct {
	Name  string `json:"name,omitempty"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

type stationBody struct {
	LatDeg  float64 `json:"lat_deg"`
	LonDeg  float64 `json:"lon_deg"`
	HeightM float64 `json:"height_m"`
}

type passesRequest struct {
	TLE     tleBody     `json:"tle"`
	Station stationBody `json:"station"`
	Start   time.Time   `json:"start"`
	End     time.Time   `json:"end"`

	MinElevationDeg       float64  `json:"min_elevation_deg"`
	MaxPasses             int      `json:"max_passes"`
	TransitionStepSeconds int      `json:"transition_step_seconds"`
	StandardMagnitude     *float64 `json:"standard_magnitude,omitempty"`
	IncludeStats          bool     `json:"include_stats"`

	// Sync bypasses the worker pool and runs on the request goroutine.
	Sync bool `json:"sync"`
}

type swathPassesRequest struct {
	TLE     tleBody     `json:"tle"`
	Station stationBody `json:"station"`
	Start   time.Time   `json:"start"`
	End     time.Time   `json:"end"`

	SwathKm               float64 `json:"swath_km"`
	MaxPasses             int     `json:"max_passes"`
	TransitionStepSeconds int     `json:"transition_step_seconds"`
	IncludeStats          bool    `json:"include_stats"`

	Sync bool `json:"sync"`
}

type positionsRequest struct {
	TLE   tleBody     `json:"tle"`
	Times []time.Time `json:"times"`
	Sync  bool        `json:"sync"`
}

type geodeticRequest struct {
	TLE  tleBody   `json:"tle"`
	Time time.Time `json:"time"`
	Sync bool      `json:"sync"`
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	var req passesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := tle.ParseEntry(req.TLE.Name, req.TLE.Line1, req.TLE.Line2)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid TLE: "+err.Error())
		return
	}
	station, err := parseStation(req.Station)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateWindow(req.Start, req.End); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := dispatch.Job{
		ID:   s.dispatcher.NextID(),
		Type: dispatch.JobPassesElevation,
		Data: dispatch.ElevationRequest{
			Entry:   entry,
			Station: station,
			Config: passes.Config{
				Start:             req.Start,
				End:               req.End,
				MinElevationDeg:   req.MinElevationDeg,
				MaxPasses:         req.MaxPasses,
				TransitionStep:    time.Duration(req.TransitionStepSeconds) * time.Second,
				StandardMagnitude: req.StandardMagnitude,
				CollectStats:      req.IncludeStats,
			},
		},
	}

	s.respond(w, r.Context(), job, req.Sync)
}

func (s *Server) handleSwathPasses(w http.ResponseWriter, r *http.Request) {
	var req swathPassesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := tle.ParseEntry(req.TLE.Name, req.TLE.Line1, req.TLE.Line2)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid TLE: "+err.Error())
		return
	}
	station, err := parseStation(req.Station)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateWindow(req.Start, req.End); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SwathKm <= 0 {
		writeError(w, http.StatusBadRequest, "swath_km must be positive")
		return
	}

	job := dispatch.Job{
		ID:   s.dispatcher.NextID(),
		Type: dispatch.JobPassesSwath,
		Data: dispatch.SwathRequest{
			Entry:   entry,
			Station: station,
			Config: passes.SwathConfig{
				Start:          req.Start,
				End:            req.End,
				SwathKm:        req.SwathKm,
				MaxPasses:      req.MaxPasses,
				TransitionStep: time.Duration(req.TransitionStepSeconds) * time.Second,
				CollectStats:   req.IncludeStats,
			},
		},
	}

	s.respond(w, r.Context(), job, req.Sync)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	var req positionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := tle.ParseEntry(req.TLE.Name, req.TLE.Line1, req.TLE.Line2)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid TLE: "+err.Error())
		return
	}
	if len(req.Times) == 0 {
		writeError(w, http.StatusBadRequest, "times must be non-empty")
		return
	}
	if len(req.Times) > 10000 {
		writeError(w, http.StatusBadRequest, "too many timestamps (max 10000)")
		return
	}

	job := dispatch.Job{
		ID:   s.dispatcher.NextID(),
		Type: dispatch.JobPropagatePositions,
		Data: dispatch.PositionsRequest{Entry: entry, Times: req.Times},
	}

	s.respond(w, r.Context(), job, req.Sync)
}

func (s *Server) handleGeodetic(w http.ResponseWriter, r *http.Request) {
	var req geodeticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := tle.ParseEntry(req.TLE.Name, req.TLE.Line1, req.TLE.Line2)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid TLE: "+err.Error())
		return
	}
	if req.Time.IsZero() {
		writeError(w, http.StatusBadRequest, "time is required")
		return
	}

	job := dispatch.Job{
		ID:   s.dispatcher.NextID(),
		Type: dispatch.JobPropagateGeodetic,
		Data: dispatch.GeodeticRequest{Entry: entry, Time: req.Time},
	}

	s.respond(w, r.Context(), job, req.Sync)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.ClearAllCaches()
	s.logger.Info("caches cleared", "component", "api")
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// respond executes the job (synchronously or via the worker pool) and
// writes the outcome.
func (s *Server) respond(w http.ResponseWriter, ctx context.Context, job dispatch.Job, sync bool) {
	var resp dispatch.Response
	if sync {
		resp = s.dispatcher.Sync(ctx, job)
	} else {
		select {
		case resp = <-s.dispatcher.Submit(ctx, job):
		case <-ctx.Done():
			// Client went away; the worker's eventual response is discarded.
			return
		}
	}

	if !resp.Success {
		writeError(w, http.StatusUnprocessableEntity, resp.Error)
		return
	}
	writeJSON(w, http.StatusOK, resp.Result)
}

func parseStation(b stationBody) (geom.GroundStation, error) {
	for _, v := range []float64{b.LatDeg, b.LonDeg, b.HeightM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geom.GroundStation{}, fmt.Errorf("station coordinates must be finite")
		}
	}
	if b.LatDeg < -90 || b.LatDeg > 90 {
		return geom.GroundStation{}, fmt.Errorf("station latitude out of range: %v", b.LatDeg)
	}
	if b.LonDeg < -180 || b.LonDeg > 180 {
		return geom.GroundStation{}, fmt.Errorf("station longitude out of range: %v", b.LonDeg)
	}
	return geom.NewGroundStation(b.LatDeg, b.LonDeg, b.HeightM), nil
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("start and end are required")
	}
	if !end.After(start) {
		return fmt.Errorf("end must be after start")
	}
	if end.Sub(start) > maxWindow {
		return fmt.Errorf("window exceeds maximum of %v", maxWindow)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
