// Package passes implements the adaptive pass search: locating the time
// windows during which an orbiting object is observable from a ground
// station, annotated with apex geometry and illumination transitions.
//
// The search is implemented once, here, and shared by the synchronous entry
// point and the dispatcher workers. Both paths therefore produce identical
// results for identical inputs.
package passes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/skywatch/internal/eclipse"
	"github.com/star/skywatch/internal/geom"
	"github.com/star/skywatch/internal/metrics"
	"github.com/star/skywatch/internal/propagation"
	"github.com/star/skywatch/internal/sun"
	"github.com/star/skywatch/internal/tle"
)

const (
	// maxPeriodMinutes is the cutoff above which an object is treated as
	// near-geostationary: it produces no discrete passes under this
	// elevation model and is never fed to the adaptive loop.
	maxPeriodMinutes = 600.0

	// epochLeadIn bounds how far before the element epoch the search may
	// begin. Future-dated element sets (not-yet-operational objects) would
	// otherwise propagate through a regime with no valid data.
	epochLeadIn = time.Hour

	// Below-threshold step regimes, selected by how far the object is
	// below the horizon.
	stepCoarse = 180 * time.Second // elevation < -20°
	stepMedium = 60 * time.Second  // -20° ≤ elevation < -5°
	stepFine   = 15 * time.Second  // -5° ≤ elevation < -1°
	stepFinest = 5 * time.Second   // elevation ≥ -1°, catch the crossing

	// stepInPass is the fixed step while a pass is open, to track the
	// apex precisely.
	stepInPass = 5 * time.Second

	// stepBadSample is the skip applied when propagation yields no valid
	// position; the search continues rather than aborting.
	stepBadSample = 60 * time.Second

	// Swath step bands, selected by how far outside the corridor the
	// ground track currently is (km beyond half the swath width).
	swathMarginCoarse = 3000.0
	swathMarginMedium = 1000.0
	swathMarginFine   = 250.0
)

// Engine runs pass searches. It owns its element-set, eclipse, and
// pass-result caches; dispatcher workers each construct their own Engine so
// no state is shared across execution contexts.
type Engine struct {
	elements *propagation.ElementSetCache
	eclipses *eclipse.Cache
	results  *ResultCache
	sunAt    func(time.Time) geom.Vec3
	logger   *slog.Logger
}

// NewEngine creates an Engine with freshly initialized caches.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		elements: propagation.NewElementSetCache(),
		eclipses: eclipse.NewCache(eclipse.DefaultCapacity, eclipse.DefaultBucket),
		results:  NewResultCache(DefaultResultCapacity),
		sunAt:    sun.Position,
		logger:   logger,
	}
}

// Elements exposes the engine's element-set cache, for batch propagation
// helpers that share it.
func (e *Engine) Elements() *propagation.ElementSetCache {
	return e.elements
}

// ClearCaches drops all cached element sets, eclipse classifications, and
// memoized search results.
func (e *Engine) ClearCaches() {
	e.elements.Clear()
	e.eclipses.Clear()
	e.results.Clear()
}

// sample is one propagated and geometry-resolved observation.
type sample struct {
	t     time.Time
	eciKm geom.Vec3
	ecefM geom.Vec3
	look  geom.LookAngles
}

// sampleAt propagates the object to t and resolves look angles from the
// station. ok=false means the sample is absent (propagation failure or
// non-finite geometry) and must be skipped.
func (e *Engine) sampleAt(prop *propagation.SGP4Propagator, station geom.GroundStation, t time.Time, stats *SearchStats) (sample, bool) {
	propStart := time.Now()
	pos, vel, err := prop.PositionECI(t)
	stats.PropagationMs += time.Since(propStart).Seconds() * 1000
	stats.PropagationCalls++
	if err != nil {
		return sample{}, false
	}

	geomStart := time.Now()
	ecef, _ := geom.TEMEToECEF(pos, vel, geom.GMST(t))
	look, ok := geom.LookAnglesTo(station, ecef)
	stats.GeometryMs += time.Since(geomStart).Seconds() * 1000
	if !ok {
		return sample{}, false
	}

	return sample{t: t, eciKm: pos, ecefM: ecef, look: look}, true
}

// belowThresholdStep selects the forward step while searching below the
// visibility threshold, from the current elevation in degrees.
func belowThresholdStep(elevationDeg float64) time.Duration {
	switch {
	case elevationDeg < -20:
		return stepCoarse
	case elevationDeg < -5:
		return stepMedium
	case elevationDeg < -1:
		return stepFine
	default:
		return stepFinest
	}
}

// FindElevationPasses locates every interval within [cfg.Start, cfg.End)
// where the object's elevation from the station strictly exceeds
// cfg.MinElevationDeg, up to cfg.MaxPasses. Objects with orbital periods
// above the geostationary cutoff yield an empty list without searching.
//
// The returned stats pointer is nil unless cfg.CollectStats is set or the
// result was served from cache (cached results carry no timing).
func (e *Engine) FindElevationPasses(ctx context.Context, entry tle.TLEEntry, station geom.GroundStation, cfg Config) ([]Pass, *SearchStats, error) {
	started := time.Now()

	key := elevationKey(entry, station, cfg)
	if cached, ok := e.results.Get(key); ok {
		return cached, nil, nil
	}

	stats := &SearchStats{}

	period := entry.PeriodMinutes()
	if period <= 0 || period > maxPeriodMinutes {
		e.logger.Debug("long-period object, no discrete passes",
			"norad_id", entry.NORADID, "period_minutes", period)
		e.results.Put(key, []Pass{})
		return []Pass{}, finishStats(cfg.CollectStats, stats, started, 0), nil
	}

	prop, err := e.elements.Get(entry)
	if err != nil {
		return nil, nil, fmt.Errorf("element set init: %w", err)
	}

	scanner := &eclipse.Scanner{
		NORADID:      entry.NORADID,
		Sat:          prop,
		Sun:          e.sunAt,
		BodyRadiusKm: geom.EarthRadiusKm,
		Cache:        e.eclipses,
	}

	start := cfg.Start
	if earliest := entry.Epoch.Add(-epochLeadIn); start.Before(earliest) {
		start = earliest
	}

	halfPeriod := time.Duration(period * float64(time.Minute) / 2)

	passes := []Pass{}
	var cur *passBuilder
	var prevEl float64
	havePrev := false
	cancelled := false

	for t := start; t.Before(cfg.End); {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		s, ok := e.sampleAt(prop, station, t, stats)
		stats.Iterations++
		if !ok {
			t = t.Add(stepBadSample)
			havePrev = false
			continue
		}

		// Strictly greater than: a sample exactly at the threshold does
		// not open or extend a pass.
		above := s.look.ElevationDeg > cfg.MinElevationDeg

		if cur == nil {
			if above {
				cur = newPassBuilder(s)
				t = t.Add(stepInPass)
				havePrev = false
				continue
			}

			if havePrev && s.look.ElevationDeg < prevEl {
				// Moving away from visibility: skip half an orbit.
				t = t.Add(halfPeriod)
				havePrev = false
				continue
			}

			prevEl = s.look.ElevationDeg
			havePrev = true
			t = t.Add(belowThresholdStep(s.look.ElevationDeg))
			continue
		}

		if above {
			cur.observe(s)
			t = t.Add(stepInPass)
			continue
		}

		// Dropped back below threshold: finalize and emit.
		p, valid := cur.close(s.t, s.look.AzimuthDeg)
		cur = nil
		if valid {
			e.annotate(&p, scanner, station, cfg.TransitionStep, cfg.StandardMagnitude, stats)
			passes = append(passes, p)
			if cfg.MaxPasses > 0 && len(passes) >= cfg.MaxPasses {
				break
			}
		}

		// Skip the tail of this orbit before resuming the search.
		t = t.Add(halfPeriod)
		havePrev = false
	}

	// Window ended with the pass still open: close it at the last sample.
	if cur != nil {
		if p, valid := cur.closeAtLast(); valid {
			e.annotate(&p, scanner, station, cfg.TransitionStep, cfg.StandardMagnitude, stats)
			passes = append(passes, p)
		}
	}

	// A cancelled search holds a truncated result; memoizing it would serve
	// the partial list to identical queries forever (the cache has no
	// invalidation). Only completed searches are cached.
	if !cancelled {
		e.results.Put(key, passes)
	}
	metrics.ObservePassSearch("elevation", time.Since(started))
	metrics.AddPassesFound(len(passes))
	metrics.AddPropagationCalls(stats.PropagationCalls)

	return passes, finishStats(cfg.CollectStats, stats, started, len(passes)), nil
}

// FindSwathPasses locates every interval where the sub-satellite point is
// strictly within half of cfg.SwathKm of the station by great-circle
// distance. Same state-machine shape as the elevation search, keyed off
// distance trend, with the apex replaced by the minimum ground distance.
func (e *Engine) FindSwathPasses(ctx context.Context, entry tle.TLEEntry, station geom.GroundStation, cfg SwathConfig) ([]Pass, *SearchStats, error) {
	started := time.Now()

	key := swathKey(entry, station, cfg)
	if cached, ok := e.results.Get(key); ok {
		return cached, nil, nil
	}

	stats := &SearchStats{}

	period := entry.PeriodMinutes()
	if period <= 0 || period > maxPeriodMinutes {
		e.logger.Debug("long-period object, no discrete passes",
			"norad_id", entry.NORADID, "period_minutes", period)
		e.results.Put(key, []Pass{})
		return []Pass{}, finishStats(cfg.CollectStats, stats, started, 0), nil
	}

	prop, err := e.elements.Get(entry)
	if err != nil {
		return nil, nil, fmt.Errorf("element set init: %w", err)
	}

	scanner := &eclipse.Scanner{
		NORADID:      entry.NORADID,
		Sat:          prop,
		Sun:          e.sunAt,
		BodyRadiusKm: geom.EarthRadiusKm,
		Cache:        e.eclipses,
	}

	start := cfg.Start
	if earliest := entry.Epoch.Add(-epochLeadIn); start.Before(earliest) {
		start = earliest
	}

	halfPeriod := time.Duration(period * float64(time.Minute) / 2)
	halfSwath := cfg.SwathKm / 2

	passes := []Pass{}
	var cur *swathBuilder
	var prevDist float64
	havePrev := false
	cancelled := false

	for t := start; t.Before(cfg.End); {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		s, distKm, ok := e.sampleGround(prop, station, t, stats)
		stats.Iterations++
		if !ok {
			t = t.Add(stepBadSample)
			havePrev = false
			continue
		}

		inside := distKm < halfSwath

		if cur == nil {
			if inside {
				cur = newSwathBuilder(s, distKm)
				t = t.Add(stepInPass)
				havePrev = false
				continue
			}

			if havePrev && distKm > prevDist {
				// Ground track receding from the corridor.
				t = t.Add(halfPeriod)
				havePrev = false
				continue
			}

			prevDist = distKm
			havePrev = true
			t = t.Add(swathStep(distKm - halfSwath))
			continue
		}

		if inside {
			cur.observe(s, distKm)
			t = t.Add(stepInPass)
			continue
		}

		p, valid := cur.close(s.t, s.look.AzimuthDeg)
		cur = nil
		if valid {
			e.annotate(&p, scanner, station, cfg.TransitionStep, nil, stats)
			passes = append(passes, p)
			if cfg.MaxPasses > 0 && len(passes) >= cfg.MaxPasses {
				break
			}
		}

		t = t.Add(halfPeriod)
		havePrev = false
	}

	if cur != nil {
		if p, valid := cur.closeAtLast(); valid {
			e.annotate(&p, scanner, station, cfg.TransitionStep, nil, stats)
			passes = append(passes, p)
		}
	}

	if !cancelled {
		e.results.Put(key, passes)
	}
	metrics.ObservePassSearch("swath", time.Since(started))
	metrics.AddPassesFound(len(passes))
	metrics.AddPropagationCalls(stats.PropagationCalls)

	return passes, finishStats(cfg.CollectStats, stats, started, len(passes)), nil
}

// sampleGround resolves a sample plus the great-circle distance (km) from
// the sub-satellite point to the station.
func (e *Engine) sampleGround(prop *propagation.SGP4Propagator, station geom.GroundStation, t time.Time, stats *SearchStats) (sample, float64, bool) {
	s, ok := e.sampleAt(prop, station, t, stats)
	if !ok {
		return sample{}, 0, false
	}

	geomStart := time.Now()
	g := geom.ECEFToGeodetic(s.ecefM)
	dist := geom.GroundDistanceKm(g.LatDeg, g.LonDeg, station.LatDeg, station.LonDeg)
	stats.GeometryMs += time.Since(geomStart).Seconds() * 1000

	return s, dist, true
}

// swathStep selects the forward step while outside the swath corridor,
// from the distance margin in km beyond half the swath width.
func swathStep(marginKm float64) time.Duration {
	switch {
	case marginKm > swathMarginCoarse:
		return stepCoarse
	case marginKm > swathMarginMedium:
		return stepMedium
	case marginKm > swathMarginFine:
		return stepFine
	default:
		return stepFinest
	}
}

// annotate fills in the illumination transitions and, when a standard
// magnitude is supplied and the object is sunlit at apex, the apparent
// magnitude at the apex.
func (e *Engine) annotate(p *Pass, scanner *eclipse.Scanner, station geom.GroundStation, transitionStep time.Duration, stdMag *float64, stats *SearchStats) {
	scanStart := time.Now()
	p.EclipseTransitions = scanner.FindTransitions(p.Start, p.End, transitionStep)
	stats.TransitionMs += time.Since(scanStart).Seconds() * 1000

	if stdMag == nil {
		return
	}

	eclipseStart := time.Now()
	inShadow, ok := scanner.InShadowAt(p.ApexTime)
	stats.EclipseMs += time.Since(eclipseStart).Seconds() * 1000
	if !ok || inShadow {
		return
	}

	pos, vel, err := scanner.Sat.PositionECI(p.ApexTime)
	if err != nil {
		return
	}

	gmst := geom.GMST(p.ApexTime)
	satECEF, _ := geom.TEMEToECEF(pos, vel, gmst)
	sunECEF, _ := geom.TEMEToECEF(e.sunAt(p.ApexTime), geom.Vec3{}, gmst)

	beta := PhaseAngle(satECEF, sunECEF, station.ECEF())
	rangeKm := satECEF.Sub(station.ECEF()).Norm() / 1000.0

	m := ApparentMagnitude(*stdMag, rangeKm, beta)
	p.ApexMagnitude = &m
}

// finishStats stamps the totals and returns the stats only when requested.
func finishStats(collect bool, stats *SearchStats, started time.Time, found int) *SearchStats {
	if !collect {
		return nil
	}
	stats.TotalMs = time.Since(started).Seconds() * 1000
	stats.PassesFound = found
	return stats
}

// passBuilder accumulates an open elevation pass.
type passBuilder struct {
	start   time.Time
	azStart float64

	apex   time.Time
	azApex float64
	maxEl  float64

	last   time.Time
	azLast float64
}

func newPassBuilder(s sample) *passBuilder {
	return &passBuilder{
		start:   s.t,
		azStart: s.look.AzimuthDeg,
		apex:    s.t,
		azApex:  s.look.AzimuthDeg,
		maxEl:   s.look.ElevationDeg,
		last:    s.t,
		azLast:  s.look.AzimuthDeg,
	}
}

func (b *passBuilder) observe(s sample) {
	if s.look.ElevationDeg > b.maxEl {
		b.maxEl = s.look.ElevationDeg
		b.apex = s.t
		b.azApex = s.look.AzimuthDeg
	}
	b.last = s.t
	b.azLast = s.look.AzimuthDeg
}

func (b *passBuilder) close(end time.Time, azEnd float64) (Pass, bool) {
	if !end.After(b.start) {
		return Pass{}, false
	}
	return Pass{
		Start:           b.start,
		End:             end,
		ApexTime:        b.apex,
		MaxElevation:    b.maxEl,
		AzimuthStart:    b.azStart,
		AzimuthApex:     b.azApex,
		AzimuthEnd:      azEnd,
		DurationSeconds: end.Sub(b.start).Seconds(),
	}, true
}

func (b *passBuilder) closeAtLast() (Pass, bool) {
	return b.close(b.last, b.azLast)
}

// swathBuilder accumulates an open swath pass; the apex is the minimum
// ground-track distance.
type swathBuilder struct {
	start   time.Time
	azStart float64

	apex    time.Time
	azApex  float64
	apexEl  float64
	minDist float64

	last   time.Time
	azLast float64
}

func newSwathBuilder(s sample, distKm float64) *swathBuilder {
	return &swathBuilder{
		start:   s.t,
		azStart: s.look.AzimuthDeg,
		apex:    s.t,
		azApex:  s.look.AzimuthDeg,
		apexEl:  s.look.ElevationDeg,
		minDist: distKm,
		last:    s.t,
		azLast:  s.look.AzimuthDeg,
	}
}

func (b *swathBuilder) observe(s sample, distKm float64) {
	if distKm < b.minDist {
		b.minDist = distKm
		b.apex = s.t
		b.azApex = s.look.AzimuthDeg
		b.apexEl = s.look.ElevationDeg
	}
	b.last = s.t
	b.azLast = s.look.AzimuthDeg
}

func (b *swathBuilder) close(end time.Time, azEnd float64) (Pass, bool) {
	if !end.After(b.start) {
		return Pass{}, false
	}
	minDist := b.minDist
	return Pass{
		Start:           b.start,
		End:             end,
		ApexTime:        b.apex,
		MaxElevation:    b.apexEl,
		AzimuthStart:    b.azStart,
		AzimuthApex:     b.azApex,
		AzimuthEnd:      azEnd,
		DurationSeconds: end.Sub(b.start).Seconds(),
		MinGroundDistKm: &minDist,
	}, true
}

func (b *swathBuilder) closeAtLast() (Pass, bool) {
	return b.close(b.last, b.azLast)
}
