// Command diag runs a pass search from the command line: load a TLE file,
// search a window over a ground station, print the resulting timeline.
// Useful for validating element sets and comparing against external
// prediction tools.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/skywatch/internal/geom"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/tle"
)

func main() {
	var (
		tleFile = flag.String("tle", "", "path to a 3-line TLE file")
		lat     = flag.Float64("lat", 39.7392, "station latitude (degrees)")
		lon     = flag.Float64("lon", -104.9903, "station longitude (degrees)")
		height  = flag.Float64("height", 1609, "station height (meters)")
		hours   = flag.Float64("hours", 72, "search window length")
		minEl   = flag.Float64("min-el", 5, "minimum elevation (degrees)")
		swathKm = flag.Float64("swath", 0, "swath width in km (0 = elevation search)")
		stdMag  = flag.Float64("std-mag", -1.8, "standard magnitude for brightness estimates")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *tleFile == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -tle <file> [flags]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*tleFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR reading TLE file:", err)
		os.Exit(1)
	}

	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR parsing TLE:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no valid TLE entries in file")
		os.Exit(1)
	}

	store := tle.NewStore()
	store.Set(datasetFrom(*tleFile, entries))

	ds := store.Get()
	fmt.Printf("Loaded %d TLE entries (epochs %v .. %v)\n", len(ds.Satellites),
		ds.EpochRange.Min.Format(time.RFC3339), ds.EpochRange.Max.Format(time.RFC3339))

	station := geom.NewGroundStation(*lat, *lon, *height)
	engine := passes.NewEngine(logger)

	start := time.Now().UTC()
	end := start.Add(time.Duration(*hours * float64(time.Hour)))
	fmt.Printf("Window: %v .. %v\n", start.Format(time.RFC3339), end.Format(time.RFC3339))

	total := 0
	for _, entry := range ds.Satellites {
		var (
			found []passes.Pass
			stats *passes.SearchStats
			err   error
		)

		if *swathKm > 0 {
			found, stats, err = engine.FindSwathPasses(context.Background(), entry, station, passes.SwathConfig{
				Start:        start,
				End:          end,
				SwathKm:      *swathKm,
				CollectStats: true,
			})
		} else {
			found, stats, err = engine.FindElevationPasses(context.Background(), entry, station, passes.Config{
				Start:             start,
				End:               end,
				MinElevationDeg:   *minEl,
				StandardMagnitude: stdMag,
				CollectStats:      true,
			})
		}

		if err != nil {
			fmt.Printf("  %s (NORAD %d): ERROR %v\n", entry.Name, entry.NORADID, err)
			continue
		}

		fmt.Printf("  %s (NORAD %d): %d passes\n", entry.Name, entry.NORADID, len(found))
		total += len(found)

		for j, p := range found {
			fmt.Printf("    pass %d: start=%v apex=%v maxEl=%.1f° dur=%.0fs",
				j, p.Start.Format(time.RFC3339), p.ApexTime.Format(time.RFC3339),
				p.MaxElevation, p.DurationSeconds)
			if p.MinGroundDistKm != nil {
				fmt.Printf(" minDist=%.0fkm", *p.MinGroundDistKm)
			}
			if p.ApexMagnitude != nil {
				fmt.Printf(" mag=%.1f", *p.ApexMagnitude)
			}
			fmt.Printf(" transitions=%d\n", len(p.EclipseTransitions))
		}

		if stats != nil {
			fmt.Printf("    stats: total=%.1fms propagation=%.1fms (%d calls) iterations=%d\n",
				stats.TotalMs, stats.PropagationMs, stats.PropagationCalls, stats.Iterations)
		}
	}
	fmt.Printf("\nTotal passes found: %d\n", total)
}

func datasetFrom(source string, entries []tle.TLEEntry) *tle.TLEDataset {
	ds := &tle.TLEDataset{
		Source:     source,
		FetchedAt:  time.Now().UTC(),
		Satellites: entries,
	}
	for i, e := range entries {
		if i == 0 || e.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = e.Epoch
		}
		if i == 0 || e.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = e.Epoch
		}
	}
	return ds
}
