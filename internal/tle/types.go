package tle

import "time"

// TLEEntry represents a single satellite's two-line element set.
type TLEEntry struct {
	NORADID    int
	Name       string
	Epoch      time.Time
	MeanMotion float64 // revolutions per day
	Line1      string
	Line2      string
}

// PeriodMinutes returns the orbital period derived from mean motion,
// or 0 when the mean motion is degenerate.
func (e TLEEntry) PeriodMinutes() float64 {
	if e.MeanMotion <= 0 {
		return 0
	}
	return 1440.0 / e.MeanMotion
}

// Key returns a stable identity string for the element text. Two entries
// for the same catalog object with different element text get different keys.
func (e TLEEntry) Key() string {
	return e.Line1 + "\n" + e.Line2
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// TLEDataset represents a complete set of TLE data from a source.
type TLEDataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []TLEEntry
}
