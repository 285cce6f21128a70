package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads 3-line NORAD TLE format from r and returns parsed entries.
// Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]TLEEntry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []TLEEntry
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Try to find the next valid triplet.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		entry, err := ParseEntry(name, line1, line2)
		if err != nil {
			logger.Warn("skipping invalid TLE entry", "name", name, "error", err)
			i += 3
			continue
		}

		entries = append(entries, entry)
		i += 3
	}

	return entries, nil
}

// ParseEntry parses a single element set from its name and two lines.
func ParseEntry(name, line1, line2 string) (TLEEntry, error) {
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return TLEEntry{}, fmt.Errorf("lines do not start with '1 '/'2 '")
	}

	// NORAD ID from line1 cols 3-7 (0-indexed: 2..7).
	if len(line1) < 32 {
		return TLEEntry{}, fmt.Errorf("line1 too short: %d chars", len(line1))
	}
	noradStr := strings.TrimSpace(line1[2:7])
	noradID, err := strconv.Atoi(noradStr)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid NORAD ID %q: %w", noradStr, err)
	}

	// Epoch from line1 cols 19-32 (0-indexed: 18..32).
	epochStr := strings.TrimSpace(line1[18:32])
	epoch, err := parseEpoch(epochStr)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid epoch %q: %w", epochStr, err)
	}

	// Mean motion from line2 cols 53-63 (0-indexed: 52..63).
	// The pass search derives the orbital period from it.
	if len(line2) < 63 {
		return TLEEntry{}, fmt.Errorf("line2 too short: %d chars", len(line2))
	}
	mmStr := strings.TrimSpace(line2[52:63])
	meanMotion, err := strconv.ParseFloat(mmStr, 64)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid mean motion %q: %w", mmStr, err)
	}

	return TLEEntry{
		NORADID:    noradID,
		Name:       strings.TrimSpace(name),
		Epoch:      epoch,
		MeanMotion: meanMotion,
		Line1:      line1,
		Line2:      line2,
	}, nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	yearStr := s[:2]
	dayStr := s[2:]

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", yearStr, err)
	}

	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}

	// Start of the year, then add fractional days. dayOfYear is 1-based.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	t = t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour)))

	return t, nil
}
