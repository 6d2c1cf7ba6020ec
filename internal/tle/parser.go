package tle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseEntry reads 3-line NORAD TLE format from r and returns the entry for
// the given catalog number. Celestrak's CATNR endpoint serves exactly one
// satellite, but group feeds are accepted too; the first matching entry wins.
func ParseEntry(r io.Reader, noradID int) (Entry, error) {
	lines, err := readLines(r)
	if err != nil {
		return Entry{}, err
	}

	for i := 0; i+2 < len(lines); i++ {
		entry, err := parseTriplet(lines[i], lines[i+1], lines[i+2])
		if err != nil {
			continue
		}
		if entry.NORADID == noradID {
			return entry, nil
		}
	}

	return Entry{}, fmt.Errorf("no TLE entry for NORAD %d in %d lines", noradID, len(lines))
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r\n "); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}
	return lines, nil
}

// parseTriplet interprets three consecutive lines as name + element lines.
func parseTriplet(name, line1, line2 string) (Entry, error) {
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return Entry{}, fmt.Errorf("lines after %q lack TLE prefixes", name)
	}
	if len(line1) < 32 {
		return Entry{}, fmt.Errorf("line1 too short for %q", name)
	}

	// NORAD ID occupies line1 columns 3-7.
	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid NORAD ID in %q: %w", line1[2:7], err)
	}

	// Epoch occupies line1 columns 19-32 as YYDDD.DDDDDDDD.
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid epoch for NORAD %d: %w", noradID, err)
	}

	return Entry{
		NORADID: noradID,
		Name:    strings.TrimSpace(name),
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD format to time.Time.
// Years 00-56 map to the 2000s, 57-99 to the 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// Day of year is 1-based: day 1.0 is midnight, January 1.
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
