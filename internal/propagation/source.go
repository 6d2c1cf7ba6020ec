// Package propagation derives the tracked satellite's sub-satellite point
// from its two-line element set via SGP4. It is the fallback position source
// when the live position service is unreachable, and the forward model for
// pass prediction.
//
// SGP4 library: github.com/joshuaferrara/go-satellite (pure Go, explicit
// TEME output). Propagate takes Satellite by value, so SGP4
// error codes are invisible to the caller; failures are detected by checking
// the output for NaN/Inf and unreasonable magnitudes instead.
package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/iss/issgo/internal/geo"
	"github.com/iss/issgo/internal/tle"
)

// Point is a propagated sub-satellite position on the spherical Earth model.
type Point struct {
	Latitude   float64 // degrees, [-90, 90]
	Longitude  float64 // degrees, [-180, 180]
	AltitudeKm float64 // above the mean-radius sphere
	At         time.Time
}

// Source propagates a single satellite's orbit.
type Source struct {
	sat     satellite.Satellite
	noradID int
	epoch   time.Time
}

// NewSource creates a Source from a TLE entry. The element lines are
// pre-validated because go-satellite calls log.Fatal on malformed input,
// which would kill the process.
func NewSource(entry tle.Entry) (*Source, error) {
	if err := validateLines(entry.Line1, entry.Line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", entry.NORADID, err)
	}

	sat := satellite.TLEToSat(entry.Line1, entry.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", entry.NORADID, sat.Error, sat.ErrorStr)
	}
	return &Source{sat: sat, noradID: entry.NORADID, epoch: entry.Epoch}, nil
}

// Epoch returns the element set epoch.
func (s *Source) Epoch() time.Time {
	return s.epoch
}

// SubPoint propagates to t and reduces the TEME position to a geodetic
// sub-satellite point: rotate by GMST into the Earth-fixed frame, then take
// spherical latitude/longitude and altitude above the mean-radius sphere.
func (s *Source) SubPoint(t time.Time) (Point, error) {
	t = t.UTC()
	pos, _ := satellite.Propagate(s.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return Point{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", s.noradID)
	}

	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if r < 6200.0 || r > 50000.0 {
		return Point{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", s.noradID, r)
	}

	// TEME → Earth-fixed: rotate about the Z axis by GMST.
	g := gmst(t)
	cosG := math.Cos(g)
	sinG := math.Sin(g)
	x := pos.X*cosG + pos.Y*sinG
	y := -pos.X*sinG + pos.Y*cosG
	z := pos.Z

	return Point{
		Latitude:   math.Asin(z/r) * 180.0 / math.Pi,
		Longitude:  math.Atan2(y, x) * 180.0 / math.Pi,
		AltitudeKm: r - geo.EarthRadiusKm,
		At:         t,
	}, nil
}

// validateLines performs basic format checks on TLE element lines.
func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got %q", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got %q", line2[0])
	}
	return nil
}
