// Package report assembles the observer-facing ISS visibility report from
// the geometry core, the visibility rules, and the upstream data.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/iss/issgo/internal/geo"
	"github.com/iss/issgo/internal/sunapi"
	"github.com/iss/issgo/internal/track"
	"github.com/iss/issgo/internal/visibility"
)

// Observer is the ground location the report is computed for.
type Observer struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Report is a complete visibility assessment at one instant.
type Report struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	Observer     Observer           `json:"observer"`
	ISS          track.Position     `json:"iss"`
	DistanceKm   float64            `json:"distance_km"`
	AzimuthDeg   float64            `json:"azimuth_deg"`
	Cardinal     geo.Cardinal       `json:"cardinal"`
	ElevationDeg float64            `json:"elevation_deg"`
	Sunrise      string             `json:"sunrise"`
	Sunset       string             `json:"sunset"`
	Night        bool               `json:"night"`
	Verdict      visibility.Verdict `json:"verdict"`
}

// Build derives the full report. Coordinate validation happens inside the
// geometry core; an out-of-range observer or satellite position surfaces as
// geo.ErrOutOfRange.
func Build(now time.Time, obs Observer, iss track.Position, sun sunapi.Times, issAltKm float64) (Report, error) {
	angle, err := geo.AngleBetween(obs.Latitude, obs.Longitude, iss.Latitude, iss.Longitude)
	if err != nil {
		return Report{}, fmt.Errorf("angular separation: %w", err)
	}

	distance, err := geo.DistanceBetween(obs.Latitude, obs.Longitude, iss.Latitude, iss.Longitude)
	if err != nil {
		return Report{}, fmt.Errorf("distance: %w", err)
	}

	azimuth, err := geo.BearingBetween(obs.Latitude, obs.Longitude, iss.Latitude, iss.Longitude)
	if err != nil {
		return Report{}, fmt.Errorf("azimuth: %w", err)
	}

	cardinal, err := geo.CardinalFromAngle(azimuth)
	if err != nil {
		return Report{}, fmt.Errorf("cardinal: %w", err)
	}

	elevation := visibility.Elevation(angle, issAltKm)
	night := visibility.IsNight(now, sun.SunriseAt, sun.SunsetAt)

	return Report{
		GeneratedAt:  now.UTC(),
		Observer:     obs,
		ISS:          iss,
		DistanceKm:   distance,
		AzimuthDeg:   azimuth,
		Cardinal:     cardinal,
		ElevationDeg: elevation,
		Sunrise:      sun.Sunrise,
		Sunset:       sun.Sunset,
		Night:        night,
		Verdict:      visibility.Assess(elevation, night),
	}, nil
}

// Render formats the report for the console.
func (r Report) Render() string {
	var b strings.Builder

	daylight := "Daytime"
	if r.Night {
		daylight = "Nighttime"
	}

	fmt.Fprintf(&b, "UTC TIME: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "UTC SUNRISE: %s\n", r.Sunrise)
	fmt.Fprintf(&b, "UTC SUNSET: %s\n", r.Sunset)
	fmt.Fprintf(&b, "Is %s\n", daylight)
	fmt.Fprintf(&b, "MY LOCATION: Latitude %.2f, Longitude %.2f\n", r.Observer.Latitude, r.Observer.Longitude)
	fmt.Fprintf(&b, "ISS LOCATION: Latitude %.2f, Longitude %.2f\n", r.ISS.Latitude, r.ISS.Longitude)
	fmt.Fprintf(&b, "DISTANCE TO ISS: %.2f Km\n", r.DistanceKm)
	fmt.Fprintf(&b, "AZIMUTH: %.2f degrees\n", r.AzimuthDeg)
	fmt.Fprintf(&b, "ELEVATION ANGLE: %.2f degrees\n", r.ElevationDeg)

	switch r.Verdict {
	case visibility.Daylight:
		b.WriteString("Sorry! You cannot see the ISS because it is daytime\n")
	case visibility.BelowHorizon:
		b.WriteString("Sorry! You cannot see the ISS because it is below the horizon\n")
	case visibility.Visible:
		b.WriteString("Hurry! The ISS is above the horizon and you can see it!\n")
		fmt.Fprintf(&b, "The azimuth is %.2f degrees. Look to the (%s)\n", r.AzimuthDeg, r.Cardinal)
		fmt.Fprintf(&b, "The elevation angle is %.2f degrees\n", r.ElevationDeg)
	}

	return b.String()
}
