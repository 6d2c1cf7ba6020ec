// Package visibility decides whether an orbiting object can be seen from an
// observer's location: elevation above the horizon from angular separation,
// and day/night classification from sunrise/sunset times.
package visibility

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iss/issgo/internal/geo"
)

// clockLayout matches the "h:mm:ss AM/PM" strings served by
// sunrise-sunset.org. The single-digit hour form also accepts zero padding.
const clockLayout = "3:04:05 PM"

// Verdict is the outcome of a visibility assessment.
type Verdict string

const (
	// Visible: the object is above the horizon and the sky is dark.
	Visible Verdict = "visible"
	// Daylight: the sky is too bright regardless of elevation.
	Daylight Verdict = "daylight"
	// BelowHorizon: the sky is dark but the object has not risen.
	BelowHorizon Verdict = "below_horizon"
)

// Elevation returns the elevation angle in degrees at which an observer sees
// an object orbiting at altKm kilometers altitude, given the angular
// separation alpha (radians) between the observer and the object's ground
// point. The slant range comes from the law of cosines over the spherical
// triangle, the horizon-depression angle from the law of sines.
//
// Elevation(0, h) is 90 (directly overhead); the result goes negative once
// the object drops below the observer's horizon.
func Elevation(alpha, altKm float64) float64 {
	r := geo.EarthRadiusKm
	orbit := r + altKm

	slant := math.Sqrt(r*r + orbit*orbit - 2*r*orbit*math.Cos(alpha))
	gamma := math.Asin(math.Sin(alpha) * r / slant)

	return (math.Pi/2 - alpha - gamma) * 180.0 / math.Pi
}

// ParseClock parses a wall-clock string such as "6:08:35 PM" as a UTC
// instant on the same UTC date as now.
func ParseClock(s string, now time.Time) (time.Time, error) {
	clock, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
}

// IsNight reports whether now falls outside the daylight window bounded by
// sunrise and sunset.
func IsNight(now, sunrise, sunset time.Time) bool {
	return now.Before(sunrise) || now.After(sunset)
}

// Assess combines elevation and darkness into a verdict. Daylight dominates:
// even an object high above the horizon is washed out by a bright sky.
func Assess(elevationDeg float64, night bool) Verdict {
	if !night {
		return Daylight
	}
	if elevationDeg <= 0 {
		return BelowHorizon
	}
	return Visible
}
