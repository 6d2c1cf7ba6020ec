// Package passes predicts the tracked satellite's next visible pass over an
// observer by scanning the propagated ground track for elevation crossings.
package passes

import (
	"context"
	"fmt"
	"time"

	"github.com/iss/issgo/internal/geo"
	"github.com/iss/issgo/internal/propagation"
	"github.com/iss/issgo/internal/visibility"
)

// Config controls the prediction scan.
type Config struct {
	MinElevationDeg float64       // pass threshold (default 10)
	Horizon         time.Duration // how far ahead to search (default 24h)
	CoarseStep      time.Duration // coarse scan step (default 30s)
	FineStep        time.Duration // fine scan step (default 1s)
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.MinElevationDeg == 0 {
		c.MinElevationDeg = 10
	}
	if c.Horizon <= 0 {
		c.Horizon = 24 * time.Hour
	}
	if c.CoarseStep <= 0 {
		c.CoarseStep = 30 * time.Second
	}
	if c.FineStep <= 0 {
		c.FineStep = time.Second
	}
	return c
}

// Pass describes one rise-culminate-set window over the observer.
type Pass struct {
	Rise            time.Time    `json:"rise"`
	Culmination     time.Time    `json:"culmination"`
	Set             time.Time    `json:"set"`
	DurationSeconds float64      `json:"duration_seconds"`
	MaxElevationDeg float64      `json:"max_elevation_deg"`
	RiseAzimuthDeg  float64      `json:"rise_azimuth_deg"`
	SetAzimuthDeg   float64      `json:"set_azimuth_deg"`
	RiseCardinal    geo.Cardinal `json:"rise_cardinal"`
	SetCardinal     geo.Cardinal `json:"set_cardinal"`
}

// sample is one look from the observer toward the satellite.
type sample struct {
	elevationDeg float64
	azimuthDeg   float64
}

// Next finds the first pass after start that reaches cfg.MinElevationDeg.
// Returns nil without error when no pass occurs within the horizon.
func Next(ctx context.Context, src *propagation.Source, obsLat, obsLon float64, start time.Time, cfg Config) (*Pass, error) {
	cfg = cfg.withDefaults()

	// Validate the observer once up front; every sample would hit the
	// same range error otherwise.
	if _, err := geo.ToVector(obsLat, obsLon); err != nil {
		return nil, err
	}

	end := start.Add(cfg.Horizon)

	// Coarse scan until the satellite is above the threshold.
	for t := start; t.Before(end); t = t.Add(cfg.CoarseStep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := lookAt(src, obsLat, obsLon, t)
		if err != nil {
			return nil, err
		}
		if s.elevationDeg >= cfg.MinElevationDeg {
			return refine(ctx, src, obsLat, obsLon, t, start, end, cfg)
		}
	}

	return nil, nil
}

// refine walks back to the rise and forward to the set around a coarse hit.
func refine(ctx context.Context, src *propagation.Source, obsLat, obsLon float64, hit, windowStart, windowEnd time.Time, cfg Config) (*Pass, error) {
	searchStart := hit.Add(-cfg.CoarseStep)
	if searchStart.Before(windowStart) {
		searchStart = windowStart
	}

	var (
		pass      Pass
		foundRise bool
		wasAbove  bool
	)

	for t := searchStart; t.Before(windowEnd); t = t.Add(cfg.FineStep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := lookAt(src, obsLat, obsLon, t)
		if err != nil {
			return nil, err
		}
		above := s.elevationDeg >= cfg.MinElevationDeg

		if above && !foundRise {
			foundRise = true
			pass.Rise = t
			pass.RiseAzimuthDeg = s.azimuthDeg
			pass.Culmination = t
			pass.MaxElevationDeg = s.elevationDeg
		}

		if above && s.elevationDeg > pass.MaxElevationDeg {
			pass.MaxElevationDeg = s.elevationDeg
			pass.Culmination = t
		}

		if !above && wasAbove && foundRise {
			pass.Set = t
			pass.SetAzimuthDeg = s.azimuthDeg
			break
		}

		wasAbove = above
	}

	if !foundRise {
		return nil, nil
	}

	// Still above the threshold at the horizon: close the pass there.
	if pass.Set.IsZero() {
		pass.Set = windowEnd
		s, err := lookAt(src, obsLat, obsLon, windowEnd)
		if err == nil {
			pass.SetAzimuthDeg = s.azimuthDeg
		}
	}

	pass.DurationSeconds = pass.Set.Sub(pass.Rise).Seconds()

	var err error
	if pass.RiseCardinal, err = geo.CardinalFromAngle(pass.RiseAzimuthDeg); err != nil {
		return nil, fmt.Errorf("rise cardinal: %w", err)
	}
	if pass.SetCardinal, err = geo.CardinalFromAngle(pass.SetAzimuthDeg); err != nil {
		return nil, fmt.Errorf("set cardinal: %w", err)
	}

	return &pass, nil
}

// lookAt propagates to t and derives the observer's view of the satellite.
func lookAt(src *propagation.Source, obsLat, obsLon float64, t time.Time) (sample, error) {
	point, err := src.SubPoint(t)
	if err != nil {
		return sample{}, err
	}

	alpha, err := geo.AngleBetween(obsLat, obsLon, point.Latitude, point.Longitude)
	if err != nil {
		return sample{}, err
	}
	azimuth, err := geo.BearingBetween(obsLat, obsLon, point.Latitude, point.Longitude)
	if err != nil {
		return sample{}, err
	}

	return sample{
		elevationDeg: visibility.Elevation(alpha, point.AltitudeKm),
		azimuthDeg:   azimuth,
	}, nil
}
