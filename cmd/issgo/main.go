// Command issgo prints a one-shot ISS visibility report for an observer.
//
// The observer location comes from ISSGO_LAT / ISSGO_LON (or a .env file in
// the working directory). The live Open Notify feed is the primary position
// source; when TLE data is available on disk or fetchable, SGP4 propagation
// serves as fallback.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/iss/issgo/internal/opennotify"
	"github.com/iss/issgo/internal/propagation"
	"github.com/iss/issgo/internal/report"
	"github.com/iss/issgo/internal/sunapi"
	"github.com/iss/issgo/internal/tle"
	"github.com/iss/issgo/internal/track"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	obs, err := loadObserver()
	if err != nil {
		logger.Error("invalid observer configuration", "error", err)
		os.Exit(1)
	}

	issAltKm := 408.0
	if v := os.Getenv("ISSGO_ISS_ALTITUDE_KM"); v != "" {
		alt, err := strconv.ParseFloat(v, 64)
		if err != nil || alt <= 0 {
			logger.Warn("invalid ISSGO_ISS_ALTITUDE_KM value, using default", "value", v, "default", 408)
		} else {
			issAltKm = alt
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	live := track.NewLiveProvider(opennotify.NewClient(os.Getenv("ISSGO_OPENNOTIFY_URL")))
	positions := track.NewFallback(live, sgp4Provider(ctx, logger))

	pos, err := positions.Position(ctx)
	if err != nil {
		logger.Error("position unavailable", "error", err)
		os.Exit(1)
	}
	logger.Info("position acquired", "source", pos.Source, "lat", pos.Latitude, "lon", pos.Longitude)

	now := time.Now().UTC()
	sunClient := sunapi.NewClient(os.Getenv("ISSGO_SUN_URL"))
	sun, err := sunClient.Times(ctx, obs.Latitude, obs.Longitude, now)
	if err != nil {
		logger.Error("sun times unavailable", "error", err)
		os.Exit(1)
	}

	rep, err := report.Build(now, obs, pos, sun, issAltKm)
	if err != nil {
		logger.Error("building report", "error", err)
		os.Exit(1)
	}

	fmt.Print(rep.Render())
}

func loadObserver() (report.Observer, error) {
	latStr := os.Getenv("ISSGO_LAT")
	lonStr := os.Getenv("ISSGO_LON")
	if latStr == "" || lonStr == "" {
		return report.Observer{}, fmt.Errorf("ISSGO_LAT and ISSGO_LON are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return report.Observer{}, fmt.Errorf("ISSGO_LAT must be a number: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return report.Observer{}, fmt.Errorf("ISSGO_LON must be a number: %w", err)
	}

	return report.Observer{Latitude: lat, Longitude: lon}, nil
}

// sgp4Provider builds the fallback position source from cached or freshly
// fetched TLE data. Returns nil when no usable element set can be obtained;
// the fallback chain skips nil providers.
func sgp4Provider(ctx context.Context, logger *slog.Logger) track.Provider {
	cacheDir := os.Getenv("ISSGO_TLE_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "/tmp/issgo/tle"
	}
	diskCache := tle.NewDiskCache(cacheDir, 3)

	var raw []byte
	if data, ts, err := diskCache.LoadLatest(); err == nil && time.Since(ts) < 24*time.Hour {
		raw = data
	} else {
		fetcher := tle.NewFetcher(os.Getenv("ISSGO_TLE_SOURCE_URL"), logger)
		data, err := fetcher.Fetch(ctx)
		if err != nil {
			logger.Warn("TLE fetch failed, no SGP4 fallback", "error", err)
			return nil
		}
		if err := diskCache.Write(data, time.Now()); err != nil {
			logger.Warn("caching TLE data failed", "error", err)
		}
		raw = data
	}

	entry, err := tle.ParseEntry(bytes.NewReader(raw), tle.ISSCatalogNumber)
	if err != nil {
		logger.Warn("parsing TLE data failed, no SGP4 fallback", "error", err)
		return nil
	}

	src, err := propagation.NewSource(entry)
	if err != nil {
		logger.Warn("initializing SGP4 failed, no SGP4 fallback", "error", err)
		return nil
	}

	return track.NewSGP4Provider(src)
}
