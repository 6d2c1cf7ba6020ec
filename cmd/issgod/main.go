// Command issgod serves ISS position, visibility reports, and pass
// predictions over HTTP.
package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iss/issgo/internal/api"
	"github.com/iss/issgo/internal/auth"
	"github.com/iss/issgo/internal/metrics"
	"github.com/iss/issgo/internal/opennotify"
	"github.com/iss/issgo/internal/passes"
	"github.com/iss/issgo/internal/propagation"
	"github.com/iss/issgo/internal/sunapi"
	"github.com/iss/issgo/internal/tle"
	"github.com/iss/issgo/internal/track"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	apiCfg := loadAPIConfig(logger)
	tleCfg := loadTLEConfig(logger)

	store := tle.NewStore()
	diskCache := tle.NewDiskCache(tleCfg.CacheDir, tleCfg.MaxFiles)

	// Attempt to load cached TLE data on startup.
	if data, ts, err := diskCache.LoadLatest(); err != nil {
		logger.Info("no TLE cache found, starting without TLE data", "error", err)
	} else if entry, err := tle.ParseEntry(bytes.NewReader(data), tle.ISSCatalogNumber); err != nil {
		logger.Warn("failed to parse cached TLE data", "error", err)
	} else {
		store.Set(&tle.Snapshot{Entry: entry, Source: "cache", FetchedAt: ts})
		logger.Info("loaded TLE data from cache", "epoch", entry.Epoch.Format(time.RFC3339), "cached_at", ts.Format(time.RFC3339))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if tleCfg.EnableFetch && snapshotStale(store.Get(), tleCfg.MaxAge) {
		refreshTLE(ctx, logger, tleCfg, store, diskCache)
	}

	var passSrc *propagation.Source
	if snap := store.Get(); snap != nil {
		passSrc, err = propagation.NewSource(snap.Entry)
		if err != nil {
			logger.Warn("initializing SGP4 failed, pass prediction disabled", "error", err)
		}
	}

	live := track.NewLiveProvider(opennotify.NewClient(os.Getenv("ISSGO_OPENNOTIFY_URL")))
	var sgp4 track.Provider
	if passSrc != nil {
		sgp4 = track.NewSGP4Provider(passSrc)
	}
	positions := track.NewCached(track.NewFallback(live, sgp4), apiCfg.positionTTL)

	sun := sunapi.NewClient(os.Getenv("ISSGO_SUN_URL"))

	srv := api.NewServer(apiCfg.server, logger, authCfg, positions, sun, passSrc)

	// Background goroutine to update the TLE age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetTLEAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Initial position probe; readiness flips on the first success either
	// here or on a served request.
	go func() {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		pos, err := positions.Position(probeCtx)
		if err != nil {
			logger.Warn("initial position probe failed", "error", err)
			return
		}
		metrics.SetPositionAge(time.Since(pos.At).Seconds())
		srv.MarkReady()
		logger.Info("initial position acquired", "source", pos.Source)
	}()

	go func() {
		logger.Info("starting server", "addr", apiCfg.server.Addr, "auth_enabled", authCfg.Enabled, "tle_fetch_enabled", tleCfg.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// snapshotStale reports whether snap is missing or older than maxAge.
func snapshotStale(snap *tle.Snapshot, maxAge time.Duration) bool {
	return snap == nil || time.Since(snap.FetchedAt) > maxAge
}

// refreshTLE fetches a fresh element set, caches it, and installs it in the
// store. Failures are logged; the cached snapshot, if any, stays in effect.
func refreshTLE(ctx context.Context, logger *slog.Logger, cfg tleConfig, store *tle.Store, diskCache *tle.DiskCache) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fetcher := tle.NewFetcher(cfg.SourceURL, logger)
	data, err := fetcher.Fetch(fetchCtx)
	if err != nil {
		logger.Warn("TLE fetch failed", "error", err, "source", fetcher.SourceURL())
		return
	}

	entry, err := tle.ParseEntry(bytes.NewReader(data), tle.ISSCatalogNumber)
	if err != nil {
		logger.Warn("parsing fetched TLE data failed", "error", err)
		return
	}

	now := time.Now()
	if err := diskCache.Write(data, now); err != nil {
		logger.Warn("caching TLE data failed", "error", err)
	}

	store.Set(&tle.Snapshot{Entry: entry, Source: fetcher.SourceURL(), FetchedAt: now})
	metrics.SetTLEAge(0)
	logger.Info("fetched TLE data", "epoch", entry.Epoch.Format(time.RFC3339))
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	if v := os.Getenv("ISSGO_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.New("ISSGO_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ISSGO_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ISSGO_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

type apiConfig struct {
	server      api.Config
	positionTTL time.Duration
}

func loadAPIConfig(logger *slog.Logger) apiConfig {
	cfg := apiConfig{
		server: api.Config{
			Addr:          ":8080",
			ISSAltitudeKm: 408,
			SunCacheTTL:   time.Hour,
			Pass:          passes.Config{},
		},
		positionTTL: 5 * time.Second,
	}

	if v := os.Getenv("ISSGO_HTTP_ADDR"); v != "" {
		cfg.server.Addr = v
	}

	if v := os.Getenv("ISSGO_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSGO_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.server.TrustProxy = trust
		}
	}

	if v := os.Getenv("ISSGO_ISS_ALTITUDE_KM"); v != "" {
		alt, err := strconv.ParseFloat(v, 64)
		if err != nil || alt <= 0 {
			logger.Warn("invalid ISSGO_ISS_ALTITUDE_KM value, using default", "value", v, "default", 408)
		} else {
			cfg.server.ISSAltitudeKm = alt
		}
	}

	if v := os.Getenv("ISSGO_SUN_CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSGO_SUN_CACHE_TTL value, using default", "value", v, "default", 3600)
		} else {
			cfg.server.SunCacheTTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ISSGO_POSITION_CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSGO_POSITION_CACHE_TTL value, using default", "value", v, "default", 5)
		} else {
			cfg.positionTTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ISSGO_PASS_MIN_ELEVATION"); v != "" {
		deg, err := strconv.ParseFloat(v, 64)
		if err != nil || deg < 0 || deg >= 90 {
			logger.Warn("invalid ISSGO_PASS_MIN_ELEVATION value, using default", "value", v, "default", 10)
		} else {
			cfg.server.Pass.MinElevationDeg = deg
		}
	}

	if v := os.Getenv("ISSGO_PASS_HORIZON"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSGO_PASS_HORIZON value, using default", "value", v, "default", 86400)
		} else {
			cfg.server.Pass.Horizon = time.Duration(n) * time.Second
		}
	}

	logger.Info("api config",
		"addr", cfg.server.Addr,
		"trust_proxy", cfg.server.TrustProxy,
		"iss_altitude_km", cfg.server.ISSAltitudeKm,
		"sun_cache_ttl_seconds", cfg.server.SunCacheTTL.Seconds(),
		"position_cache_ttl_seconds", cfg.positionTTL.Seconds(),
	)

	return cfg
}

type tleConfig struct {
	EnableFetch bool
	SourceURL   string
	CacheDir    string
	MaxFiles    int
	MaxAge      time.Duration
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		EnableFetch: true,
		CacheDir:    "/tmp/issgo/tle",
		MaxFiles:    3,
		MaxAge:      24 * time.Hour,
	}

	if v := os.Getenv("ISSGO_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSGO_ENABLE_TLE_FETCH value, defaulting to false", "value", v)
			cfg.EnableFetch = false
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("ISSGO_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("ISSGO_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("ISSGO_TLE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSGO_TLE_MAX_FILES value, using default", "value", v, "default", 3)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("ISSGO_TLE_MAX_AGE"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 1 {
			logger.Warn("invalid ISSGO_TLE_MAX_AGE value, defaulting to 86400", "value", v)
		} else {
			cfg.MaxAge = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("TLE config",
		"fetch_enabled", cfg.EnableFetch,
		"source_url", cfg.SourceURL,
		"cache_dir", cfg.CacheDir,
	)

	return cfg
}
