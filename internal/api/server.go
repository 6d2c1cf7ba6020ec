// Package api exposes the visibility service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/iss/issgo/internal/auth"
	"github.com/iss/issgo/internal/cache"
	"github.com/iss/issgo/internal/geo"
	"github.com/iss/issgo/internal/health"
	"github.com/iss/issgo/internal/httputil"
	"github.com/iss/issgo/internal/metrics"
	"github.com/iss/issgo/internal/passes"
	"github.com/iss/issgo/internal/propagation"
	"github.com/iss/issgo/internal/report"
	"github.com/iss/issgo/internal/sunapi"
	"github.com/iss/issgo/internal/track"
)

// SunProvider yields sunrise/sunset times for a location.
type SunProvider interface {
	Times(ctx context.Context, lat, lng float64, now time.Time) (sunapi.Times, error)
}

// Config holds server configuration.
type Config struct {
	Addr          string
	TrustProxy    bool
	ISSAltitudeKm float64
	SunCacheTTL   time.Duration
	Pass          passes.Config
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        Config

	positions track.Provider
	sun       SunProvider
	sunCache  *cache.TTL[sunapi.Times]
	passSrc   *propagation.Source

	now   func() time.Time
	ready atomic.Bool
}

// NewServer creates a configured HTTP server. passSrc may be nil when no TLE
// data is available; the pass endpoint then reports 503.
func NewServer(cfg Config, logger *slog.Logger, authCfg auth.Config, positions track.Provider, sun SunProvider, passSrc *propagation.Source) *Server {
	if cfg.SunCacheTTL <= 0 {
		cfg.SunCacheTTL = time.Hour
	}
	if cfg.ISSAltitudeKm <= 0 {
		cfg.ISSAltitudeKm = 408
	}

	s := &Server{
		logger:    logger,
		cfg:       cfg,
		positions: positions,
		sun:       sun,
		sunCache:  cache.New[sunapi.Times](cfg.SunCacheTTL),
		passSrc:   passSrc,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(s.ready.Load))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/position", s.handlePosition)
	mux.HandleFunc("GET /api/v1/report", s.handleReport)
	mux.HandleFunc("GET /api/v1/pass", s.handlePass)

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = s.loggingMiddleware(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// MarkReady flips the readiness probe to ready.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.positions.Position(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("position unavailable: %w", err))
		return
	}
	s.ready.Store(true)
	metrics.SetPositionAge(time.Since(pos.At).Seconds())
	s.writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	obs, err := observerFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	now := s.now().UTC()

	pos, err := s.positions.Position(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("position unavailable: %w", err))
		return
	}
	s.ready.Store(true)
	metrics.SetPositionAge(time.Since(pos.At).Seconds())

	sun, err := s.sunTimes(r.Context(), obs, now)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("sun times unavailable: %w", err))
		return
	}

	rep, err := report.Build(now, obs, pos, sun, s.cfg.ISSAltitudeKm)
	if err != nil {
		// Build only fails on out-of-range coordinates; the observer was
		// validated above, so this means the upstream fed us garbage.
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handlePass(w http.ResponseWriter, r *http.Request) {
	if s.passSrc == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("no TLE data available for pass prediction"))
		return
	}

	obs, err := observerFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	pass, err := passes.Next(r.Context(), s.passSrc, obs.Latitude, obs.Longitude, s.now().UTC(), s.cfg.Pass)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("pass prediction failed: %w", err))
		return
	}
	if pass == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"pass": nil})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"pass": pass})
}

// sunTimes serves sun times from the cache when possible. Keyed by location
// and UTC date: the answer only changes when either does.
func (s *Server) sunTimes(ctx context.Context, obs report.Observer, now time.Time) (sunapi.Times, error) {
	key := fmt.Sprintf("%.4f:%.4f:%s", obs.Latitude, obs.Longitude, now.Format("2006-01-02"))
	if times, ok := s.sunCache.Get(key); ok {
		return times, nil
	}

	times, err := s.sun.Times(ctx, obs.Latitude, obs.Longitude, now)
	metrics.ObserveUpstream("sunapi", err)
	if err != nil {
		return sunapi.Times{}, err
	}
	s.sunCache.Set(key, times)
	return times, nil
}

// observerFromQuery parses and validates the lat/lon query parameters.
// Validation is delegated to the geometry core so the API and the library
// agree on what a coordinate is.
func observerFromQuery(r *http.Request) (report.Observer, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return report.Observer{}, fmt.Errorf("invalid lat parameter: %w", err)
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return report.Observer{}, fmt.Errorf("invalid lon parameter: %w", err)
	}
	if _, err := geo.ToVector(lat, lon); err != nil {
		return report.Observer{}, err
	}
	return report.Observer{Latitude: lat, Longitude: lon}, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		duration := time.Since(start)
		level := slog.LevelInfo
		if probePath(r.URL.Path) {
			level = slog.LevelDebug
		}

		s.logger.Log(r.Context(), level, "request",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(sr.statusCode),
			"duration_ms", duration.Milliseconds(),
			"remote_ip", httputil.ClientIP(r, s.cfg.TrustProxy),
		)
	})
}
