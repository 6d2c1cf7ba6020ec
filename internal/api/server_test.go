package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iss/issgo/internal/auth"
	"github.com/iss/issgo/internal/passes"
	"github.com/iss/issgo/internal/propagation"
	"github.com/iss/issgo/internal/sunapi"
	"github.com/iss/issgo/internal/tle"
	"github.com/iss/issgo/internal/track"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

type stubPositions struct {
	pos   track.Position
	err   error
	calls int
}

func (s *stubPositions) Position(ctx context.Context) (track.Position, error) {
	s.calls++
	return s.pos, s.err
}

type stubSun struct {
	times sunapi.Times
	err   error
	calls int
}

func (s *stubSun) Times(ctx context.Context, lat, lng float64, now time.Time) (sunapi.Times, error) {
	s.calls++
	return s.times, s.err
}

func testSunTimes() sunapi.Times {
	return sunapi.Times{
		Sunrise:   "5:26:10 AM",
		Sunset:    "6:08:35 PM",
		SunriseAt: time.Now().UTC().Add(-18 * time.Hour),
		SunsetAt:  time.Now().UTC().Add(-6 * time.Hour),
	}
}

func newTestServer(positions track.Provider, sun SunProvider, authCfg auth.Config, passSrc *propagation.Source) *Server {
	cfg := Config{
		Addr: ":0",
		Pass: passes.Config{
			MinElevationDeg: -90,
			Horizon:         5 * time.Minute,
			CoarseStep:      30 * time.Second,
			FineStep:        10 * time.Second,
		},
	}
	return NewServer(cfg, testLogger, authCfg, positions, sun, passSrc)
}

func get(t *testing.T, s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPositionEndpoint(t *testing.T) {
	positions := &stubPositions{pos: track.Position{Latitude: 38.5, Longitude: -0.23, At: time.Now(), Source: "opennotify"}}
	s := newTestServer(positions, &stubSun{times: testSunTimes()}, auth.Config{}, nil)

	rec := get(t, s, "/api/v1/position", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var pos track.Position
	if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if pos.Source != "opennotify" {
		t.Errorf("source = %q, want opennotify", pos.Source)
	}
}

func TestPositionEndpointUpstreamDown(t *testing.T) {
	positions := &stubPositions{err: errors.New("connection refused")}
	s := newTestServer(positions, &stubSun{}, auth.Config{}, nil)

	if rec := get(t, s, "/api/v1/position", nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	positions := &stubPositions{pos: track.Position{Latitude: 39, Longitude: 0.5, At: time.Now()}}
	s := newTestServer(positions, &stubSun{times: testSunTimes()}, auth.Config{}, nil)

	rec := get(t, s, "/api/v1/report?lat=38.51&lon=-0.23", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var rep struct {
		DistanceKm float64 `json:"distance_km"`
		AzimuthDeg float64 `json:"azimuth_deg"`
		Cardinal   string  `json:"cardinal"`
		Verdict    string  `json:"verdict"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if rep.DistanceKm <= 0 {
		t.Errorf("distance = %v, want > 0", rep.DistanceKm)
	}
	if rep.Cardinal == "" || rep.Verdict == "" {
		t.Errorf("cardinal/verdict missing: %+v", rep)
	}
}

func TestReportEndpointBadQuery(t *testing.T) {
	s := newTestServer(&stubPositions{}, &stubSun{}, auth.Config{}, nil)

	cases := []string{
		"/api/v1/report",                     // missing params
		"/api/v1/report?lat=abc&lon=0",       // non-numeric
		"/api/v1/report?lat=91&lon=0",        // latitude out of range
		"/api/v1/report?lat=0&lon=-180.0001", // longitude out of range
	}
	for _, path := range cases {
		if rec := get(t, s, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestReportEndpointCachesSunTimes(t *testing.T) {
	positions := &stubPositions{pos: track.Position{Latitude: 39, Longitude: 0.5, At: time.Now()}}
	sun := &stubSun{times: testSunTimes()}
	s := newTestServer(positions, sun, auth.Config{}, nil)

	for i := 0; i < 3; i++ {
		if rec := get(t, s, "/api/v1/report?lat=38.51&lon=-0.23", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if sun.calls != 1 {
		t.Errorf("sun provider called %d times, want 1 (cached)", sun.calls)
	}
}

func TestPassEndpointNoTLE(t *testing.T) {
	s := newTestServer(&stubPositions{}, &stubSun{}, auth.Config{}, nil)
	if rec := get(t, s, "/api/v1/pass?lat=45&lon=0", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestPassEndpoint(t *testing.T) {
	src, err := propagation.NewSource(tle.Entry{
		NORADID: tle.ISSCatalogNumber,
		Line1:   "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005",
		Line2:   "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09",
	})
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}

	s := newTestServer(&stubPositions{}, &stubSun{}, auth.Config{}, src)
	// Scan near the element epoch so propagation stays well-conditioned.
	s.now = func() time.Time { return time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC) }

	rec := get(t, s, "/api/v1/pass?lat=45&lon=0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Pass *passes.Pass `json:"pass"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// The test threshold is below the horizon, so a pass always exists.
	if resp.Pass == nil {
		t.Fatal("expected a pass, got null")
	}
}

func TestAuthEnforced(t *testing.T) {
	positions := &stubPositions{pos: track.Position{At: time.Now()}}
	authCfg := auth.Config{Enabled: true, Token: "sekrit"}
	s := newTestServer(positions, &stubSun{times: testSunTimes()}, authCfg, nil)

	if rec := get(t, s, "/api/v1/position", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want 401", rec.Code)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer sekrit")
	if rec := get(t, s, "/api/v1/position", h); rec.Code != http.StatusOK {
		t.Errorf("authenticated: status = %d, want 200", rec.Code)
	}

	// Probes stay public.
	if rec := get(t, s, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz: status = %d, want 200", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	positions := &stubPositions{pos: track.Position{At: time.Now()}}
	s := newTestServer(positions, &stubSun{}, auth.Config{}, nil)

	if rec := get(t, s, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before first fetch: status = %d, want 503", rec.Code)
	}

	if rec := get(t, s, "/api/v1/position", nil); rec.Code != http.StatusOK {
		t.Fatalf("position: status = %d, want 200", rec.Code)
	}

	if rec := get(t, s, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("after first fetch: status = %d, want 200", rec.Code)
	}
}
