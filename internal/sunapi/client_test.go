package sunapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimes(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"lat": r.URL.Query().Get("lat"),
			"lng": r.URL.Query().Get("lng"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": {"sunrise": "5:26:10 AM", "sunset": "6:08:35 PM"}, "status": "OK"}`))
	}))
	defer server.Close()

	now := time.Date(2024, 4, 9, 21, 0, 0, 0, time.UTC)
	times, err := NewClient(server.URL).Times(context.Background(), 38.5118, -0.2317, now)
	require.NoError(t, err)

	assert.Equal(t, "38.5118", gotQuery["lat"])
	assert.Equal(t, "-0.2317", gotQuery["lng"])
	assert.Equal(t, "5:26:10 AM", times.Sunrise)
	assert.Equal(t, "6:08:35 PM", times.Sunset)
	assert.Equal(t, time.Date(2024, 4, 9, 5, 26, 10, 0, time.UTC), times.SunriseAt)
	assert.Equal(t, time.Date(2024, 4, 9, 18, 8, 35, 0, time.UTC), times.SunsetAt)
}

func TestTimesRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {}, "status": "INVALID_REQUEST"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Times(context.Background(), 0, 0, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestTimesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Times(context.Background(), 0, 0, time.Now())
	require.Error(t, err)
}

func TestTimesUnparseableClock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"sunrise": "whenever", "sunset": "6:08:35 PM"}, "status": "OK"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Times(context.Background(), 0, 0, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sunrise")
}
