package tle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const issTLE = "ISS (ZARYA)\n" +
	"1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n" +
	"2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09\n"

const starlinkTLE = "STARLINK-1007\n" +
	"1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995\n" +
	"2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05\n"

func TestParseEntry(t *testing.T) {
	entry, err := ParseEntry(strings.NewReader(issTLE), ISSCatalogNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.NORADID != 25544 {
		t.Errorf("NORADID = %d, want 25544", entry.NORADID)
	}
	if entry.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q, want ISS (ZARYA)", entry.Name)
	}
	// Epoch 24100.5 = day 100.5 of 2024 = April 9, 12:00 UTC.
	want := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	if !entry.Epoch.Equal(want) {
		t.Errorf("Epoch = %v, want %v", entry.Epoch, want)
	}
}

func TestParseEntrySelectsRequestedSatellite(t *testing.T) {
	entry, err := ParseEntry(strings.NewReader(starlinkTLE+issTLE), ISSCatalogNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.NORADID != 25544 {
		t.Errorf("NORADID = %d, want 25544", entry.NORADID)
	}
}

func TestParseEntryMissingSatellite(t *testing.T) {
	if _, err := ParseEntry(strings.NewReader(starlinkTLE), ISSCatalogNumber); err == nil {
		t.Fatal("expected error for absent catalog number, got nil")
	}
}

func TestParseEntryMalformed(t *testing.T) {
	if _, err := ParseEntry(strings.NewReader("garbage\nmore garbage\neven more\n"), ISSCatalogNumber); err == nil {
		t.Fatal("expected error for malformed input, got nil")
	}
}

func TestFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issTLE))
	}))
	defer server.Close()

	data, err := NewFetcher(server.URL, testLogger).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != issTLE {
		t.Errorf("body mismatch: got %d bytes, want %d", len(data), len(issTLE))
	}
}

func TestFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewFetcher(server.URL, testLogger).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestFetcherBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("A", 16*1024)
		for i := 0; i < 8; i++ {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, testLogger).Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("expected body limit error, got: %v", err)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tle")
	cache := NewDiskCache(dir, 3)

	ts := time.Unix(1712674800, 0)
	if err := cache.Write([]byte(issTLE), ts); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, gotTS, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != issTLE {
		t.Error("cache data mismatch")
	}
	if !gotTS.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", gotTS, ts)
	}
}

func TestDiskCachePrunes(t *testing.T) {
	dir := t.TempDir()
	cache := NewDiskCache(dir, 2)

	base := time.Unix(1712674800, 0)
	for i := 0; i < 4; i++ {
		if err := cache.Write([]byte(issTLE), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	files, err := cache.listFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files after pruning, got %d", len(files))
	}

	// Newest snapshot must survive.
	_, ts, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("latest timestamp = %v, want %v", ts, base.Add(3*time.Hour))
	}
}

func TestDiskCacheEmpty(t *testing.T) {
	cache := NewDiskCache(filepath.Join(t.TempDir(), "missing"), 3)
	if _, _, err := cache.LoadLatest(); err == nil {
		t.Fatal("expected error for empty cache, got nil")
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	if store.Get() != nil {
		t.Fatal("new store should be empty")
	}
	if store.AgeSeconds() != -1 {
		t.Errorf("empty store age = %v, want -1", store.AgeSeconds())
	}

	snap := &Snapshot{
		Entry:     Entry{NORADID: 25544},
		Source:    "test",
		FetchedAt: time.Now().Add(-10 * time.Second),
	}
	store.Set(snap)

	if got := store.Get(); got != snap {
		t.Error("Get did not return the stored snapshot")
	}
	if age := store.AgeSeconds(); age < 9 || age > 60 {
		t.Errorf("age = %v, want ~10", age)
	}
}
