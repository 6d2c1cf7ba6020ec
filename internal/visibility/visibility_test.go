package visibility

import (
	"math"
	"testing"
	"time"
)

func TestElevation(t *testing.T) {
	const issAltKm = 408

	cases := []struct {
		name  string
		alpha float64
		want  float64
	}{
		{"overhead", 0, 90},
		{"ten degrees of arc away", 10 * math.Pi / 180, 14.53},
	}
	for _, tc := range cases {
		got := Elevation(tc.alpha, issAltKm)
		if math.Abs(got-tc.want) > 0.05 {
			t.Errorf("%s: Elevation(%v, %v) = %v°, want %v°", tc.name, tc.alpha, issAltKm, got, tc.want)
		}
	}
}

func TestElevationDropsBelowHorizon(t *testing.T) {
	// At 408 km altitude the horizon sits around 20° of arc; far beyond
	// that the elevation must be negative.
	if got := Elevation(60*math.Pi/180, 408); got >= 0 {
		t.Errorf("Elevation at 60° separation = %v°, want negative", got)
	}
}

func TestParseClock(t *testing.T) {
	now := time.Date(2024, 4, 9, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"12:00:00 AM", time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC)},
		{"12:00:00 PM", time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)},
		{"6:00:00 AM", time.Date(2024, 4, 9, 6, 0, 0, 0, time.UTC)},
		{"06:00:00 PM", time.Date(2024, 4, 9, 18, 0, 0, 0, time.UTC)},
		{" 7:27:02 AM ", time.Date(2024, 4, 9, 7, 27, 2, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in, now)
		if err != nil {
			t.Fatalf("ParseClock(%q): unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseClockInvalid(t *testing.T) {
	now := time.Now().UTC()
	for _, in := range []string{"", "25:00:00 AM", "noon", "12:00 PM"} {
		if _, err := ParseClock(in, now); err == nil {
			t.Errorf("ParseClock(%q): expected error, got nil", in)
		}
	}
}

func TestIsNight(t *testing.T) {
	sunrise := time.Date(2024, 4, 9, 5, 26, 10, 0, time.UTC)
	sunset := time.Date(2024, 4, 9, 18, 8, 35, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before sunrise", sunrise.Add(-time.Hour), true},
		{"midday", sunrise.Add(6 * time.Hour), false},
		{"after sunset", sunset.Add(time.Minute), true},
		{"exactly sunrise", sunrise, false},
	}
	for _, tc := range cases {
		if got := IsNight(tc.now, sunrise, sunset); got != tc.want {
			t.Errorf("%s: IsNight = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAssess(t *testing.T) {
	cases := []struct {
		name      string
		elevation float64
		night     bool
		want      Verdict
	}{
		{"high and dark", 45, true, Visible},
		{"high but daytime", 45, false, Daylight},
		{"below horizon at night", -10, true, BelowHorizon},
		{"on the horizon at night", 0, true, BelowHorizon},
		{"below horizon in daytime", -10, false, Daylight},
	}
	for _, tc := range cases {
		if got := Assess(tc.elevation, tc.night); got != tc.want {
			t.Errorf("%s: Assess(%v, %v) = %q, want %q", tc.name, tc.elevation, tc.night, got, tc.want)
		}
	}
}
