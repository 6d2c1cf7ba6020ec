// Package sunapi retrieves sunrise and sunset times for a location from the
// sunrise-sunset.org service.
package sunapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iss/issgo/internal/visibility"
)

const defaultURL = "https://api.sunrise-sunset.org/json"

const maxBodyBytes = 1 << 20

// Times holds a day's sunrise and sunset for one location. The raw strings
// are kept as served (UTC wall-clock, "h:mm:ss AM/PM") for display; the
// parsed instants are anchored to the request date.
type Times struct {
	Sunrise   string
	Sunset    string
	SunriseAt time.Time
	SunsetAt  time.Time
}

// Client queries the sunrise-sunset.org JSON endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint URL.
// An empty URL selects the public sunrise-sunset.org service.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultURL
	}
	return &Client{
		url: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Times fetches sunrise/sunset for the given location. The clock strings
// are parsed against now's UTC date.
func (c *Client) Times(ctx context.Context, lat, lng float64, now time.Time) (Times, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return Times{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Times{}, fmt.Errorf("fetching sun times: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Times{}, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, c.url)
	}

	var payload struct {
		Status  string `json:"status"`
		Results struct {
			Sunrise string `json:"sunrise"`
			Sunset  string `json:"sunset"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return Times{}, fmt.Errorf("decoding sun times response: %w", err)
	}
	if payload.Status != "OK" {
		return Times{}, fmt.Errorf("sun times request rejected: status=%q", payload.Status)
	}

	sunrise, err := visibility.ParseClock(payload.Results.Sunrise, now)
	if err != nil {
		return Times{}, fmt.Errorf("sunrise: %w", err)
	}
	sunset, err := visibility.ParseClock(payload.Results.Sunset, now)
	if err != nil {
		return Times{}, fmt.Errorf("sunset: %w", err)
	}

	return Times{
		Sunrise:   payload.Results.Sunrise,
		Sunset:    payload.Results.Sunset,
		SunriseAt: sunrise,
		SunsetAt:  sunset,
	}, nil
}
