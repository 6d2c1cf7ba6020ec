// Package opennotify retrieves the ISS's current sub-satellite point from
// the Open Notify service.
package opennotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultURL = "http://api.open-notify.org/iss-now.json"

// maxBodyBytes caps the response size read from the service; iss-now
// payloads are ~130 bytes, so anything near the cap is garbage.
const maxBodyBytes = 1 << 20

// Position is the ISS sub-satellite point reported by the service.
type Position struct {
	Latitude  float64
	Longitude float64
	At        time.Time
}

// Client queries the Open Notify iss-now endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint URL.
// An empty URL selects the public Open Notify service.
func NewClient(url string) *Client {
	if url == "" {
		url = defaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// URL returns the configured endpoint URL.
func (c *Client) URL() string {
	return c.url
}

// Position fetches the current ISS position. The service reports latitude
// and longitude as strings; both are parsed to degrees here so callers only
// ever see numeric coordinates.
func (c *Client) Position(ctx context.Context) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Position{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("fetching ISS position: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, c.url)
	}

	var payload struct {
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
		ISS       struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"iss_position"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return Position{}, fmt.Errorf("decoding ISS position response: %w", err)
	}
	if payload.Message != "success" {
		return Position{}, fmt.Errorf("ISS position request rejected: message=%q", payload.Message)
	}

	lat, err := strconv.ParseFloat(payload.ISS.Latitude, 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid latitude %q: %w", payload.ISS.Latitude, err)
	}
	lon, err := strconv.ParseFloat(payload.ISS.Longitude, 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid longitude %q: %w", payload.ISS.Longitude, err)
	}

	at := time.Unix(payload.Timestamp, 0).UTC()
	if payload.Timestamp == 0 {
		at = time.Now().UTC()
	}

	return Position{Latitude: lat, Longitude: lon, At: at}, nil
}
