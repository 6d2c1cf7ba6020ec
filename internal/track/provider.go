// Package track supplies the tracked satellite's current position. The live
// Open Notify feed is the primary source; an SGP4 propagation from the latest
// TLE snapshot serves as fallback when the feed is unreachable.
package track

import (
	"context"
	"fmt"
	"time"

	"github.com/iss/issgo/internal/cache"
	"github.com/iss/issgo/internal/metrics"
	"github.com/iss/issgo/internal/opennotify"
	"github.com/iss/issgo/internal/propagation"
)

// Position is the tracked satellite's sub-satellite point in geodetic degrees.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
	Source    string    `json:"source"` // "opennotify" or "sgp4"
}

// Provider yields the current position of the tracked satellite.
type Provider interface {
	Position(ctx context.Context) (Position, error)
}

// LiveProvider adapts the Open Notify client.
type LiveProvider struct {
	client *opennotify.Client
}

// NewLiveProvider wraps an Open Notify client as a Provider.
func NewLiveProvider(client *opennotify.Client) *LiveProvider {
	return &LiveProvider{client: client}
}

// Position fetches the live position.
func (p *LiveProvider) Position(ctx context.Context) (Position, error) {
	pos, err := p.client.Position(ctx)
	metrics.ObserveUpstream("opennotify", err)
	if err != nil {
		return Position{}, err
	}
	return Position{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		At:        pos.At,
		Source:    "opennotify",
	}, nil
}

// SGP4Provider propagates the position from orbital elements.
type SGP4Provider struct {
	source *propagation.Source
	now    func() time.Time
}

// NewSGP4Provider wraps a propagation source as a Provider.
func NewSGP4Provider(source *propagation.Source) *SGP4Provider {
	return &SGP4Provider{source: source, now: time.Now}
}

// Position propagates the orbit to the current time.
func (p *SGP4Provider) Position(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	point, err := p.source.SubPoint(p.now())
	metrics.ObserveUpstream("sgp4", err)
	if err != nil {
		return Position{}, err
	}
	return Position{
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		At:        point.At,
		Source:    "sgp4",
	}, nil
}

// Fallback tries each provider in order, returning the first success.
type Fallback struct {
	providers []Provider
}

// NewFallback chains providers; nil entries are skipped.
func NewFallback(providers ...Provider) *Fallback {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Fallback{providers: ps}
}

// Position returns the first provider's answer, falling through on error.
func (f *Fallback) Position(ctx context.Context) (Position, error) {
	var lastErr error
	for _, p := range f.providers {
		pos, err := p.Position(ctx)
		if err == nil {
			return pos, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no position providers configured")
	}
	return Position{}, fmt.Errorf("all position providers failed: %w", lastErr)
}

// positionKey is the single cache key: there is one tracked satellite.
const positionKey = "position"

// Cached wraps a Provider with a short-lived cache so bursts of requests do
// not hammer the upstream feed.
type Cached struct {
	inner Provider
	cache *cache.TTL[Position]
}

// NewCached wraps inner with a cache of the given TTL.
func NewCached(inner Provider, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: cache.New[Position](ttl)}
}

// Position returns the cached position when fresh, otherwise asks inner.
func (c *Cached) Position(ctx context.Context) (Position, error) {
	if pos, ok := c.cache.Get(positionKey); ok {
		return pos, nil
	}
	pos, err := c.inner.Position(ctx)
	if err != nil {
		return Position{}, err
	}
	c.cache.Set(positionKey, pos)
	return pos, nil
}
