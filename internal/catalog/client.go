// Package catalog fetches and queries the remote plugin catalogs for the
// supported boot environments.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/logger"
	"github.com/cloudpe/pemarket/internal/pe"
)

type Client struct {
	httpc *http.Client
	log   *logger.Logger
	cache *Cache // optional; nil disables offline fallback

	// URL overrides per kind, for mirrors; empty means the built-in
	// endpoint.
	Overrides map[pe.Kind]string
}

func NewClient(log *logger.Logger, cache *Cache) *Client {
	return &Client{
		httpc: &http.Client{Timeout: 30 * time.Second},
		log:   log,
		cache: cache,
	}
}

func (c *Client) catalogURL(kind pe.Kind) string {
	if u, ok := c.Overrides[kind]; ok && u != "" {
		return u
	}
	return kind.CatalogURL()
}

// Fetch downloads and decodes the catalog for kind. Transport failures
// map to ErrNetworkUnavailable and fall back to the last cached catalog
// when one exists; decode failures map to ErrCatalogParse and never fall
// back silently.
func (c *Client) Fetch(ctx context.Context, kind pe.Kind) ([]domain.Plugin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.catalogURL(kind), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogParse, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.fetchFallback(kind, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fetchFallback(kind, fmt.Errorf("%w: catalog returned status %d", domain.ErrNetworkUnavailable, resp.StatusCode))
	}

	plugins, err := Decode(kind, resp.Body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(kind, plugins); err != nil {
			c.log.Warn("catalog cache write failed: %v", err)
		}
	}

	return plugins, nil
}

// fetchFallback serves the cached catalog on a network failure so browsing
// keeps working offline. The original error is returned when no cache
// entry exists.
func (c *Client) fetchFallback(kind pe.Kind, cause error) ([]domain.Plugin, error) {
	if c.cache == nil {
		return nil, cause
	}

	plugins, fetchedAt, err := c.cache.Get(kind)
	if err != nil || len(plugins) == 0 {
		return nil, cause
	}

	c.log.Warn("catalog fetch failed (%v); serving cache from %s", cause, fetchedAt.Format(time.RFC3339))
	return plugins, nil
}

// Cached returns the last stored catalog without touching the network.
func (c *Client) Cached(kind pe.Kind) ([]domain.Plugin, time.Time, error) {
	if c.cache == nil {
		return nil, time.Time{}, fmt.Errorf("%w: no catalog cache configured", domain.ErrNetworkUnavailable)
	}
	return c.cache.Get(kind)
}

// Ping reports whether the catalog endpoint for kind is reachable.
func (c *Client) Ping(ctx context.Context, kind pe.Kind) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, kind.PingURL(), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
