// Package resolver expands TikTok short links by following their redirects.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/metrics"
)

// DefaultCacheTTL is how long a resolved short link stays cached
const DefaultCacheTTL = 24 * time.Hour

const userAgent = "Mozilla/5.0 (compatible; KidsVideoHub/1.0)"

// ErrUnresolved is returned when the redirect chain does not end in a page
var ErrUnresolved = errors.New("short link could not be resolved")

// TikTok resolves short links such as https://vm.tiktok.com/ZMabc/
type TikTok struct {
	client *http.Client
	cache  *Cache
	group  singleflight.Group
}

// NewTikTok creates a resolver whose requests are bounded by timeout. cache
// may be nil.
func NewTikTok(timeout time.Duration, cache *Cache) *TikTok {
	return &TikTok{
		client: &http.Client{Timeout: timeout},
		cache:  cache,
	}
}

// Resolve follows the redirects of shortURL and returns the final URL.
// Concurrent calls for the same link share one request.
func (t *TikTok) Resolve(ctx context.Context, shortURL string) (string, error) {
	if cached, ok, err := t.cache.Get(ctx, shortURL); err != nil {
		logging.Logger.Warn().Err(err).Str("url", shortURL).Msg("Failed to read short-link cache")
	} else if ok {
		metrics.ResolverLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}

	v, err, _ := t.group.Do(shortURL, func() (interface{}, error) {
		return t.follow(ctx, shortURL)
	})
	if err != nil {
		metrics.ResolverLookups.WithLabelValues("error").Inc()
		return "", err
	}
	resolved := v.(string)
	metrics.ResolverLookups.WithLabelValues("miss").Inc()

	if err := t.cache.Set(ctx, shortURL, resolved); err != nil {
		logging.Logger.Warn().Err(err).Str("url", shortURL).Msg("Failed to write short-link cache")
	}
	return resolved, nil
}

func (t *TikTok) follow(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", shortURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: status %d", ErrUnresolved, resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}
