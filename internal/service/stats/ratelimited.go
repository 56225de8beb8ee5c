package stats

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/oggyb/presence-gateway/internal/config"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	applog "github.com/oggyb/presence-gateway/internal/logger"
	"github.com/oggyb/presence-gateway/internal/metrics"
)

// Window is the upstream quota as last reported.
type Window struct {
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Options configures a RateLimitedCache.
type Options struct {
	CacheBytes int64
	TTL        time.Duration
	// Replenish the window once it is past ResetAt and Remaining is at or below this.
	LowWatermark int64
	// Refuse upstream calls while Remaining is below this.
	ReserveThreshold int64
	Clock            clock.Clock
}

// RateLimitedCache is a cache-aside proxy for player documents sharing one
// upstream quota.
//
// Hits only touch the cache. Misses are serialized on a single mutex held
// across the upstream call, so concurrent misses for one player produce one
// upstream request.
type RateLimitedCache struct {
	cache   *weightedCache
	fetcher Fetcher
	clock   clock.Clock
	logger  *slog.Logger

	lowWatermark int64
	reserve      int64

	mu     sync.Mutex
	window Window
}

func NewRateLimitedCache(opts Options, fetcher Fetcher, logger *slog.Logger) *RateLimitedCache {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimitedCache{
		cache:        newWeightedCache(opts.CacheBytes, opts.TTL, clk),
		fetcher:      fetcher,
		clock:        clk,
		logger:       applog.Subsystem(logger, "stats"),
		lowWatermark: opts.LowWatermark,
		reserve:      opts.ReserveThreshold,
		window:       Window{Limit: 10, Remaining: 10},
	}
}

// NewFromConfig builds the proxy against the configured HTTP upstream.
func NewFromConfig(cfg *config.Config, apiKey string, logger *slog.Logger) *RateLimitedCache {
	fetcher := NewHTTPFetcher(&http.Client{Timeout: cfg.Stats.UpstreamTimeout}, cfg.Stats.APIURL, apiKey)
	return NewRateLimitedCache(Options{
		CacheBytes:       cfg.Stats.CacheBytes,
		TTL:              cfg.Stats.CacheTTL,
		LowWatermark:     cfg.Stats.LowWatermark,
		ReserveThreshold: cfg.Stats.ReserveThreshold,
	}, fetcher, logger)
}

// GetOrFetch returns the cached player document, fetching it on a miss.
//
// Errors:
//   - *errors.RateLimitedError when the quota cannot spare a call; RetryAfter
//     is the window's reset time.
//   - ErrUpstreamUnavailable when the upstream call fails. Failures are never cached.
func (c *RateLimitedCache) GetOrFetch(ctx context.Context, player uuid.UUID) ([]byte, error) {
	if payload, ok := c.cache.Get(player); ok {
		metrics.CacheHits.Inc()
		return payload, nil
	}
	metrics.CacheMisses.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	// another miss may have filled it while we waited
	if payload, ok := c.cache.Get(player); ok {
		return payload, nil
	}

	now := c.clock.Now()
	if c.window.Remaining <= c.lowWatermark && now.After(c.window.ResetAt) {
		c.window.Remaining = c.window.Limit
	}
	if c.window.Remaining < c.reserve {
		metrics.RateLimited.Inc()
		return nil, svcErr.RateLimited(c.window.ResetAt, now)
	}

	start := time.Now()
	payload, quota, err := c.fetcher.Fetch(ctx, player)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		c.logger.Warn("stats upstream request failed", "player", player, applog.Since(start), "err", err)
		return nil, err
	}
	metrics.UpstreamRequests.WithLabelValues("ok").Inc()

	c.window = Window{
		Limit:     quota.Limit,
		Remaining: quota.Remaining,
		ResetAt:   c.clock.Now().Add(quota.Reset),
	}
	c.logger.Debug("stats upstream quota", "player", player, applog.Since(start), "quota", quota.String())

	c.cache.Add(player, payload)
	return payload, nil
}

// Window returns a snapshot of the quota. It waits for an in-flight miss.
func (c *RateLimitedCache) Window() Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}
