// SPDX-License-Identifier: MIT

// Package fetch downloads the source feed with bounded sequential retries
// and an optional TTL file cache. The buffer it returns is opaque: gzip
// framing is the parser's problem, not ours.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	xglog "epgshift/internal/log"
	"epgshift/internal/metrics"
	"epgshift/internal/version"
)

// maxFeedSize bounds the response body read.
const maxFeedSize = 256 * 1024 * 1024

// Options configures a feed client.
type Options struct {
	URLs       []string      // primary plus backup URLs, tried in order
	Timeout    time.Duration // per download attempt
	Attempts   int           // attempts per URL (minimum 1)
	RetryDelay time.Duration // fixed delay between attempts
	CacheDir   string        // empty disables the cache
	CacheTTL   time.Duration
	UserAgent  string
}

// Client downloads feed buffers.
type Client struct {
	opts Options
	http *http.Client
}

// New creates a feed client.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "epgshift/" + version.Version
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &Client{opts: opts, http: &http.Client{}}
}

// Fetch returns the feed buffer and whether it came from the cache. URLs
// are tried in order; each gets the full retry budget before falling back
// to the next.
func (c *Client) Fetch(ctx context.Context) ([]byte, bool, error) {
	logger := xglog.WithComponentFromContext(ctx, "fetch")

	var lastErr error
	for _, url := range c.opts.URLs {
		if data, ok := c.fromCache(url, logger); ok {
			metrics.IncFeedCache("hit")
			logger.Info().Str("url", url).Int("bytes", len(data)).Msg("using cached feed")
			return data, true, nil
		}
		metrics.IncFeedCache("miss")

		data, err := c.download(ctx, url, logger)
		if err != nil {
			lastErr = err
			logger.Warn().Err(err).Str("url", url).Msg("feed download failed")
			continue
		}
		c.storeCache(url, data, logger)
		return data, false, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no source URL configured")
	}
	return nil, false, fmt.Errorf("fetch feed: %w", lastErr)
}

// download performs up to Attempts sequential GETs with a fixed delay
// between them.
func (c *Client) download(ctx context.Context, url string, logger zerolog.Logger) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			metrics.IncFetchRetry()
			select {
			case <-time.After(c.opts.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := c.get(ctx, url)
		if err == nil {
			logger.Info().Str("url", url).Int("bytes", len(data)).
				Int("attempt", attempt+1).Msg("feed downloaded")
			return data, nil
		}
		lastErr = err
		logger.Debug().Err(err).Str("url", url).Int("attempt", attempt+1).
			Msg("download attempt failed")
	}
	return nil, fmt.Errorf("download failed after %d attempts: %w", c.opts.Attempts, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	reqCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// cachePath derives a stable per-URL cache file name.
func (c *Client) cachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.opts.CacheDir, "cache_"+hex.EncodeToString(sum[:])+".xml.gz")
}

func (c *Client) fromCache(url string, logger zerolog.Logger) ([]byte, bool) {
	if c.opts.CacheDir == "" || c.opts.CacheTTL <= 0 {
		return nil, false
	}
	path := c.cachePath(url)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) >= c.opts.CacheTTL {
		return nil, false
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from a hash
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("cache read failed")
		return nil, false
	}
	return data, true
}

// storeCache is best-effort: a cache write failure never fails the fetch.
func (c *Client) storeCache(url string, data []byte, logger zerolog.Logger) {
	if c.opts.CacheDir == "" || c.opts.CacheTTL <= 0 {
		return
	}
	path := c.cachePath(url)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("cache write failed")
		return
	}
	logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("feed cached")
}
