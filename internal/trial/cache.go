// Package trial orchestrates one resolution trial per company: search,
// scrape, judge, retry, and embedded-link follow-up.
package trial

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/resolve-cli/internal/resilience"
	"github.com/harborline/resolve-cli/pkg/scrape"
)

// contentCache memoizes fetched page content for the lifetime of a run,
// shared across every trial and attempt, so directory and aggregator pages
// that surface for many companies are scraped at most once. Fetch failures
// are not cached; the page may be reachable on a later attempt.
type contentCache struct {
	mu      sync.Mutex
	fetcher scrape.Fetcher
	pages   map[string]string
}

func newContentCache(fetcher scrape.Fetcher) *contentCache {
	return &contentCache{
		fetcher: fetcher,
		pages:   make(map[string]string),
	}
}

// get returns page content for url, fetching on first use. Fetch failures
// return empty content; candidates with no content still flow through the
// judge (their URL remains a string-similarity signal).
func (c *contentCache) get(ctx context.Context, url string) string {
	c.mu.Lock()
	if content, ok := c.pages[url]; ok {
		c.mu.Unlock()
		return content
	}
	c.mu.Unlock()

	content, err := fetchWithRetry(ctx, c.fetcher, url)
	if err != nil {
		zap.L().Warn("trial: fetch failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return ""
	}

	c.mu.Lock()
	c.pages[url] = content
	c.mu.Unlock()
	return content
}

// fetchWithRetry fetches a page, retrying once on transient network
// failures. Permanent failures (404s, parse errors) surface immediately.
func fetchWithRetry(ctx context.Context, fetcher scrape.Fetcher, url string) (string, error) {
	return resilience.DoVal(ctx, resilience.Config{
		MaxAttempts: 2,
		Backoff:     time.Second,
		OnRetry:     resilience.Logger("scrape", "fetch"),
	}, func(ctx context.Context) (string, error) {
		return fetcher.Fetch(ctx, url)
	})
}
