// Package serper provides a client for the Serper web search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://google.serper.dev"

// Client performs web searches.
type Client interface {
	// Search returns the top organic results for a query, filtered through
	// the configured domain denylist and capped to the configured count.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Result is one organic search result.
type Result struct {
	Rank  int    `json:"rank"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLocation sets the search localisation (location string and country code).
func WithLocation(location, country string) Option {
	return func(c *httpClient) {
		c.location = location
		c.country = country
	}
}

// WithMaxResults caps how many filtered results Search returns.
func WithMaxResults(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithExcludedDomains sets netloc fragments to drop from results
// (government registries, known aggregators).
func WithExcludedDomains(fragments []string) Option {
	return func(c *httpClient) {
		c.excluded = fragments
	}
}

// WithRateLimit bounds outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetryBackoff overrides the fixed delay between retries (for testing).
func WithRetryBackoff(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.backoff = d
		}
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	location   string
	country    string
	maxResults int
	excluded   []string
	limiter    *rate.Limiter
	backoff    time.Duration
	http       *http.Client
}

// NewClient creates a Serper search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		location:   "United Kingdom",
		country:    "gb",
		maxResults: 3,
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		backoff:    2 * time.Second,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchRequest struct {
	Q        string `json:"q"`
	Location string `json:"location,omitempty"`
	GL       string `json:"gl,omitempty"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Position int    `json:"position"`
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes the request with bounded fixed-backoff retries on
// transient failures. Returns the body and status code of the final attempt.
func (c *httpClient) retryDo(ctx context.Context, makeReq func() (*http.Request, error)) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := makeReq()
		if err != nil {
			return nil, 0, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "serper: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("serper: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Search(ctx context.Context, query string) ([]Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "serper: rate limit wait")
		}
	}

	payload, err := json.Marshal(searchRequest{
		Q:        query,
		Location: c.location,
		GL:       c.country,
	})
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	makeReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "serper: create request")
		}
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	body, statusCode, err := c.retryDo(ctx, makeReq)
	if err != nil {
		return nil, eris.Wrap(err, "serper: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("serper: unexpected status %d: %s", statusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	return c.filter(parsed.Organic), nil
}

// filter drops denylisted domains and caps the result count, preserving
// the engine's ranking.
func (c *httpClient) filter(organic []organicResult) []Result {
	results := make([]Result, 0, c.maxResults)
	for i, r := range organic {
		if r.Link == "" {
			continue
		}
		if c.isExcluded(r.Link) {
			continue
		}
		rank := r.Position
		if rank == 0 {
			rank = i + 1
		}
		results = append(results, Result{
			Rank:  rank,
			URL:   r.Link,
			Title: r.Title,
		})
		if len(results) == c.maxResults {
			break
		}
	}
	return results
}

func (c *httpClient) isExcluded(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(parsed.Host)
	for _, frag := range c.excluded {
		if strings.Contains(host, frag) {
			return true
		}
	}
	return false
}
