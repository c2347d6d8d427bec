// Package scrape fetches web pages and renders them as cleaned,
// link-preserving markdown suitable for matching and LLM judgment.
package scrape

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rotisserie/eris"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 10 * 1024 * 1024
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// noiseTagRe matches whole script/style/nav/chrome elements that clutter
// the extracted text.
var noiseTagRe = regexp.MustCompile(`(?is)<(script|style|nav|footer|header|form|aside)\b[^>]*>.*?</\s*(?:script|style|nav|footer|header|form|aside)\s*>`)

// Fetcher retrieves a URL's body as markdown. Errors are ordinary failure
// signals (HTTP error, timeout, conversion failure); nothing panics past
// this boundary.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Option configures the fetcher.
type Option func(*httpFetcher)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *httpFetcher) {
		f.http = hc
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(f *httpFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *httpFetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

type httpFetcher struct {
	userAgent    string
	maxBodyBytes int64
	http         *http.Client
}

// New creates a Fetcher backed by net/http and html-to-markdown.
func New(opts ...Option) Fetcher {
	f := &httpFetcher{
		userAgent:    defaultUserAgent,
		maxBodyBytes: defaultMaxBodyBytes,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "scrape: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("scrape: unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "scrape: read body")
	}

	return ToMarkdown(string(body))
}

// ToMarkdown converts raw HTML to cleaned markdown: noise elements removed,
// links preserved, blank lines collapsed.
func ToMarkdown(html string) (string, error) {
	html = noiseTagRe.ReplaceAllString(html, "")

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", eris.Wrap(err, "scrape: convert to markdown")
	}

	var lines []string
	for _, line := range strings.Split(markdown, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
