package trial

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/harborline/resolve-cli/internal/match"
	"github.com/harborline/resolve-cli/internal/model"
	"github.com/harborline/resolve-cli/pkg/claude"
)

// embeddedResolver verifies alternate links found inside rejected candidate
// pages. Each company gets a small follow budget per run so that directory
// pages full of outbound links cannot spiral into open-ended crawling.
type embeddedResolver struct {
	cache    *contentCache
	client   claude.Client
	evidence *match.Evidence
	budget   int

	mu      sync.Mutex
	follows map[string]int
}

// newEmbeddedResolver creates a resolver with a per-company follow budget,
// reading page content through the run-wide cache.
func newEmbeddedResolver(cache *contentCache, client claude.Client, evidence *match.Evidence, budget int) *embeddedResolver {
	if budget <= 0 {
		budget = 1
	}
	return &embeddedResolver{
		cache:    cache,
		client:   client,
		evidence: evidence,
		budget:   budget,
		follows:  make(map[string]int),
	}
}

// resolve fetches the embedded link through the shared cache and asks the
// rejection judge whether it can be ruled out. It accepts only when the
// judge finds no reason to reject; any fetch or judgment failure counts as
// a rejection. The budget is consumed as soon as a follow is attempted,
// whatever the outcome; attempted is false when a guard declined the URL
// before any fetch, so callers know the page was never examined.
func (r *embeddedResolver) resolve(ctx context.Context, company model.CompanyRecord, embeddedURL, fromURL string) (acceptedURL string, accepted, attempted bool) {
	if embeddedURL == "" || r.client == nil {
		return "", false, false
	}
	if r.evidence.IsAggregatorURL(embeddedURL) {
		zap.L().Debug("trial: embedded link is a known aggregator",
			zap.String("url", embeddedURL),
		)
		return "", false, false
	}
	// A link back into the page's own domain is navigation, not an
	// outbound pointer to the company's site.
	if from, to := host(fromURL), host(embeddedURL); from != "" && from == to {
		return "", false, false
	}

	r.mu.Lock()
	if r.follows[company.RegistrationNumber] >= r.budget {
		r.mu.Unlock()
		zap.L().Debug("trial: embedded follow budget exhausted",
			zap.String("company", company.RegistrationNumber),
		)
		return "", false, false
	}
	r.follows[company.RegistrationNumber]++
	r.mu.Unlock()

	content := r.cache.get(ctx, embeddedURL)
	if content == "" {
		// Fail closed: a page that yields nothing cannot be verified.
		zap.L().Warn("trial: embedded link has no content",
			zap.String("url", embeddedURL),
		)
		return "", false, true
	}

	verdict, err := r.client.JudgeRejection(ctx, companyInfo(company), content)
	if err != nil {
		zap.L().Warn("trial: embedded link judgment failed",
			zap.String("url", embeddedURL),
			zap.Error(err),
		)
		return "", false, true
	}
	if verdict.Reject {
		zap.L().Debug("trial: embedded link rejected",
			zap.String("url", embeddedURL),
			zap.String("reason", verdict.Reason),
		)
		return "", false, true
	}

	return embeddedURL, true, true
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
