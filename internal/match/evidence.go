package match

import "strings"

// DefaultAggregatorFragments lists company-directory and data-broker domains
// that mention many companies without being anyone's official site. A
// name/postcode hit on one of these pages is not trustworthy.
var DefaultAggregatorFragments = []string{
	"open.endole.co.uk",
	"uk.globaldatabase.com",
	"companywall.co.uk",
	"bringo.co.uk",
	"companiesintheuk.co.uk",
	"companycheck.co.uk",
	"bizdb.co.uk",
	"check-business.co.uk",
}

// Evidence decides whether scraped page content carries identity evidence
// for a company, and whether the page belongs to a known aggregator.
type Evidence struct {
	aggregatorFragments []string
}

// NewEvidence creates an Evidence extractor with the given aggregator
// denylist. An empty list falls back to the defaults.
func NewEvidence(aggregatorFragments []string) *Evidence {
	if len(aggregatorFragments) == 0 {
		aggregatorFragments = DefaultAggregatorFragments
	}
	return &Evidence{aggregatorFragments: aggregatorFragments}
}

// HasIdentityEvidence reports a case-insensitive hit of the company name,
// postcode, or registration number (when provided) anywhere in the content.
func (e *Evidence) HasIdentityEvidence(content, name, postcode, registrationNumber string) bool {
	lower := strings.ToLower(content)
	if name != "" && strings.Contains(lower, strings.ToLower(name)) {
		return true
	}
	if postcode != "" && strings.Contains(lower, strings.ToLower(postcode)) {
		return true
	}
	if registrationNumber != "" && strings.Contains(lower, strings.ToLower(registrationNumber)) {
		return true
	}
	return false
}

// IsKnownAggregator reports whether any denylisted domain fragment appears
// in the content.
func (e *Evidence) IsKnownAggregator(content string) bool {
	lower := strings.ToLower(content)
	for _, frag := range e.aggregatorFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// IsAggregatorURL reports whether the URL itself points at a denylisted
// aggregator domain.
func (e *Evidence) IsAggregatorURL(rawURL string) bool {
	return e.IsKnownAggregator(rawURL)
}

// ContentMatch is the content-evidence acceptance rule: positive identity
// evidence on a page that is not a known aggregator.
func (e *Evidence) ContentMatch(content, name, postcode, registrationNumber string) bool {
	if !e.HasIdentityEvidence(content, name, postcode, registrationNumber) {
		return false
	}
	return !e.IsKnownAggregator(content)
}
