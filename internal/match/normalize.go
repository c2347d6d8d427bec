// Package match implements the entity-resolution signals: name/domain
// similarity, page-content identity evidence, and the candidate judge that
// combines them with an external semantic verdict.
package match

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultLegalSuffixes lists UK legal entity suffixes stripped during name
// normalization. Order matters: "limited liability partnership" must be
// removed before "limited" or "llp" or stray tokens survive.
var DefaultLegalSuffixes = []string{
	"limited liability partnership",
	"limited",
	"ltd",
	"llp",
}

// DefaultSimilarityThreshold is the documented acceptance threshold for the
// Levenshtein similarity ratio. Fixed, not learned.
const DefaultSimilarityThreshold = 0.90

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// Normalizer computes company-name vs domain-fragment similarity.
type Normalizer struct {
	suffixes  []string
	threshold float64
	params    *levenshtein.Params
}

// NewNormalizer creates a Normalizer with the given suffix list and
// acceptance threshold. Zero values fall back to the defaults.
func NewNormalizer(suffixes []string, threshold float64) *Normalizer {
	if len(suffixes) == 0 {
		suffixes = DefaultLegalSuffixes
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Normalizer{
		suffixes:  suffixes,
		threshold: threshold,
		params:    levenshtein.NewParams(),
	}
}

// NormalizeName standardizes a company name or URL fragment for matching:
// lowercase, remove legal suffixes in configured order, then drop every
// non-alphanumeric character.
func (n *Normalizer) NormalizeName(text string) string {
	text = strings.ToLower(text)
	for _, suffix := range n.suffixes {
		text = strings.ReplaceAll(text, suffix, "")
	}
	return nonAlnumRe.ReplaceAllString(text, "")
}

// Ratio returns the Levenshtein similarity ratio between two already
// normalized strings: (len(a)+len(b)-d) / (len(a)+len(b)), 1.0 when both
// are empty.
func (n *Normalizer) Ratio(a, b string) float64 {
	lenSum := len(a) + len(b)
	if lenSum == 0 {
		return 1.0
	}
	d := levenshtein.Distance(a, b, n.params)
	return float64(lenSum-d) / float64(lenSum)
}

// Similar reports whether a registered company name and a URL domain
// fragment are the same entity name. An empty normalized company name
// cannot be meaningfully compared and never matches.
func (n *Normalizer) Similar(registeredName, fragment string) bool {
	name := n.NormalizeName(registeredName)
	if name == "" {
		return false
	}
	return n.Ratio(name, n.NormalizeName(fragment)) >= n.threshold
}

// DomainFragment extracts the core domain fragment used for similarity
// matching: "https://www.acme-ltd.co.uk/page" -> "acme-ltd".
func DomainFragment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := parsed.Hostname()
	host = strings.TrimPrefix(host, "www.")
	frag, _, _ := strings.Cut(host, ".")
	return frag
}

// BaseURL reduces a URL to scheme://host for ground-truth comparison.
// Returns "" when the URL has no scheme or host.
func BaseURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
