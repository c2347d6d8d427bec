package claude

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"
)

// ErrUnparseable marks a model response that could not be decoded even
// after repair. Callers treat this differently from a negative verdict.
var ErrUnparseable = eris.New("claude: unparseable response")

// extractJSON pulls the first JSON object out of a model response,
// tolerating code fences and surrounding prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// decode unmarshals extracted JSON into v, falling back to jsonrepair for
// the truncated or mildly malformed output small models produce.
func decode(raw string, v any) error {
	s := extractJSON(raw)
	if s == "" {
		return ErrUnparseable
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return ErrUnparseable
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return ErrUnparseable
	}
	return nil
}

// ParseMatchVerdict decodes a match response. Returns ErrUnparseable when
// the output cannot be recovered into the expected shape.
func ParseMatchVerdict(raw string) (*MatchVerdict, error) {
	var payload struct {
		Match       bool   `json:"match"`
		URL         string `json:"url"`
		EmbeddedURL string `json:"embedded_url"`
	}
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	v := &MatchVerdict{
		Match:       payload.Match,
		URL:         strings.TrimSpace(payload.URL),
		EmbeddedURL: strings.TrimSpace(payload.EmbeddedURL),
		Raw:         raw,
	}
	if !v.Match {
		v.URL = ""
	}
	return v, nil
}

// ParseRejectionVerdict decodes a rejection response.
func ParseRejectionVerdict(raw string) (*RejectionVerdict, error) {
	var payload struct {
		Reject bool   `json:"reject"`
		Reason string `json:"reason"`
	}
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	return &RejectionVerdict{
		Reject: payload.Reject,
		Reason: strings.TrimSpace(payload.Reason),
		Raw:    raw,
	}, nil
}

// ParseQuery decodes a reformulation response. An empty query counts as
// unparseable so callers can fall back to a deterministic query.
func ParseQuery(raw string) (string, error) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := decode(raw, &payload); err != nil {
		return "", err
	}
	q := strings.TrimSpace(payload.Query)
	if q == "" {
		return "", ErrUnparseable
	}
	return q, nil
}
