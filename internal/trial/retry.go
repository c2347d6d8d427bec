package trial

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/harborline/resolve-cli/internal/model"
	"github.com/harborline/resolve-cli/pkg/claude"
	"github.com/harborline/resolve-cli/pkg/serper"
)

// InitialQuery builds the first search query from the registered details.
func InitialQuery(c model.CompanyRecord) string {
	return joinQuery(c.Name, c.Postcode, c.RegistrationNumber, "company website")
}

// FallbackQuery is the deterministic retry query used when the reformulator
// cannot produce one. Dropping the registration number broadens recall.
func FallbackQuery(c model.CompanyRecord) string {
	return joinQuery(c.Name, c.Postcode, "company website")
}

func joinQuery(parts ...string) string {
	fields := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return strings.Join(fields, " ")
}

// RetryQuery asks the reformulator for a fresh query, falling back to the
// deterministic variant on any failure. A retry always gets some query.
func RetryQuery(ctx context.Context, client claude.Client, c model.CompanyRecord) string {
	if client != nil {
		q, err := client.ReformulateQuery(ctx, companyInfo(c))
		if err == nil {
			return q
		}
		zap.L().Warn("trial: query reformulation failed, using fallback",
			zap.String("company", c.RegistrationNumber),
			zap.Error(err),
		)
	}
	return FallbackQuery(c)
}

// FilterTried drops results whose URL was already examined earlier in the
// trial, so a retry attempt never re-judges a page it has rejected.
func FilterTried(results []serper.Result, tried map[string]bool) []serper.Result {
	kept := results[:0:0]
	for _, r := range results {
		if tried[r.URL] {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
