package main

import (
	"context"
	"net/http"
	"time"

	"github.com/harborline/resolve-cli/internal/report"
	"github.com/harborline/resolve-cli/internal/trial"
	"github.com/harborline/resolve-cli/pkg/claude"
	"github.com/harborline/resolve-cli/pkg/scrape"
	"github.com/harborline/resolve-cli/pkg/serper"
)

// buildOrchestrator wires the resolution pipeline from config.
func buildOrchestrator() (*trial.Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	search := serper.NewClient(cfg.Serper.Key,
		serper.WithBaseURL(cfg.Serper.BaseURL),
		serper.WithLocation(cfg.Serper.Location, cfg.Serper.Country),
		serper.WithMaxResults(cfg.Serper.MaxResults),
		serper.WithExcludedDomains(cfg.Serper.ExcludedDomains),
		serper.WithRateLimit(cfg.Serper.RequestsPerSecond),
	)

	fetcher := scrape.New(
		scrape.WithUserAgent(cfg.Scrape.UserAgent),
		scrape.WithMaxBodyBytes(cfg.Scrape.MaxBodyBytes),
		scrape.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		}),
	)

	llm := claude.NewClient(cfg.Anthropic.Key,
		claude.WithModel(cfg.Anthropic.Model),
		claude.WithMaxTokens(cfg.Anthropic.MaxTokens),
		claude.WithMaxContentChars(cfg.Anthropic.MaxContentChars),
	)

	return trial.NewOrchestrator(search, fetcher, llm, cfg), nil
}

func openStore(ctx context.Context) (*report.SQLiteStore, error) {
	return report.NewSQLite(ctx, cfg.Report.DatabasePath)
}
