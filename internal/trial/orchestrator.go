package trial

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborline/resolve-cli/internal/config"
	"github.com/harborline/resolve-cli/internal/match"
	"github.com/harborline/resolve-cli/internal/model"
	"github.com/harborline/resolve-cli/pkg/claude"
	"github.com/harborline/resolve-cli/pkg/scrape"
	"github.com/harborline/resolve-cli/pkg/serper"
)

// Orchestrator runs full resolution trials. It is safe for concurrent use;
// the content cache and embedded-follow budget span the run, while tried-URL
// state is allocated per call.
type Orchestrator struct {
	search      serper.Client
	llm         claude.Client
	judge       *match.Judge
	cache       *contentCache
	embedded    *embeddedResolver
	maxAttempts int
}

// NewOrchestrator wires the pipeline from its collaborators. The LLM client
// may be nil, in which case only heuristic signals apply and retries use the
// deterministic fallback query.
func NewOrchestrator(search serper.Client, fetcher scrape.Fetcher, llm claude.Client, cfg *config.Config) *Orchestrator {
	norm := match.NewNormalizer(cfg.Matcher.LegalSuffixes, cfg.Matcher.SimilarityThreshold)
	evidence := match.NewEvidence(cfg.Matcher.AggregatorFragments)

	var semantic match.SemanticJudge
	if llm != nil {
		semantic = NewSemanticJudge(llm)
	}

	maxAttempts := cfg.Trial.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	cache := newContentCache(fetcher)
	return &Orchestrator{
		search:      search,
		llm:         llm,
		judge:       match.NewJudge(norm, evidence, semantic),
		cache:       cache,
		embedded:    newEmbeddedResolver(cache, llm, evidence, cfg.Trial.MaxEmbeddedFollows),
		maxAttempts: maxAttempts,
	}
}

// Resolve runs up to maxAttempts search+judge cycles for one company and
// returns the trial record. Collaborator failures degrade the attempt they
// occur in; an error is returned only when the context is cancelled, and the
// partial record accompanies it so callers can still persist it.
func (o *Orchestrator) Resolve(ctx context.Context, company model.CompanyRecord) (*model.TrialResult, error) {
	result := &model.TrialResult{
		ID:          uuid.NewString(),
		Company:     company,
		FinalMethod: model.MethodNone,
		StartedAt:   time.Now().UTC(),
	}
	defer func() { result.FinishedAt = time.Now().UTC() }()

	tried := make(map[string]bool)
	query := InitialQuery(company)

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		zap.L().Info("trial: attempt",
			zap.String("trial_id", result.ID),
			zap.String("company", company.RegistrationNumber),
			zap.Int("attempt", attempt),
			zap.String("query", query),
		)

		results, err := o.search.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return result, eris.Wrapf(err, "trial: search attempt %d", attempt)
			}
			zap.L().Error("trial: search failed",
				zap.String("trial_id", result.ID),
				zap.String("company", company.RegistrationNumber),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			result.Attempts = append(result.Attempts, model.AttemptRecord{
				AttemptNumber: attempt,
				Query:         query,
				Verdict: model.JudgeVerdict{
					Method:    model.MethodNone,
					Reasoning: "search failed: " + err.Error(),
				},
			})
			if attempt < o.maxAttempts {
				query = RetryQuery(ctx, o.llm, company)
			}
			continue
		}
		results = FilterTried(results, tried)

		candidates := make([]model.Candidate, 0, len(results))
		for _, r := range results {
			tried[r.URL] = true
			candidates = append(candidates, model.Candidate{
				Rank:    r.Rank,
				URL:     r.URL,
				Title:   r.Title,
				Content: o.cache.get(ctx, r.URL),
			})
		}

		outcome := o.judge.Judge(ctx, company, candidates)

		if !outcome.Verdict.Accepted && outcome.EmbeddedURL != "" && !tried[outcome.EmbeddedURL] {
			url, accepted, attempted := o.embedded.resolve(ctx, company, outcome.EmbeddedURL, outcome.EmbeddedFrom)
			// A guard-declined URL was never examined; it stays eligible
			// as a search candidate on the next attempt.
			if attempted {
				tried[outcome.EmbeddedURL] = true
			}
			if accepted {
				outcome.Verdict = model.JudgeVerdict{
					Accepted:  true,
					URL:       url,
					Method:    model.MethodSemantic,
					Reasoning: "embedded link verified, found on " + outcome.EmbeddedFrom,
				}
			}
		}

		result.Attempts = append(result.Attempts, model.AttemptRecord{
			AttemptNumber: attempt,
			Query:         query,
			Candidates:    candidates,
			Verdict:       outcome.Verdict,
		})

		if outcome.Verdict.Accepted {
			result.FinalURL = outcome.Verdict.URL
			result.FinalMethod = outcome.Verdict.Method
			zap.L().Info("trial: resolved",
				zap.String("trial_id", result.ID),
				zap.String("company", company.RegistrationNumber),
				zap.String("url", result.FinalURL),
				zap.String("method", string(result.FinalMethod)),
			)
			return result, nil
		}

		if attempt < o.maxAttempts {
			query = RetryQuery(ctx, o.llm, company)
		}
	}

	zap.L().Info("trial: exhausted",
		zap.String("trial_id", result.ID),
		zap.String("company", company.RegistrationNumber),
		zap.Int("attempts", len(result.Attempts)),
	)
	return result, nil
}
