package match

import (
	"context"

	"go.uber.org/zap"

	"github.com/harborline/resolve-cli/internal/model"
)

// SemanticVerdict is the structured judgment returned by the external
// semantic collaborator for one candidate page.
type SemanticVerdict struct {
	Accepted bool
	// URL is the official-site URL reported by the judge, when it names one
	// explicitly. Empty means "use the candidate's own URL".
	URL string
	// EmbeddedURL is an alternate link the judge found inside a rejected
	// page's content (e.g. a directory page linking out to the real site).
	EmbeddedURL string
	// Raw is the unparsed response, kept for diagnostics.
	Raw string
}

// SemanticJudge is the external match-judgment capability (LLM verdict or
// embedding similarity). Implementations must distinguish malformed
// responses (error) from negative judgments (Accepted=false).
type SemanticJudge interface {
	JudgeMatch(ctx context.Context, company model.CompanyRecord, content string) (*SemanticVerdict, error)
}

// Outcome is the result of judging a candidate set. When no candidate is
// accepted but a rejected candidate's semantic verdict reported an embedded
// alternate link, the first such link is surfaced for the embedded-link
// resolver; it is not a normal acceptance.
type Outcome struct {
	Verdict model.JudgeVerdict
	// EmbeddedURL and EmbeddedFrom identify the first embedded alternate
	// link reported across rejected candidates, and the candidate page it
	// was found on.
	EmbeddedURL  string
	EmbeddedFrom string
}

// Judge combines string similarity, content evidence and semantic judgment
// into a single accept/reject decision per candidate set.
type Judge struct {
	norm     *Normalizer
	evidence *Evidence
	semantic SemanticJudge
}

// NewJudge creates a Judge. The semantic collaborator may be nil, in which
// case only the two heuristic signals are applied.
func NewJudge(norm *Normalizer, evidence *Evidence, semantic SemanticJudge) *Judge {
	return &Judge{norm: norm, evidence: evidence, semantic: semantic}
}

// Judge iterates candidates in rank order and accepts the first one that
// passes any signal, checked cheapest first: domain-fragment similarity,
// then content evidence, then the semantic collaborator. The semantic call
// is made only when both heuristics fail for that candidate, keeping cost
// proportional to difficulty. Short-circuits on first acceptance.
func (j *Judge) Judge(ctx context.Context, company model.CompanyRecord, candidates []model.Candidate) Outcome {
	out := Outcome{
		Verdict: model.JudgeVerdict{Method: model.MethodNone},
	}
	if len(candidates) == 0 {
		out.Verdict.Reasoning = "no candidates to judge"
		return out
	}

	for _, cand := range candidates {
		if j.norm.Similar(company.Name, DomainFragment(cand.URL)) {
			out.Verdict = model.JudgeVerdict{
				Accepted: true,
				URL:      cand.URL,
				Method:   model.MethodString,
			}
			return out
		}

		if cand.Content == "" {
			// Nothing fetched for this candidate; neither content evidence
			// nor the semantic judge can examine it.
			continue
		}

		if j.evidence.ContentMatch(cand.Content, company.Name, company.Postcode, company.RegistrationNumber) {
			out.Verdict = model.JudgeVerdict{
				Accepted: true,
				URL:      cand.URL,
				Method:   model.MethodContent,
			}
			return out
		}

		if j.semantic == nil {
			continue
		}

		verdict, err := j.semantic.JudgeMatch(ctx, company, cand.Content)
		if err != nil {
			// Inconclusive, not a rejection: fall through to the next
			// candidate rather than accept on ambiguous evidence.
			zap.L().Warn("judge: semantic judgment failed",
				zap.String("company", company.RegistrationNumber),
				zap.String("url", cand.URL),
				zap.Error(err),
			)
			out.Verdict.Reasoning = "semantic judgment failed: " + err.Error()
			continue
		}

		if verdict.Accepted {
			url := verdict.URL
			if url == "" {
				url = cand.URL
			}
			out.Verdict = model.JudgeVerdict{
				Accepted:  true,
				URL:       url,
				Method:    model.MethodSemantic,
				Reasoning: verdict.Raw,
			}
			return out
		}

		if verdict.EmbeddedURL != "" && out.EmbeddedURL == "" {
			out.EmbeddedURL = verdict.EmbeddedURL
			out.EmbeddedFrom = cand.URL
		}
		out.Verdict.Reasoning = verdict.Raw
	}

	if out.Verdict.Reasoning == "" {
		out.Verdict.Reasoning = "no candidate accepted"
	}
	return out
}
