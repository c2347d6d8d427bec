package trial

import (
	"context"

	"github.com/harborline/resolve-cli/internal/match"
	"github.com/harborline/resolve-cli/internal/model"
	"github.com/harborline/resolve-cli/pkg/claude"
)

// semanticJudge adapts the LLM client to the judge's semantic collaborator
// interface. Unparseable responses surface as errors, which the judge
// treats as inconclusive rather than as rejections.
type semanticJudge struct {
	client claude.Client
}

// NewSemanticJudge wraps an LLM client as a match.SemanticJudge.
func NewSemanticJudge(client claude.Client) match.SemanticJudge {
	return &semanticJudge{client: client}
}

func (s *semanticJudge) JudgeMatch(ctx context.Context, company model.CompanyRecord, content string) (*match.SemanticVerdict, error) {
	verdict, err := s.client.JudgeMatch(ctx, companyInfo(company), content)
	if err != nil {
		return nil, err
	}
	return &match.SemanticVerdict{
		Accepted:    verdict.Match,
		URL:         verdict.URL,
		EmbeddedURL: verdict.EmbeddedURL,
		Raw:         verdict.Raw,
	}, nil
}

func companyInfo(c model.CompanyRecord) claude.CompanyInfo {
	return claude.CompanyInfo{
		Name:               c.Name,
		RegistrationNumber: c.RegistrationNumber,
		Postcode:           c.Postcode,
		SICCodes:           c.SICCodes,
	}
}
