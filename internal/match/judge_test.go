package match

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harborline/resolve-cli/internal/model"
)

type mockSemanticJudge struct {
	mock.Mock
}

func (m *mockSemanticJudge) JudgeMatch(ctx context.Context, company model.CompanyRecord, content string) (*SemanticVerdict, error) {
	args := m.Called(ctx, company, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SemanticVerdict), args.Error(1)
}

func newTestJudge(sem SemanticJudge) *Judge {
	return NewJudge(NewNormalizer(nil, 0), NewEvidence(nil), sem)
}

var acme = model.CompanyRecord{
	Name:               "Acme Widgets Ltd",
	RegistrationNumber: "01234567",
	Postcode:           "SK1 1EB",
	SICCodes:           []string{"25990 - Other fabricated metal products"},
}

func TestJudge_StringMatchSkipsSemantic(t *testing.T) {
	sem := &mockSemanticJudge{}
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://acmewidgets.co.uk", Content: "Acme Widgets Ltd, SK1 1EB"},
	})

	require.True(t, out.Verdict.Accepted)
	assert.Equal(t, model.MethodString, out.Verdict.Method)
	assert.Equal(t, "https://acmewidgets.co.uk", out.Verdict.URL)
	// The expensive signal must never run when a heuristic already accepted.
	sem.AssertNotCalled(t, "JudgeMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestJudge_ContentMatch(t *testing.T) {
	sem := &mockSemanticJudge{}
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://widget-makers.co.uk", Content: "Contact Acme Widgets Ltd at SK1 1EB"},
	})

	require.True(t, out.Verdict.Accepted)
	assert.Equal(t, model.MethodContent, out.Verdict.Method)
	sem.AssertNotCalled(t, "JudgeMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestJudge_AggregatorOverride(t *testing.T) {
	sem := &mockSemanticJudge{}
	sem.On("JudgeMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(&SemanticVerdict{Accepted: false, Raw: "No"}, nil)
	j := newTestJudge(sem)

	// Name and postcode verbatim, but on a denylisted aggregator page.
	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://some-site.co.uk", Content: "Acme Widgets Ltd, SK1 1EB — source: open.endole.co.uk"},
	})

	assert.False(t, out.Verdict.Accepted)
	assert.Equal(t, model.MethodNone, out.Verdict.Method)
	assert.Empty(t, out.Verdict.URL)
}

func TestJudge_SemanticAcceptance(t *testing.T) {
	sem := &mockSemanticJudge{}
	sem.On("JudgeMatch", mock.Anything, acme, "unrelated looking page").
		Return(&SemanticVerdict{Accepted: true, Raw: "Yes"}, nil)
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://trading-name.co.uk", Content: "unrelated looking page"},
	})

	require.True(t, out.Verdict.Accepted)
	assert.Equal(t, model.MethodSemantic, out.Verdict.Method)
	assert.Equal(t, "https://trading-name.co.uk", out.Verdict.URL)
}

func TestJudge_SemanticReportedURLWins(t *testing.T) {
	sem := &mockSemanticJudge{}
	sem.On("JudgeMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(&SemanticVerdict{Accepted: true, URL: "https://acme-official.co.uk"}, nil)
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://somewhere-else.co.uk", Content: "page text"},
	})

	require.True(t, out.Verdict.Accepted)
	assert.Equal(t, "https://acme-official.co.uk", out.Verdict.URL)
}

func TestJudge_RankOrderFirstMatchWins(t *testing.T) {
	j := newTestJudge(nil)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://acmewidgets.co.uk"},
		{Rank: 2, URL: "https://acme-widgets.co.uk"},
	})

	require.True(t, out.Verdict.Accepted)
	assert.Equal(t, "https://acmewidgets.co.uk", out.Verdict.URL)
}

func TestJudge_EmbeddedLinkSurfaced(t *testing.T) {
	sem := &mockSemanticJudge{}
	sem.On("JudgeMatch", mock.Anything, mock.Anything, "directory listing one").
		Return(&SemanticVerdict{Accepted: false, EmbeddedURL: "https://acme-real.co.uk", Raw: "LINK https://acme-real.co.uk"}, nil)
	sem.On("JudgeMatch", mock.Anything, mock.Anything, "directory listing two").
		Return(&SemanticVerdict{Accepted: false, EmbeddedURL: "https://acme-second.co.uk"}, nil)
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://dir-one.co.uk", Content: "directory listing one"},
		{Rank: 2, URL: "https://dir-two.co.uk", Content: "directory listing two"},
	})

	assert.False(t, out.Verdict.Accepted)
	// The first reported embedded link wins; later ones are ignored.
	assert.Equal(t, "https://acme-real.co.uk", out.EmbeddedURL)
	assert.Equal(t, "https://dir-one.co.uk", out.EmbeddedFrom)
}

func TestJudge_SemanticErrorFallsThrough(t *testing.T) {
	sem := &mockSemanticJudge{}
	sem.On("JudgeMatch", mock.Anything, mock.Anything, "garbled page").
		Return(nil, eris.New("claude: unparseable response"))
	sem.On("JudgeMatch", mock.Anything, mock.Anything, "clear page").
		Return(&SemanticVerdict{Accepted: true}, nil)
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://first.co.uk", Content: "garbled page"},
		{Rank: 2, URL: "https://second.co.uk", Content: "clear page"},
	})

	require.True(t, out.Verdict.Accepted)
	assert.Equal(t, "https://second.co.uk", out.Verdict.URL)
}

func TestJudge_EmptyContentSkipsExpensiveSignals(t *testing.T) {
	sem := &mockSemanticJudge{}
	j := newTestJudge(sem)

	out := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://unfetched.co.uk"},
	})

	assert.False(t, out.Verdict.Accepted)
	sem.AssertNotCalled(t, "JudgeMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestJudge_NoCandidates(t *testing.T) {
	j := newTestJudge(nil)
	out := j.Judge(context.Background(), acme, nil)
	assert.False(t, out.Verdict.Accepted)
	assert.Equal(t, model.MethodNone, out.Verdict.Method)
}

func TestJudge_VerdictURLInvariant(t *testing.T) {
	j := newTestJudge(nil)

	accepted := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://acmewidgets.co.uk"},
	})
	rejected := j.Judge(context.Background(), acme, []model.Candidate{
		{Rank: 1, URL: "https://unrelated.co.uk", Content: "nothing relevant"},
	})

	assert.True(t, accepted.Verdict.Accepted)
	assert.NotEmpty(t, accepted.Verdict.URL)
	assert.False(t, rejected.Verdict.Accepted)
	assert.Empty(t, rejected.Verdict.URL)
}
