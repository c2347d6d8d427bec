package trial

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/resolve-cli/internal/config"
	"github.com/harborline/resolve-cli/internal/model"
	"github.com/harborline/resolve-cli/pkg/claude"
	"github.com/harborline/resolve-cli/pkg/serper"
)

type fakeSearch struct {
	queries []string
	// pages[i] is returned for the i-th Search call; the last page repeats.
	pages [][]serper.Result
	err   error
}

func (f *fakeSearch) Search(_ context.Context, query string) ([]serper.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return nil, nil
	}
	i := len(f.queries) - 1
	if i >= len(f.pages) {
		i = len(f.pages) - 1
	}
	return f.pages[i], nil
}

type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	content, ok := f.pages[url]
	if !ok {
		return "", eris.New("fetch: status 404")
	}
	return content, nil
}

type fakeLLM struct {
	matchVerdicts  map[string]*claude.MatchVerdict // keyed by content
	matchErr       error
	rejectVerdict  *claude.RejectionVerdict
	rejectErr      error
	retryQuery     string
	retryErr       error
	matchCalls     int
	rejectCalls    int
	reformulations int
}

func (f *fakeLLM) JudgeMatch(_ context.Context, _ claude.CompanyInfo, content string) (*claude.MatchVerdict, error) {
	f.matchCalls++
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if v, ok := f.matchVerdicts[content]; ok {
		return v, nil
	}
	return &claude.MatchVerdict{Match: false}, nil
}

func (f *fakeLLM) JudgeRejection(_ context.Context, _ claude.CompanyInfo, _ string) (*claude.RejectionVerdict, error) {
	f.rejectCalls++
	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	if f.rejectVerdict != nil {
		return f.rejectVerdict, nil
	}
	return &claude.RejectionVerdict{Reject: false}, nil
}

func (f *fakeLLM) ReformulateQuery(_ context.Context, _ claude.CompanyInfo) (string, error) {
	f.reformulations++
	if f.retryErr != nil {
		return "", f.retryErr
	}
	return f.retryQuery, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func testCompany() model.CompanyRecord {
	return model.CompanyRecord{
		Name:               "Acme Widgets Limited",
		RegistrationNumber: "01234567",
		Postcode:           "S1 2AB",
		SICCodes:           []string{"25620 - Machining"},
	}
}

func TestResolveStringMatchFirstAttempt(t *testing.T) {
	search := &fakeSearch{pages: [][]serper.Result{{
		{Rank: 1, URL: "https://acmewidgets.co.uk", Title: "Acme Widgets"},
	}}}
	fetcher := &fakeFetcher{pages: map[string]string{}}
	llm := &fakeLLM{}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.True(t, result.Resolved())
	assert.Equal(t, "https://acmewidgets.co.uk", result.FinalURL)
	assert.Equal(t, model.MethodString, result.FinalMethod)
	assert.Len(t, result.Attempts, 1)
	assert.NotEmpty(t, result.ID)
	assert.Zero(t, llm.matchCalls, "string match should not consult the LLM")
}

func TestResolveRetryThenSemantic(t *testing.T) {
	search := &fakeSearch{pages: [][]serper.Result{
		{{Rank: 1, URL: "https://unrelated.example", Title: "Something Else"}},
		{{Rank: 1, URL: "https://trading-name.example", Title: "Trading Name"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://unrelated.example":    "a page about something else entirely",
		"https://trading-name.example": "the trading site",
	}}
	llm := &fakeLLM{
		matchVerdicts: map[string]*claude.MatchVerdict{
			"the trading site": {Match: true},
		},
		retryQuery: "acme widgets sheffield",
	}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.True(t, result.Resolved())
	assert.Equal(t, "https://trading-name.example", result.FinalURL)
	assert.Equal(t, model.MethodSemantic, result.FinalMethod)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, "acme widgets sheffield", result.Attempts[1].Query)
	assert.Equal(t, 1, llm.reformulations)
}

func TestResolveRetryExcludesTriedURLs(t *testing.T) {
	// Both attempts return the same result; the second attempt must see it
	// filtered out and judge an empty candidate set.
	page := []serper.Result{{Rank: 1, URL: "https://unrelated.example", Title: "Something Else"}}
	search := &fakeSearch{pages: [][]serper.Result{page, page}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://unrelated.example": "a page about something else entirely",
	}}
	llm := &fakeLLM{retryErr: eris.New("claude: unavailable")}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.False(t, result.Resolved())
	require.Len(t, result.Attempts, 2)
	assert.Empty(t, result.Attempts[1].Candidates)
	// Reformulation failed, so the deterministic fallback query was used.
	assert.Equal(t, FallbackQuery(testCompany()), result.Attempts[1].Query)
}

func TestResolveExhaustsAttempts(t *testing.T) {
	search := &fakeSearch{pages: [][]serper.Result{
		{{Rank: 1, URL: "https://wrong-one.example", Title: "Wrong"}},
		{{Rank: 1, URL: "https://wrong-two.example", Title: "Also Wrong"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://wrong-one.example": "nothing relevant here",
		"https://wrong-two.example": "nor here",
	}}
	llm := &fakeLLM{retryQuery: "acme widgets"}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.False(t, result.Resolved())
	assert.Empty(t, result.FinalURL)
	assert.Equal(t, model.MethodNone, result.FinalMethod)
	assert.Len(t, result.Attempts, 2)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

func TestResolveContentMatch(t *testing.T) {
	search := &fakeSearch{pages: [][]serper.Result{{
		{Rank: 1, URL: "https://widgetshop.example", Title: "Widget Shop"},
	}}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://widgetshop.example": "Contact us at Unit 4, Sheffield S1 2AB. Reg no 01234567.",
	}}
	llm := &fakeLLM{}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.Equal(t, model.MethodContent, result.FinalMethod)
	assert.Zero(t, llm.matchCalls)
}

func TestResolveEmbeddedLinkAccepted(t *testing.T) {
	search := &fakeSearch{pages: [][]serper.Result{{
		{Rank: 1, URL: "https://somedirectory.example/acme", Title: "Acme Widgets profile"},
	}}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://somedirectory.example/acme": "directory entry for a widgets firm",
		"https://acme-site.example":          "we make widgets in sheffield",
	}}
	llm := &fakeLLM{
		matchVerdicts: map[string]*claude.MatchVerdict{
			"directory entry for a widgets firm": {Match: false, EmbeddedURL: "https://acme-site.example"},
		},
	}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.True(t, result.Resolved())
	assert.Equal(t, "https://acme-site.example", result.FinalURL)
	assert.Equal(t, model.MethodSemantic, result.FinalMethod)
	assert.Len(t, result.Attempts, 1)
	assert.Equal(t, 1, llm.rejectCalls)
}

func TestResolveEmbeddedLinkRejectedKeepsTrying(t *testing.T) {
	search := &fakeSearch{pages: [][]serper.Result{
		{{Rank: 1, URL: "https://somedirectory.example/acme", Title: "Acme Widgets profile"}},
		{{Rank: 1, URL: "https://acmewidgets.co.uk", Title: "Acme Widgets"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://somedirectory.example/acme": "directory entry for a widgets firm",
		"https://overseas.example":           "proudly serving texas since 1985",
	}}
	llm := &fakeLLM{
		matchVerdicts: map[string]*claude.MatchVerdict{
			"directory entry for a widgets firm": {Match: false, EmbeddedURL: "https://overseas.example"},
		},
		rejectVerdict: &claude.RejectionVerdict{Reject: true, Reason: "business is based in the US"},
		retryQuery:    "acme widgets sheffield",
	}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.True(t, result.Resolved())
	assert.Equal(t, "https://acmewidgets.co.uk", result.FinalURL)
	assert.Equal(t, model.MethodString, result.FinalMethod)
	assert.Len(t, result.Attempts, 2)
	assert.False(t, result.Attempts[0].Verdict.Accepted)
}

func TestResolveSharesCacheAcrossTrials(t *testing.T) {
	// Aggregator and directory pages surface for many companies; the cache
	// spans the run, so a page seen in one trial is never refetched in the
	// next.
	shared := "https://open.endole.co.uk/acme"
	search := &fakeSearch{pages: [][]serper.Result{{
		{Rank: 1, URL: shared, Title: "Acme Widgets - Endole"},
	}}}
	fetcher := &fakeFetcher{pages: map[string]string{
		shared: "directory profile, open.endole.co.uk listing",
	}}

	o := NewOrchestrator(search, fetcher, &fakeLLM{}, testConfig(t))

	first := testCompany()
	second := testCompany()
	second.RegistrationNumber = "07654321"

	_, err := o.Resolve(context.Background(), first)
	require.NoError(t, err)
	_, err = o.Resolve(context.Background(), second)
	require.NoError(t, err)

	count := 0
	for _, url := range fetcher.fetched {
		if url == shared {
			count++
		}
	}
	assert.Equal(t, 1, count, "shared URL should be fetched once per run")
}

func TestResolveGuardDeclinedEmbeddedURLStaysEligible(t *testing.T) {
	// The directory page reports a same-domain link, which the embedded
	// resolver declines without fetching. When the retry surfaces that very
	// URL as a search result it must still be judged, not filtered as tried.
	directory := "https://somedirectory.example/acme"
	declined := "https://somedirectory.example/acme-widgets-ltd"

	search := &fakeSearch{pages: [][]serper.Result{
		{{Rank: 1, URL: directory, Title: "Acme Widgets profile"}},
		{{Rank: 1, URL: declined, Title: "Acme Widgets Ltd"}},
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		directory: "directory entry for a widgets firm",
		declined:  "Acme Widgets Limited, Unit 4, Sheffield S1 2AB",
	}}
	llm := &fakeLLM{
		matchVerdicts: map[string]*claude.MatchVerdict{
			"directory entry for a widgets firm": {Match: false, EmbeddedURL: declined},
		},
		retryQuery: "acme widgets sheffield",
	}

	o := NewOrchestrator(search, fetcher, llm, testConfig(t))
	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.True(t, result.Resolved())
	assert.Equal(t, declined, result.FinalURL)
	assert.Equal(t, model.MethodContent, result.FinalMethod)
	require.Len(t, result.Attempts, 2)
	require.Len(t, result.Attempts[1].Candidates, 1)
	assert.Zero(t, llm.rejectCalls, "declined follow must not reach the rejection judge")
}

func TestResolveSearchFailureDegradesAttempt(t *testing.T) {
	search := &fakeSearch{err: eris.New("serper: status 500")}
	o := NewOrchestrator(search, &fakeFetcher{}, &fakeLLM{retryQuery: "acme widgets"}, testConfig(t))

	result, err := o.Resolve(context.Background(), testCompany())
	require.NoError(t, err)

	assert.False(t, result.Resolved())
	require.Len(t, result.Attempts, 2)
	assert.Empty(t, result.Attempts[0].Candidates)
	assert.Contains(t, result.Attempts[0].Verdict.Reasoning, "search failed")
	assert.Equal(t, "acme widgets", result.Attempts[1].Query)
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	search := &fakeSearch{err: context.Canceled}
	o := NewOrchestrator(search, &fakeFetcher{}, &fakeLLM{}, testConfig(t))

	result, err := o.Resolve(ctx, testCompany())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Resolved())
}
