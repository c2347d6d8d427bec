// Package claude provides the semantic judgment client used by the
// matching pipeline, backed by the Anthropic Messages API.
package claude

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultModel           = "claude-haiku-4-5-20251001"
	defaultMaxTokens       = 1024
	defaultMaxContentChars = 15000
)

// CompanyInfo carries the registry fields the judge compares a page against.
type CompanyInfo struct {
	Name               string
	RegistrationNumber string
	Postcode           string
	SICCodes           []string
}

// MatchVerdict is the judge's answer to "is this page the company's
// official website?".
type MatchVerdict struct {
	// Match is the accept/reject decision.
	Match bool
	// URL is the official-site URL when the judge names one explicitly.
	URL string
	// EmbeddedURL is an alternate link found inside a rejected page
	// (directory pages often link out to the real site).
	EmbeddedURL string
	// Raw is the unparsed model output, kept for diagnostics.
	Raw string
}

// RejectionVerdict is the answer to the deliberately asymmetric question
// "find reasons to reject this page" used for embedded links.
type RejectionVerdict struct {
	Reject bool
	Reason string
	Raw    string
}

// Client defines the semantic judgment operations used by the pipeline.
// A ParseFailure (ErrUnparseable) is distinct from a negative verdict;
// callers decide which way to fail.
type Client interface {
	// JudgeMatch decides whether page content belongs to the company.
	JudgeMatch(ctx context.Context, company CompanyInfo, content string) (*MatchVerdict, error)
	// JudgeRejection looks for reasons to reject an embedded-link page:
	// non-UK location claims, no relation to the company's industry codes,
	// or clear evidence of an unrelated company.
	JudgeRejection(ctx context.Context, company CompanyInfo, content string) (*RejectionVerdict, error)
	// ReformulateQuery generates a fresh search query for a retry attempt.
	ReformulateQuery(ctx context.Context, company CompanyInfo) (string, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMaxContentChars bounds the page-content prefix included in prompts,
// respecting the model's context limits.
func WithMaxContentChars(n int) Option {
	return func(c *sdkClient) {
		if n > 0 {
			c.maxContentChars = n
		}
	}
}

type sdkClient struct {
	client          sdk.Client
	model           string
	maxTokens       int64
	maxContentChars int
}

// NewClient creates a judge client backed by the official SDK. Rate-limit
// and transient API failures are retried by the SDK with backoff before
// surfacing as errors.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(3),
		),
		model:           defaultModel,
		maxTokens:       defaultMaxTokens,
		maxContentChars: defaultMaxContentChars,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// complete sends one user prompt and returns the concatenated text blocks.
func (c *sdkClient) complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "claude: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func (c *sdkClient) JudgeMatch(ctx context.Context, company CompanyInfo, content string) (*MatchVerdict, error) {
	raw, err := c.complete(ctx, matchSystemPrompt, matchPrompt(company, truncate(content, c.maxContentChars)))
	if err != nil {
		return nil, err
	}

	verdict, err := ParseMatchVerdict(raw)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("claude: match verdict",
		zap.String("company", company.RegistrationNumber),
		zap.Bool("match", verdict.Match),
		zap.String("embedded_url", verdict.EmbeddedURL),
	)
	return verdict, nil
}

func (c *sdkClient) JudgeRejection(ctx context.Context, company CompanyInfo, content string) (*RejectionVerdict, error) {
	raw, err := c.complete(ctx, rejectionSystemPrompt, rejectionPrompt(company, truncate(content, c.maxContentChars)))
	if err != nil {
		return nil, err
	}
	return ParseRejectionVerdict(raw)
}

func (c *sdkClient) ReformulateQuery(ctx context.Context, company CompanyInfo) (string, error) {
	raw, err := c.complete(ctx, reformulateSystemPrompt, reformulatePrompt(company))
	if err != nil {
		return "", err
	}
	return ParseQuery(raw)
}

// truncate bounds s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
