// Package llm talks to the Gemini models: SEO metadata from page text, a
// style prompt from a screenshot, and the banner image from that prompt.
package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// ContentGenerator is the subset of *genai.Models the client needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client issues metadata, style-prompt and image requests. Build it once at
// startup and share it; it holds no per-request state.
type Client struct {
	models ContentGenerator
	cfg    Config
	logger logging.Logger
}

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("missing Gemini API key (set GEMINI_API_KEY, GOOGLE_API_KEY or GENAI_API_KEY)")

// NewClient constructs the Gemini SDK client. This performs credential
// resolution once; reuse the returned Client for every request.
func NewClient(ctx context.Context, cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return New(gc.Models, cfg, logger), nil
}

// New wraps an existing ContentGenerator.
func New(models ContentGenerator, cfg Config, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	d := DefaultConfig()
	if cfg.TextModel == "" {
		cfg.TextModel = d.TextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = d.ImageModel
	}
	if cfg.Language == "" {
		cfg.Language = d.Language
	}
	if cfg.PageFormat == "" {
		cfg.PageFormat = d.PageFormat
	}
	return &Client{
		models: models,
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "llm"}),
	}
}

func (c *Client) generate(ctx context.Context, op, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	c.logger.Debug("calling model", logging.Field{Key: "op", Value: op}, logging.Field{Key: "model", Value: model})
	resp, err := c.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		if IsQuotaError(err) {
			return nil, &apperr.Error{Kind: apperr.KindUpstreamQuota, Op: op, Msg: LimitMessage, Err: err}
		}
		return nil, fmt.Errorf("%s: generate content: %w", op, err)
	}
	if resp == nil {
		return nil, apperr.New(apperr.KindLLMResponse, op, "model returned no response")
	}
	return resp, nil
}

func userContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{{Role: "user", Parts: parts}}
}
