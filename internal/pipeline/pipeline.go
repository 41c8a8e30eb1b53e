// Package pipeline runs one OGP generation: validate, check credits, scrape,
// generate metadata and (when a screenshot exists) a banner image, persist the
// result, and charge one credit.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/credits"
	"github.com/2002Bishwajeet/ogbanana/internal/imaging"
	"github.com/2002Bishwajeet/ogbanana/internal/llm"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/utils"
)

// MissingTargetURLMessage is returned when the request has no targetUrl.
const MissingTargetURLMessage = `Missing "targetUrl" field`

type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.ScrapeResult, error)
}

// Generator is the language/image model surface the pipeline needs.
type Generator interface {
	GenerateMetadata(ctx context.Context, content model.PageContent, opts llm.MetadataOptions) (model.Metadata, error)
	GenerateStylePrompt(ctx context.Context, screenshotDataURL string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Compressor shrinks screenshots for analysis and generated images for delivery.
type Compressor interface {
	ForAnalysis(dataURL string) (string, error)
	ForDelivery(dataURL string) (string, error)
}

// RowWriter persists finished results.
type RowWriter interface {
	SaveResult(ctx context.Context, userID, executionID string, content model.RowContent) (*model.OgpRow, error)
}

// Invocation is one call of the generation function.
type Invocation struct {
	UserID      string
	ExecutionID string
	Request     model.GenerationRequest
}

// Pipeline wires the stages together. Build it once and share it.
type Pipeline struct {
	scraper    Scraper
	generator  Generator
	compressor Compressor
	gate       *credits.Gate
	rows       RowWriter
	language   string
	logger     logging.Logger
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithRowWriter enables persistence of results.
func WithRowWriter(w RowWriter) Option {
	return func(p *Pipeline) { p.rows = w }
}

// WithCompressor replaces the default imaging compressor.
func WithCompressor(c Compressor) Option {
	return func(p *Pipeline) { p.compressor = c }
}

// WithLanguage sets the language tag passed to metadata generation.
func WithLanguage(lang string) Option {
	return func(p *Pipeline) { p.language = lang }
}

func New(scraper Scraper, generator Generator, gate *credits.Gate, logger logging.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.Nop()
	}
	p := &Pipeline{
		scraper:    scraper,
		generator:  generator,
		compressor: imagingCompressor{},
		gate:       gate,
		logger:     logger.With(logging.Field{Key: "component", Value: "pipeline"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. Errors carry an apperr.Kind that maps to the
// HTTP status the caller should return. Persistence failures are logged and
// never returned; credits are only charged for successful runs.
func (p *Pipeline) Run(ctx context.Context, inv Invocation) (*model.GenerationResult, error) {
	const op = "generate"
	start := time.Now()

	if inv.UserID == "" {
		return nil, apperr.New(apperr.KindAuth, op, "Unauthorized. User ID is required.")
	}
	targetURL := strings.TrimSpace(inv.Request.TargetURL)
	if targetURL == "" {
		return nil, apperr.New(apperr.KindValidation, op, MissingTargetURLMessage)
	}
	fetchURL, err := utils.FetchURL(targetURL)
	if err != nil {
		return nil, apperr.Wrapf(apperr.KindValidation, op, err, "Invalid targetUrl: must be an absolute http(s) URL")
	}

	logger := logging.FromContext(ctx, p.logger).With(
		logging.Field{Key: "user_id", Value: inv.UserID},
		logging.Field{Key: "execution_id", Value: inv.ExecutionID})

	if _, err := p.gate.Check(ctx, inv.UserID); err != nil {
		return nil, err
	}

	logger.Info("scraping", logging.Field{Key: "url", Value: fetchURL})
	scraped, err := p.scraper.Scrape(ctx, fetchURL)
	if err != nil {
		return nil, err
	}

	meta, image, err := p.generate(ctx, logger, scraped, inv.Request.ContextText)
	if err != nil {
		if errors.Is(err, apperr.ErrUpstreamQuota) {
			logger.Warn("model quota reached", logging.Err(err))
		}
		return nil, err
	}

	if p.rows != nil {
		content := model.RowContent{URL: targetURL, Meta: meta, OgpImage: image}
		if _, err := p.rows.SaveResult(ctx, inv.UserID, inv.ExecutionID, content); err != nil {
			logger.Error("failed to persist result",
				logging.Err(apperr.Wrap(apperr.KindPersistence, "persist row", err)))
		}
	}

	remaining, err := p.gate.Consume(ctx, inv.UserID)
	if err != nil {
		return nil, err
	}

	logger.Info("generation finished",
		logging.Field{Key: "has_image", Value: image != nil},
		logging.Field{Key: "credits_remaining", Value: remaining},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})

	return &model.GenerationResult{
		URL:              targetURL,
		Meta:             meta,
		OgpImage:         image,
		CreditsRemaining: remaining,
	}, nil
}

// generate runs metadata generation and the screenshot → prompt → image chain
// concurrently. The first failure cancels the other branch.
func (p *Pipeline) generate(ctx context.Context, logger logging.Logger, scraped *model.ScrapeResult, contextText string) (model.Metadata, *string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var meta model.Metadata
	g.Go(func() error {
		m, err := p.generator.GenerateMetadata(gctx, scraped.Content, llm.MetadataOptions{
			URL:         scraped.URL,
			Language:    p.language,
			ContextText: contextText,
		})
		if err != nil {
			return err
		}
		meta = m
		return nil
	})

	var image *string
	if scraped.Screenshot != nil && *scraped.Screenshot != "" {
		g.Go(func() error {
			img, err := p.banner(gctx, logger, *scraped.Screenshot)
			if err != nil {
				return err
			}
			image = &img
			return nil
		})
	} else {
		logger.Info("no screenshot, skipping image generation")
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return meta, image, nil
}

func (p *Pipeline) banner(ctx context.Context, logger logging.Logger, screenshot string) (string, error) {
	small, err := p.compressor.ForAnalysis(screenshot)
	if err != nil {
		return "", bannerError(err)
	}
	prompt, err := p.generator.GenerateStylePrompt(ctx, small)
	if err != nil {
		return "", bannerError(err)
	}
	logger.Debug("style prompt ready", logging.Field{Key: "prompt_chars", Value: len(prompt)})

	raw, err := p.generator.GenerateImage(ctx, prompt)
	if err != nil {
		return "", bannerError(err)
	}
	img, err := p.compressor.ForDelivery(raw)
	if err != nil {
		return "", bannerError(err)
	}
	return img, nil
}

// bannerError reports image-chain failures as server-side. Upstream quota
// errors keep their kind so callers still see 429.
func bannerError(err error) error {
	if apperr.KindOf(err) == apperr.KindUpstreamQuota ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Wrap(apperr.KindImageGeneration, "banner", err)
}

type imagingCompressor struct{}

func (imagingCompressor) ForAnalysis(dataURL string) (string, error) {
	return imaging.CompressForAIAnalysis(dataURL)
}

func (imagingCompressor) ForDelivery(dataURL string) (string, error) {
	return imaging.CompressForOGPDelivery(dataURL)
}
