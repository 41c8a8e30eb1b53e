package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/2002Bishwajeet/ogbanana/internal/credits"
	"github.com/2002Bishwajeet/ogbanana/internal/llm"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/pipeline"
	"github.com/2002Bishwajeet/ogbanana/internal/scraper"
	"github.com/2002Bishwajeet/ogbanana/internal/store"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

// Application is the global runtime state container. It owns the shared
// services and their lifecycle; pass it to modules that need them rather
// than using package-level variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	DB        *store.DB
	Ledger    credits.Ledger
	Rows      *store.RowStore
	Generator pipeline.Generator
	WebClient webclient.WebClient
	Scraper   *scraper.Scraper
	Gate      *credits.Gate
	Pipeline  *pipeline.Pipeline
	Resetter  *credits.Resetter
	Seeder    *credits.Seeder
	Scheduler *credits.Scheduler

	closers []io.Closer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option overrides a collaborator NewApplication would otherwise build.
type Option func(*Application)

// WithGenerator replaces the Gemini client.
func WithGenerator(g pipeline.Generator) Option {
	return func(a *Application) { a.Generator = g }
}

// WithWebClient replaces the configured HTTP backend.
func WithWebClient(wc webclient.WebClient) Option {
	return func(a *Application) { a.WebClient = wc }
}

// WithLedger replaces the configured credit ledger.
func WithLedger(l credits.Ledger) Option {
	return func(a *Application) { a.Ledger = l }
}

// NewApplication builds every service described by cfg. A missing Gemini key
// is not fatal: the service starts and generation requests fail until a key
// is configured.
func NewApplication(ctx context.Context, cfg *Config, logger logging.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	appCtx, cancel := context.WithCancel(context.Background())
	a := &Application{
		Config: cfg,
		Logger: logger,
		ctx:    appCtx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.build(ctx); err != nil {
		cancel()
		_ = a.closeAll()
		return nil, err
	}
	return a, nil
}

func (a *Application) build(ctx context.Context) error {
	cfg := a.Config

	needSQL := cfg.Persistence.PersistenceEnabled() ||
		(a.Ledger == nil && cfg.Credits.Backend != credits.BackendRedis)
	if needSQL {
		db, err := store.Open(ctx, cfg.Persistence, a.Logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db)
	}

	if a.Ledger == nil {
		switch cfg.Credits.Backend {
		case credits.BackendRedis:
			rdb, err := credits.NewRedisClient(ctx, cfg.Credits.RedisURL, a.Logger)
			if err != nil {
				return fmt.Errorf("connect credit ledger: %w", err)
			}
			a.closers = append(a.closers, rdb)
			a.Ledger = credits.NewRedisLedger(rdb)
		case credits.BackendSQL, "":
			a.Ledger = store.NewPrefsStore(a.DB)
		default:
			return fmt.Errorf("unknown credits backend %q", cfg.Credits.Backend)
		}
	}

	var pipeOpts []pipeline.Option
	if cfg.Persistence.PersistenceEnabled() {
		a.Rows = store.NewRowStore(a.DB)
		pipeOpts = append(pipeOpts, pipeline.WithRowWriter(a.Rows))
	} else {
		a.Logger.Warn("row persistence disabled: database or table id not configured")
	}
	pipeOpts = append(pipeOpts, pipeline.WithLanguage(cfg.GenAI.Language))

	if a.Generator == nil {
		client, err := llm.NewClient(ctx, cfg.GenAI, a.Logger)
		switch {
		case errors.Is(err, llm.ErrMissingAPIKey):
			a.Logger.Warn("generation disabled", logging.Err(err))
			a.Generator = unavailableGenerator{err: err}
		case err != nil:
			return fmt.Errorf("create genai client: %w", err)
		default:
			a.Generator = client
		}
	}

	if a.WebClient == nil {
		wc, err := webclient.NewWebClient(cfg.WebClient, a.Logger)
		if err != nil {
			return err
		}
		a.WebClient = wc
		a.closers = append(a.closers, wc)
	}
	browser, err := webclient.NewBrowser(cfg.Browser, a.Logger)
	if err != nil {
		return err
	}

	a.Scraper = scraper.New(a.WebClient, browser, a.Logger)
	a.Gate = credits.NewGate(a.Ledger, a.Logger)
	a.Pipeline = pipeline.New(a.Scraper, a.Generator, a.Gate, a.Logger, pipeOpts...)
	a.Resetter = credits.NewResetter(a.Ledger, a.Logger)
	a.Seeder = credits.NewSeeder(a.Ledger, a.Logger)
	a.Scheduler = credits.NewScheduler(a.Resetter, cfg.Credits.ResetInterval, a.Logger)
	return nil
}

// Start launches background jobs.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application starting",
		logging.Field{Key: "credits_backend", Value: string(a.Config.Credits.Backend)},
		logging.Field{Key: "persistence", Value: a.Rows != nil},
	)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Scheduler.Run(a.ctx)
	}()
	return nil
}

// Shutdown stops background jobs and releases connections.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.closeAll()
}

func (a *Application) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// unavailableGenerator fails every call with the configuration error.
type unavailableGenerator struct{ err error }

func (g unavailableGenerator) GenerateMetadata(context.Context, model.PageContent, llm.MetadataOptions) (model.Metadata, error) {
	return nil, g.err
}

func (g unavailableGenerator) GenerateStylePrompt(context.Context, string) (string, error) {
	return "", g.err
}

func (g unavailableGenerator) GenerateImage(context.Context, string) (string, error) {
	return "", g.err
}
