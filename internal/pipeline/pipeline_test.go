package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/credits"
	"github.com/2002Bishwajeet/ogbanana/internal/imaging"
	"github.com/2002Bishwajeet/ogbanana/internal/llm"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/pipeline"
	"github.com/2002Bishwajeet/ogbanana/internal/testutil"
)

type fakeScraper struct {
	calls      atomic.Int32
	screenshot *string
	err        error
}

func (f *fakeScraper) Scrape(_ context.Context, url string) (*model.ScrapeResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &model.ScrapeResult{
		URL:        url,
		Content:    model.PageContent{Head: "<title>T</title>", Body: "<p>hi</p>"},
		Screenshot: f.screenshot,
	}, nil
}

type fakeGenerator struct {
	mu          sync.Mutex
	metaCalls   int
	styleCalls  int
	imageCalls  int
	styleInput  string
	metaErr     error
	imageErr    error
	image       string
	lastOptions llm.MetadataOptions
}

func (f *fakeGenerator) GenerateMetadata(_ context.Context, _ model.PageContent, opts llm.MetadataOptions) (model.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metaCalls++
	f.lastOptions = opts
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return model.Metadata{"standard": map[string]any{"title": "T"}}, nil
}

func (f *fakeGenerator) GenerateStylePrompt(_ context.Context, shot string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.styleCalls++
	f.styleInput = shot
	return "flat blue shapes", nil
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	if f.imageErr != nil {
		return "", f.imageErr
	}
	if f.image != "" {
		return f.image, nil
	}
	return "raw:" + prompt, nil
}

func (f *fakeGenerator) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metaCalls + f.styleCalls + f.imageCalls
}

type fakeCompressor struct{}

func (fakeCompressor) ForAnalysis(s string) (string, error) { return "small:" + s, nil }
func (fakeCompressor) ForDelivery(s string) (string, error) { return "og:" + s, nil }

// deliveryCompressor passes screenshots through and runs the real card encoder.
type deliveryCompressor struct{}

func (deliveryCompressor) ForAnalysis(s string) (string, error) { return s, nil }
func (deliveryCompressor) ForDelivery(s string) (string, error) {
	return imaging.CompressForOGPDelivery(s)
}

type fakeRows struct {
	mu    sync.Mutex
	saved []model.RowContent
	err   error
}

func (f *fakeRows) SaveResult(_ context.Context, userID, executionID string, c model.RowContent) (*model.OgpRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, c)
	return &model.OgpRow{ID: executionID, UserID: userID}, nil
}

type fixture struct {
	scraper *fakeScraper
	gen     *fakeGenerator
	rows    *fakeRows
	ledger  *testutil.MemoryLedger
	logger  *testutil.DummyLogger
	p       *pipeline.Pipeline
}

func newFixture(t *testing.T, credits0 int, screenshot *string) *fixture {
	t.Helper()
	f := &fixture{
		scraper: &fakeScraper{screenshot: screenshot},
		gen:     &fakeGenerator{},
		rows:    &fakeRows{},
		ledger:  testutil.NewMemoryLedger(),
		logger:  &testutil.DummyLogger{},
	}
	f.ledger.Put("u1", model.Prefs{Plan: model.PlanFree, Credits: credits0})
	f.p = pipeline.New(f.scraper, f.gen, credits.NewGate(f.ledger, f.logger), f.logger,
		pipeline.WithCompressor(fakeCompressor{}),
		pipeline.WithRowWriter(f.rows),
		pipeline.WithLanguage("de_DE"))
	return f
}

func strPtr(s string) *string { return &s }

func TestRun_WithScreenshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 3, strPtr("data:image/jpeg;base64,AAAA"))

	res, err := f.p.Run(context.Background(), pipeline.Invocation{
		UserID:      "u1",
		ExecutionID: "exec-1",
		Request:     model.GenerationRequest{TargetURL: "https://example.com/#top", ContextText: "launch week"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.URL != "https://example.com/#top" {
		t.Errorf("URL = %q, want the request's targetUrl", res.URL)
	}
	if res.CreditsRemaining != 2 {
		t.Errorf("CreditsRemaining = %d, want 2", res.CreditsRemaining)
	}
	if res.OgpImage == nil || *res.OgpImage != "og:raw:flat blue shapes" {
		t.Errorf("OgpImage = %v", res.OgpImage)
	}
	if f.gen.styleInput != "small:data:image/jpeg;base64,AAAA" {
		t.Errorf("style prompt got %q, want compressed screenshot", f.gen.styleInput)
	}
	if f.gen.lastOptions.ContextText != "launch week" || f.gen.lastOptions.Language != "de_DE" {
		t.Errorf("metadata options = %+v", f.gen.lastOptions)
	}
	if len(f.rows.saved) != 1 || f.rows.saved[0].OgpImage == nil {
		t.Errorf("saved rows = %+v", f.rows.saved)
	}
}

func TestRun_NoScreenshotSkipsImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1, nil)

	res, err := f.p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.OgpImage != nil {
		t.Errorf("OgpImage = %v, want nil", *res.OgpImage)
	}
	if f.gen.styleCalls != 0 || f.gen.imageCalls != 0 {
		t.Errorf("image stages called: style=%d image=%d", f.gen.styleCalls, f.gen.imageCalls)
	}
	if res.CreditsRemaining != 0 {
		t.Errorf("CreditsRemaining = %d, want 0", res.CreditsRemaining)
	}
}

func TestRun_ValidationBeforeAnyWork(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		inv  pipeline.Invocation
		kind apperr.Kind
	}{
		{"missing user", pipeline.Invocation{Request: model.GenerationRequest{TargetURL: "https://a.test"}}, apperr.KindAuth},
		{"missing url", pipeline.Invocation{UserID: "u1"}, apperr.KindValidation},
		{"relative url", pipeline.Invocation{UserID: "u1", Request: model.GenerationRequest{TargetURL: "a.test/x"}}, apperr.KindValidation},
		{"bad scheme", pipeline.Invocation{UserID: "u1", Request: model.GenerationRequest{TargetURL: "file:///etc/passwd"}}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, 5, nil)
			_, err := f.p.Run(context.Background(), tt.inv)
			if apperr.KindOf(err) != tt.kind {
				t.Fatalf("kind = %v, want %v (err=%v)", apperr.KindOf(err), tt.kind, err)
			}
			if f.scraper.calls.Load() != 0 || f.gen.total() != 0 || f.ledger.Decrements != 0 {
				t.Error("collaborators were called for an invalid request")
			}
		})
	}
}

func TestRun_MissingURLMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 5, nil)
	_, err := f.p.Run(context.Background(), pipeline.Invocation{UserID: "u1"})
	if apperr.Message(err) != pipeline.MissingTargetURLMessage {
		t.Errorf("message = %q", apperr.Message(err))
	}
}

func TestRun_OutOfCredits(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0, strPtr("data:image/jpeg;base64,AAAA"))

	_, err := f.p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	})
	if apperr.HTTPStatus(err) != 402 {
		t.Fatalf("status = %d, want 402 (err=%v)", apperr.HTTPStatus(err), err)
	}
	if f.scraper.calls.Load() != 0 || f.gen.total() != 0 {
		t.Error("paid work started without credits")
	}
}

func TestRun_QuotaErrorNotCharged(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, strPtr("data:image/jpeg;base64,AAAA"))
	f.gen.imageErr = &apperr.Error{Kind: apperr.KindUpstreamQuota, Op: "generate image", Msg: llm.LimitMessage}

	_, err := f.p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	})
	if apperr.HTTPStatus(err) != 429 || apperr.Message(err) != llm.LimitMessage {
		t.Fatalf("err = %v (status %d)", err, apperr.HTTPStatus(err))
	}
	if n, _ := f.ledger.Credits(context.Background(), "u1"); n != 2 {
		t.Errorf("credits = %d, want unchanged 2", n)
	}
	if len(f.rows.saved) != 0 {
		t.Error("failed run was persisted")
	}
}

func TestRun_CorruptGeneratedImageIsServerError(t *testing.T) {
	t.Parallel()
	ledger := testutil.NewMemoryLedger()
	ledger.Put("u1", model.Prefs{Plan: model.PlanFree, Credits: 2})
	gen := &fakeGenerator{image: "data:image/png;base64,AAAA"}
	rows := &fakeRows{}
	p := pipeline.New(&fakeScraper{screenshot: strPtr("data:image/jpeg;base64,AAAA")}, gen,
		credits.NewGate(ledger, nil), nil,
		pipeline.WithCompressor(deliveryCompressor{}),
		pipeline.WithRowWriter(rows))

	_, err := p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	})
	if err == nil {
		t.Fatal("expected an error for undecodable image bytes")
	}
	if got := apperr.HTTPStatus(err); got != 500 {
		t.Fatalf("status = %d, want 500 (err=%v)", got, err)
	}
	if apperr.KindOf(err) != apperr.KindImageGeneration {
		t.Errorf("kind = %v, want image_generation", apperr.KindOf(err))
	}
	if !errors.Is(err, apperr.ErrInvalidImageData) {
		t.Errorf("cause lost: %v", err)
	}
	if n, _ := ledger.Credits(context.Background(), "u1"); n != 2 {
		t.Errorf("credits = %d, want unchanged 2", n)
	}
	if len(rows.saved) != 0 {
		t.Error("failed run was persisted")
	}
}

func TestRun_ScrapeErrorPropagates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, nil)
	f.scraper.err = apperr.New(apperr.KindFetch, "scrape", "failed to fetch url: 500 Internal Server Error")

	_, err := f.p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	})
	if apperr.KindOf(err) != apperr.KindFetch {
		t.Fatalf("kind = %v", apperr.KindOf(err))
	}
	if f.gen.total() != 0 {
		t.Error("generator called after scrape failure")
	}
}

func TestRun_PersistenceFailureIsBestEffort(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, nil)
	f.rows.err = errors.New("disk full")

	res, err := f.p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.CreditsRemaining != 1 {
		t.Errorf("CreditsRemaining = %d, want 1", res.CreditsRemaining)
	}
	if f.logger.ErrorCount() != 1 {
		t.Errorf("logged errors = %d, want 1", f.logger.ErrorCount())
	}
}

func TestRun_WithoutRowWriter(t *testing.T) {
	t.Parallel()
	ledger := testutil.NewMemoryLedger()
	ledger.Put("u1", model.Prefs{Credits: 1})
	p := pipeline.New(&fakeScraper{}, &fakeGenerator{}, credits.NewGate(ledger, nil), nil)

	if _, err := p.Run(context.Background(), pipeline.Invocation{
		UserID:  "u1",
		Request: model.GenerationRequest{TargetURL: "https://example.com"},
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
