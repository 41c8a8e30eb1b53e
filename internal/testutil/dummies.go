// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns how many Error lines were recorded.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// WarnCount returns how many Warn lines were recorded.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyPage is a canned response served by DummyWebClient.
type DummyPage struct {
	Status   int
	Body     string
	FinalURL string
}

// DummyWebClient implements webclient.WebClient.
// URLs present in Pages get their canned response; anything else returns
// body "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Pages         map[string]DummyPage
	FailURLs      map[string]bool
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	resp := &webclient.Response{
		Request:    req,
		FinalURL:   req.URL,
		Headers:    http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       []byte("ok:" + req.URL),
		StatusCode: http.StatusOK,
		FetchedAt:  time.Now(),
	}
	if p, ok := d.Pages[req.URL]; ok {
		resp.Body = []byte(p.Body)
		if p.Status != 0 {
			resp.StatusCode = p.Status
		}
		if p.FinalURL != "" {
			resp.FinalURL = p.FinalURL
		}
	}
	return resp, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests were made.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// ─── Browser ───────────────────────────────────────────────────────────

// DummyBrowser implements webclient.Browser. It returns HTML and Screenshot
// for whatever the options ask for, or Err.
type DummyBrowser struct {
	HTML       string
	Screenshot []byte
	Err        error

	mu    sync.Mutex
	Calls []webclient.CaptureOptions
}

func (b *DummyBrowser) Capture(_ context.Context, url string, opts webclient.CaptureOptions) (*webclient.Capture, error) {
	b.mu.Lock()
	b.Calls = append(b.Calls, opts)
	b.mu.Unlock()

	if b.Err != nil {
		return nil, b.Err
	}
	c := &webclient.Capture{URL: url}
	if opts.HTML {
		c.HTML = b.HTML
	}
	if opts.Screenshot {
		c.Screenshot = b.Screenshot
	}
	return c, nil
}

// CallCount returns how many captures were requested.
func (b *DummyBrowser) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Calls)
}

// ─── Ledger ────────────────────────────────────────────────────────────

// MemoryLedger implements credits.Ledger in memory.
type MemoryLedger struct {
	mu    sync.Mutex
	prefs map[string]model.Prefs

	// FailUsers makes SetCredits fail for the listed ids.
	FailUsers map[string]bool
	// Err is returned by every read when set.
	Err error

	Decrements int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{prefs: make(map[string]model.Prefs)}
}

// Put stores prefs for userID verbatim.
func (m *MemoryLedger) Put(userID string, p model.Prefs) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[userID] = p
}

func (m *MemoryLedger) Credits(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return max(m.prefs[userID].Credits, 0), nil
}

func (m *MemoryLedger) Decrement(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decrements++
	p := m.prefs[userID]
	if p.Credits > 0 {
		p.Credits--
		m.prefs[userID] = p
	}
	return max(p.Credits, 0), nil
}

func (m *MemoryLedger) Prefs(_ context.Context, userID string) (model.Prefs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Prefs{}, m.Err
	}
	return m.prefs[userID], nil
}

func (m *MemoryLedger) MergePrefs(_ context.Context, userID string, defaults model.Prefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[userID]
	if !ok {
		m.prefs[userID] = defaults
		return nil
	}
	if p.Plan == "" {
		p.Plan = defaults.Plan
	}
	if p.Limit == 0 {
		p.Limit = defaults.Limit
	}
	m.prefs[userID] = p
	return nil
}

func (m *MemoryLedger) SetCredits(_ context.Context, userID string, credits, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUsers[userID] {
		return &errString{"dummy set credits fail for " + userID}
	}
	p := m.prefs[userID]
	p.Credits = credits
	p.Limit = limit
	m.prefs[userID] = p
	return nil
}

func (m *MemoryLedger) Users(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	users := make([]model.User, 0, len(m.prefs))
	for id, p := range m.prefs {
		users = append(users, model.User{ID: id, Prefs: p})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
