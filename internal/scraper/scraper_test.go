package scraper_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/scraper"
	"github.com/2002Bishwajeet/ogbanana/internal/testutil"
)

const staticPage = `<html><head><title>Static</title><script>track()</script></head>
<body><h1 onclick="x()">Hello</h1><a href="javascript:void(0)">link</a></body></html>`

const jsPage = `<html><head><title>App</title></head>
<body><noscript>You need to enable JavaScript to run this app.</noscript><div id="root"></div></body></html>`

const renderedPage = `<html><head><title>App</title></head><body><h1>Rendered content</h1></body></html>`

func TestScrape_StaticPageUsesFetchedHTML(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{
		"https://static.test/": {Body: staticPage, FinalURL: "https://static.test/home"},
	}}
	browser := &testutil.DummyBrowser{HTML: "<html><body>should not be used</body></html>", Screenshot: []byte{0xff, 0xd8}}

	res, err := scraper.New(client, browser, nil).Scrape(context.Background(), "https://static.test/")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if res.URL != "https://static.test/home" {
		t.Errorf("URL = %q, want final URL", res.URL)
	}
	if strings.Contains(res.Content.Head, "<script") || strings.Contains(res.Content.Body, "onclick") {
		t.Errorf("content not sanitized: %+v", res.Content)
	}
	if !strings.Contains(res.Content.Body, `href="#"`) {
		t.Errorf("javascript: URL not neutralized: %q", res.Content.Body)
	}
	if !strings.Contains(res.Content.Body, "Hello") {
		t.Errorf("body = %q", res.Content.Body)
	}
	if res.Screenshot == nil || !strings.HasPrefix(*res.Screenshot, "data:image/jpeg;base64,") {
		t.Errorf("screenshot = %v", res.Screenshot)
	}
	if len(browser.Calls) != 1 || browser.Calls[0].HTML || !browser.Calls[0].Screenshot {
		t.Errorf("browser calls = %+v, want one screenshot-only capture", browser.Calls)
	}
}

func TestScrape_JSPageUsesRenderedHTML(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{
		"https://app.test/": {Body: jsPage},
	}}
	browser := &testutil.DummyBrowser{HTML: renderedPage, Screenshot: []byte{1}}

	res, err := scraper.New(client, browser, nil).Scrape(context.Background(), "https://app.test/")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if !strings.Contains(res.Content.Body, "Rendered content") {
		t.Errorf("body = %q, want rendered HTML", res.Content.Body)
	}
	if len(browser.Calls) != 1 || !browser.Calls[0].HTML {
		t.Errorf("browser calls = %+v, want one HTML capture", browser.Calls)
	}
}

func TestScrape_ScreenshotFailureTolerated(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{
		"https://static.test/": {Body: staticPage},
	}}
	browser := &testutil.DummyBrowser{Err: errors.New("chrome not found")}
	logger := &testutil.DummyLogger{}

	res, err := scraper.New(client, browser, logger).Scrape(context.Background(), "https://static.test/")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if res.Screenshot != nil {
		t.Errorf("screenshot = %v, want nil", res.Screenshot)
	}
	if logger.WarnCount() == 0 {
		t.Error("expected a warning for the failed screenshot")
	}
}

func TestScrape_RenderFailureIsFatal(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{
		"https://app.test/": {Body: jsPage},
	}}
	browser := &testutil.DummyBrowser{Err: errors.New("navigation timeout")}

	_, err := scraper.New(client, browser, nil).Scrape(context.Background(), "https://app.test/")
	if apperr.KindOf(err) != apperr.KindRender {
		t.Fatalf("kind = %v, want render (err=%v)", apperr.KindOf(err), err)
	}
}

func TestScrape_Errors(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyWebClient{
		Pages:    map[string]testutil.DummyPage{"https://gone.test/": {Status: 404, Body: "nope"}},
		FailURLs: map[string]bool{"https://down.test/": true},
	}
	browser := &testutil.DummyBrowser{}
	s := scraper.New(client, browser, nil)

	if _, err := s.Scrape(context.Background(), ""); apperr.KindOf(err) != apperr.KindScrape {
		t.Errorf("empty url kind = %v", apperr.KindOf(err))
	}

	_, err := s.Scrape(context.Background(), "https://gone.test/")
	if apperr.KindOf(err) != apperr.KindFetch {
		t.Errorf("404 kind = %v", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "404 Not Found") {
		t.Errorf("404 message = %q", err.Error())
	}

	if _, err := s.Scrape(context.Background(), "https://down.test/"); apperr.KindOf(err) != apperr.KindFetch {
		t.Errorf("network error kind = %v", apperr.KindOf(err))
	}
	if browser.CallCount() != 0 {
		t.Errorf("browser used %d times after fetch failures", browser.CallCount())
	}
}
