// Package scraper fetches a page, decides whether it needs a real browser,
// and returns its sanitized head and body plus an optional screenshot.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/extract"
	"github.com/2002Bishwajeet/ogbanana/internal/imaging"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

// Scraper combines a plain HTTP client with a headless browser.
type Scraper struct {
	client  webclient.WebClient
	browser webclient.Browser
	logger  logging.Logger
}

func New(client webclient.WebClient, browser webclient.Browser, logger logging.Logger) *Scraper {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scraper{
		client:  client,
		browser: browser,
		logger:  logger.With(logging.Field{Key: "component", Value: "scraper"}),
	}
}

// Scrape loads url. Static pages are taken from the HTTP response and the
// browser is only used for the screenshot; pages that need rendering take
// their HTML from the browser too. A screenshot failure is tolerated, a
// render failure is not.
func (s *Scraper) Scrape(ctx context.Context, url string) (*model.ScrapeResult, error) {
	const op = "scrape"
	if url == "" {
		return nil, apperr.New(apperr.KindScrape, op, "url is required")
	}

	start := time.Now()
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, apperr.Wrapf(apperr.KindFetch, op, err, "failed to fetch url")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.New(apperr.KindFetch, op,
			fmt.Sprintf("failed to fetch url: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	html := string(resp.Body)
	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = url
	}
	needsRender := extract.NeedsRender(html)

	var screenshot []byte
	if s.browser != nil {
		capture, err := s.browser.Capture(ctx, finalURL, webclient.CaptureOptions{HTML: needsRender, Screenshot: true})
		switch {
		case err != nil && needsRender:
			return nil, apperr.Wrapf(apperr.KindRender, op, err, "failed to render page")
		case err != nil:
			s.logger.Warn("screenshot failed, continuing without it",
				logging.Field{Key: "url", Value: finalURL}, logging.Err(err))
		default:
			if needsRender && capture.HTML != "" {
				html = capture.HTML
			}
			if capture.URL != "" {
				finalURL = capture.URL
			}
			screenshot = capture.Screenshot
		}
	} else if needsRender {
		return nil, apperr.New(apperr.KindRender, op, "page requires rendering but no browser is configured")
	}

	result := &model.ScrapeResult{
		URL: finalURL,
		Content: model.PageContent{
			Head: extract.Sanitize(extract.ExtractSection(html, "head")),
			Body: extract.Sanitize(extract.ExtractSection(html, "body")),
		},
	}
	if len(screenshot) > 0 {
		dataURL := imaging.EncodeDataURL("image/jpeg", screenshot)
		result.Screenshot = &dataURL
	}

	s.logger.Info("scraped page",
		logging.Field{Key: "url", Value: finalURL},
		logging.Field{Key: "rendered", Value: needsRender},
		logging.Field{Key: "screenshot", Value: result.Screenshot != nil},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	return result, nil
}
