package model

// GenerationRequest is the body accepted by the /meta function.
type GenerationRequest struct {
	TargetURL   string `json:"targetUrl"`
	ContextText string `json:"contextText,omitempty"`
}

// PageContent holds sanitized HTML fragments of a scraped page.
type PageContent struct {
	Head string `json:"head"`
	Body string `json:"body"`
}

// ScrapeResult is produced once per request by the scraper.
type ScrapeResult struct {
	// URL is the final, post-redirect URL.
	URL     string      `json:"url"`
	Content PageContent `json:"content"`
	// Screenshot is a JPEG data URL, nil when no screenshot was captured.
	Screenshot *string `json:"screenshot"`
}

// Metadata is the structured SEO/social object returned by the language
// model. Known top-level sections are standard, social, assets and audit.
type Metadata map[string]any

// GenerationResult is the response of a successful pipeline run.
type GenerationResult struct {
	URL              string   `json:"url"`
	Meta             Metadata `json:"meta"`
	OgpImage         *string  `json:"ogpImage"`
	CreditsRemaining int      `json:"creditsRemaining"`
}
