package webclient

import (
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request *Request
	// FinalURL is the URL of the last request after redirects.
	FinalURL   string
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// CaptureOptions selects what a Browser collects from a page.
type CaptureOptions struct {
	HTML       bool
	Screenshot bool
}

// Capture is what a Browser collected. Screenshot holds JPEG bytes.
type Capture struct {
	URL        string
	HTML       string
	Screenshot []byte
}
