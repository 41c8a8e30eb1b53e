package webclient

import "context"

// WebClient performs plain HTTP requests without rendering.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}

// Browser renders pages in a headless browser. Every Capture runs in its own
// browser process which is torn down before Capture returns.
type Browser interface {
	Capture(ctx context.Context, url string, opts CaptureOptions) (*Capture, error)
}
