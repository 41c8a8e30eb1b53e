package webclient

import "github.com/2002Bishwajeet/ogbanana/internal/logging"

func init() {
	RegisterDefaultBackends()
}

// RegisterDefaultBackends registers the nethttp client and the chromedp and rod
// browsers. It runs from init and may be called again to restore them.
func RegisterDefaultBackends() {
	RegisterBackend(string(ClientNetHTTP), func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	})

	RegisterBrowser(string(BrowserChromedp), func(cfg BrowserConfig, logger logging.Logger) (Browser, error) {
		return NewChromeDPBrowser(cfg, logger)
	})

	RegisterBrowser(string(BrowserRod), func(cfg BrowserConfig, logger logging.Logger) (Browser, error) {
		return NewRodBrowser(cfg, logger)
	})
}
