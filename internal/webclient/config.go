package webclient

import "time"

type Client string

const (
	ClientNetHTTP Client = "nethttp"
)

type BrowserBackend string

const (
	BrowserChromedp BrowserBackend = "chromedp"
	BrowserRod      BrowserBackend = "rod"
)

// DesktopUserAgent is sent on every fetch and browser session.
const DesktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// Config configures the plain HTTP client.
type Config struct {
	Client       Client        `mapstructure:"client"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// BrowserConfig configures the headless browser capturer.
type BrowserConfig struct {
	Backend  BrowserBackend `mapstructure:"backend"`
	Headless bool           `mapstructure:"headless"`
	// NoSandbox disables the Chromium sandbox. Needed when running as root in containers.
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	ExecPath          string        `mapstructure:"exec_path"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	// IdleAfter is how long the network must stay quiet before capture.
	IdleAfter         time.Duration `mapstructure:"idle_after"`
	ViewportWidth     int           `mapstructure:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height"`
	ScreenshotQuality int           `mapstructure:"screenshot_quality"`
	UserAgent         string        `mapstructure:"user_agent"`
}

func DefaultConfig() Config {
	return Config{
		Client:       ClientNetHTTP,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 5 << 20,
		UserAgent:    DesktopUserAgent,
	}
}

func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Backend:           BrowserChromedp,
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		IdleAfter:         500 * time.Millisecond,
		ViewportWidth:     1280,
		ViewportHeight:    720,
		ScreenshotQuality: 60,
		UserAgent:         DesktopUserAgent,
	}
}

func (c BrowserConfig) withDefaults() BrowserConfig {
	d := DefaultBrowserConfig()
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = d.IdleAfter
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		c.ViewportWidth, c.ViewportHeight = d.ViewportWidth, d.ViewportHeight
	}
	if c.ScreenshotQuality <= 0 || c.ScreenshotQuality > 100 {
		c.ScreenshotQuality = d.ScreenshotQuality
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
