package webclient

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// RodBrowser captures pages with go-rod, launching a dedicated browser per call.
type RodBrowser struct {
	cfg    BrowserConfig
	logger logging.Logger
}

func NewRodBrowser(cfg BrowserConfig, logger logging.Logger) (*RodBrowser, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RodBrowser{
		cfg:    cfg.withDefaults(),
		logger: logger.With(logging.Field{Key: "backend", Value: "rod"}),
	}, nil
}

func (b *RodBrowser) Capture(ctx context.Context, url string, opts CaptureOptions) (*Capture, error) {
	l := launcher.New().Context(ctx).Headless(b.cfg.Headless)
	if b.cfg.NoSandbox {
		l = l.Set("no-sandbox")
	}
	if b.cfg.ExecPath != "" {
		l = l.Bin(b.cfg.ExecPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	page = page.Timeout(b.cfg.NavigationTimeout)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}); err != nil {
		return nil, fmt.Errorf("set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	waitIdle := page.WaitRequestIdle(b.cfg.IdleAfter, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	waitIdle()
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	out := &Capture{URL: url}
	if info, err := page.Info(); err == nil && info.URL != "" {
		out.URL = info.URL
	}
	if opts.HTML {
		html, err := page.HTML()
		if err != nil {
			return nil, fmt.Errorf("read html: %w", err)
		}
		out.HTML = html
	}
	if opts.Screenshot {
		quality := b.cfg.ScreenshotQuality
		shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: &quality,
		})
		if err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
		out.Screenshot = shot
	}

	b.logger.Debug("browser capture finished",
		logging.Field{Key: "url", Value: out.URL},
		logging.Field{Key: "html_bytes", Value: len(out.HTML)},
		logging.Field{Key: "screenshot_bytes", Value: len(out.Screenshot)})
	return out, nil
}
