package webclient

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// maxIdleInflight is the number of open requests still counted as idle,
// matching the usual "networkidle2" heuristic.
const maxIdleInflight = 2

// ChromeDPBrowser captures pages with a fresh Chrome process per call.
type ChromeDPBrowser struct {
	cfg       BrowserConfig
	allocOpts []chromedp.ExecAllocatorOption
	logger    logging.Logger
}

func NewChromeDPBrowser(cfg BrowserConfig, logger logging.Logger) (*ChromeDPBrowser, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	cfg = cfg.withDefaults()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	return &ChromeDPBrowser{
		cfg:       cfg,
		allocOpts: opts,
		logger:    logger.With(logging.Field{Key: "backend", Value: "chromedp"}),
	}, nil
}

// waitNetworkIdle returns a channel that is closed once no more than
// maxIdleInflight requests have been open for idleAfter, and a func that
// (re)arms the quiet timer.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) (<-chan struct{}, func()) {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) <= maxIdleInflight {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= maxIdleInflight {
				startTimer()
			}
		}
	})

	return idleChan, startTimer
}

func (b *ChromeDPBrowser) Capture(ctx context.Context, url string, opts CaptureOptions) (*Capture, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	runCtx, cancel := context.WithTimeout(tabCtx, b.cfg.NavigationTimeout)
	defer cancel()

	b.logger.Debug("launching browser",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "html", Value: opts.HTML},
		logging.Field{Key: "screenshot", Value: opts.Screenshot})

	idle, arm := waitNetworkIdle(runCtx, b.cfg.IdleAfter)

	err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.EmulateViewport(int64(b.cfg.ViewportWidth), int64(b.cfg.ViewportHeight)),
		chromedp.Navigate(url),
	)
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	// Navigation may have finished every request before the listener saw the
	// counter drop, so arm the quiet timer once explicitly.
	arm()

	select {
	case <-idle:
	case <-runCtx.Done():
		return nil, fmt.Errorf("wait for network idle: %w", runCtx.Err())
	}

	out := &Capture{}
	actions := []chromedp.Action{chromedp.Location(&out.URL)}
	if opts.HTML {
		actions = append(actions, chromedp.OuterHTML("html", &out.HTML, chromedp.ByQuery))
	}
	if opts.Screenshot {
		actions = append(actions, chromedp.FullScreenshot(&out.Screenshot, b.cfg.ScreenshotQuality))
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}

	b.logger.Debug("browser capture finished",
		logging.Field{Key: "url", Value: out.URL},
		logging.Field{Key: "html_bytes", Value: len(out.HTML)},
		logging.Field{Key: "screenshot_bytes", Value: len(out.Screenshot)})
	return out, nil
}
