package webclient_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

// These tests launch a real browser and only run when OGBANANA_TEST_BROWSER is set.
func requireBrowser(t *testing.T) {
	t.Helper()
	if os.Getenv("OGBANANA_TEST_BROWSER") == "" {
		t.Skip("set OGBANANA_TEST_BROWSER=1 to run headless browser tests")
	}
}

func jsPage() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><title>t</title></head><body><div id="app"></div>
<script>document.getElementById('app').textContent = 'rendered by script';</script></body></html>`)
	}))
}

func TestBrowsers_CaptureRenderedHTMLAndScreenshot(t *testing.T) {
	requireBrowser(t)
	ts := jsPage()
	defer ts.Close()

	for _, backend := range []webclient.BrowserBackend{webclient.BrowserChromedp, webclient.BrowserRod} {
		backend := backend
		t.Run(string(backend), func(t *testing.T) {
			b, err := webclient.NewBrowser(webclient.BrowserConfig{
				Backend:   backend,
				Headless:  true,
				NoSandbox: true,
			}, logging.Nop())
			if err != nil {
				t.Fatalf("NewBrowser: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			capture, err := b.Capture(ctx, ts.URL, webclient.CaptureOptions{HTML: true, Screenshot: true})
			if err != nil {
				t.Fatalf("Capture: %v", err)
			}
			if !strings.Contains(capture.HTML, "rendered by script") {
				t.Errorf("expected rendered text in HTML, got %q", capture.HTML)
			}
			// JPEG SOI marker
			if !bytes.HasPrefix(capture.Screenshot, []byte{0xff, 0xd8}) {
				t.Errorf("expected JPEG screenshot")
			}
		})
	}
}
