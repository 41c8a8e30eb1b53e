package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

// ─── Do: real HTTP round-trip via httptest ──────────────────────────────

func TestNetHTTPClient_Do_GET_ReturnsBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "hello")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "response body")
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer client.Close()

	resp, err := client.Do(context.Background(), &webclient.Request{
		Method: "GET",
		URL:    ts.URL + "/test",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "response body" {
		t.Errorf("expected 'response body', got %q", resp.Body)
	}
	if resp.Headers.Get("X-Custom") != "hello" {
		t.Errorf("expected X-Custom header 'hello', got %q", resp.Headers.Get("X-Custom"))
	}
}

func TestNetHTTPClient_Do_SendsDesktopUserAgent(t *testing.T) {
	t.Parallel()
	var ua, accept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
	}))
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
	if _, err := client.Get(context.Background(), ts.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if ua != webclient.DesktopUserAgent {
		t.Errorf("expected desktop UA, got %q", ua)
	}
	if !strings.Contains(accept, "text/html") {
		t.Errorf("expected html Accept header, got %q", accept)
	}
}

func TestNetHTTPClient_Do_ForwardsHeaders(t *testing.T) {
	t.Parallel()
	var receivedAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer client.Close()

	hdrs := http.Header{}
	hdrs.Set("Authorization", "Bearer test-token")

	_, err = client.Do(context.Background(), &webclient.Request{
		Method:  "GET",
		URL:     ts.URL,
		Headers: hdrs,
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if receivedAuth != "Bearer test-token" {
		t.Errorf("expected Authorization header forwarded, got %q", receivedAuth)
	}
}

func TestNetHTTPClient_Do_FollowsRedirects(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><body>moved</body></html>")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
	resp, err := client.Get(context.Background(), ts.URL+"/old")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.FinalURL != ts.URL+"/new" {
		t.Errorf("expected final URL %s/new, got %s", ts.URL, resp.FinalURL)
	}
	if !strings.Contains(string(resp.Body), "moved") {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestNetHTTPClient_Do_DecodesCharset(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in latin-1
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "café" {
		t.Errorf("expected utf-8 decoded body, got %q", resp.Body)
	}
}

func TestNetHTTPClient_Do_LimitsBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.WriteString(w, strings.Repeat("X", 4096))
	}))
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{MaxBodyBytes: 1024}, logging.Nop(), ts.Client())
	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("expected body capped at 1024 bytes, got %d", len(resp.Body))
	}
}

func TestNetHTTPClient_Do_PropagatesStatusCode(t *testing.T) {
	t.Parallel()
	codes := []int{200, 404, 500}

	for _, code := range codes {
		code := code
		t.Run(http.StatusText(code), func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			client, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
			if err != nil {
				t.Fatalf("NewNetHTTPClient: %v", err)
			}
			defer client.Close()

			resp, err := client.Do(context.Background(), &webclient.Request{
				Method: "GET",
				URL:    ts.URL,
			})
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if resp.StatusCode != code {
				t.Errorf("expected %d, got %d", code, resp.StatusCode)
			}
		})
	}
}

func TestNetHTTPClient_Do_NilRequest_ReturnsError(t *testing.T) {
	t.Parallel()
	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), nil)
	defer client.Close()

	_, err := client.Do(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil request")
	}
}

func TestNetHTTPClient_Do_ConnectionRefused_ReturnsError(t *testing.T) {
	t.Parallel()
	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), &http.Client{Timeout: 1 * time.Second})
	defer client.Close()

	_, err := client.Do(context.Background(), &webclient.Request{
		Method: "GET",
		URL:    "http://127.0.0.1:1", // port 1 is unlikely to be open
	})
	if err == nil {
		t.Fatal("expected error for connection refused")
	}
}

func TestNetHTTPClient_Do_ContextCanceled_ReturnsError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), ts.Client())
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := client.Do(ctx, &webclient.Request{
		Method: "GET",
		URL:    ts.URL,
	})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
