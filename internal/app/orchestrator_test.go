package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/testutil"
)

func newTestOrchestrator(t *testing.T, cfg ExecutionsConfig, h http.HandlerFunc) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(cfg, h, &testutil.DummyLogger{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	})
	return o
}

func waitTerminal(t *testing.T, o *Orchestrator, userID, id string) *model.Execution {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		ex, err := o.GetExecution(userID, id)
		if err != nil {
			t.Fatalf("GetExecution: %v", err)
		}
		if ex.Status.Terminal() {
			return ex
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("execution %s did not finish", id)
	return nil
}

func TestOrchestrator_SyncExecution(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		logging.FromContext(r.Context(), nil).Info("handling")
		logging.FromContext(r.Context(), nil).Error("something odd")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.Header.Get(HeaderUserID) + ":" + string(body)))
	})

	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{
		UserID: "u1",
		Path:   "meta",
		Body:   `{"targetUrl":"https://example.com"}`,
	})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if ex.Status != model.ExecutionCompleted {
		t.Fatalf("status = %s, want completed", ex.Status)
	}
	if ex.Path != "/meta" || ex.Method != http.MethodPost {
		t.Errorf("path/method = %s %s", ex.Method, ex.Path)
	}
	if ex.ResponseStatusCode != http.StatusCreated {
		t.Errorf("status code = %d", ex.ResponseStatusCode)
	}
	if ex.ResponseBody != `u1:{"targetUrl":"https://example.com"}` {
		t.Errorf("body = %q", ex.ResponseBody)
	}
	if !strings.Contains(ex.Stdout, "handling") {
		t.Errorf("stdout missing info line: %q", ex.Stdout)
	}
	if strings.Contains(ex.Stderr, "handling") || !strings.Contains(ex.Stderr, "something odd") {
		t.Errorf("stderr = %q", ex.Stderr)
	}
}

func TestOrchestrator_AsyncExecution(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1", Path: "/meta", Async: true})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if ex.Status.Terminal() {
		t.Fatalf("async execution returned terminal status %s", ex.Status)
	}

	events, cancel, err := o.Subscribe("u1", ex.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()
	close(release)

	var last model.ExecutionEvent
	for ev := range events {
		last = ev
	}
	if last.Status != model.ExecutionCompleted {
		t.Fatalf("last event = %+v, want completed", last)
	}

	got := waitTerminal(t, o, "u1", ex.ID)
	if got.ResponseBody != `{"ok":true}` || got.ResponseStatusCode != http.StatusOK {
		t.Errorf("execution = %+v", got)
	}
	if got.Duration <= 0 {
		t.Errorf("duration = %v, want > 0", got.Duration)
	}
}

func TestOrchestrator_PanicFails(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1", Async: true})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	got := waitTerminal(t, o, "u1", ex.ID)
	if got.Status != model.ExecutionFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !strings.Contains(got.Stderr, "boom") {
		t.Errorf("stderr = %q, want panic message", got.Stderr)
	}
}

func TestOrchestrator_Timeout(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{Timeout: 50 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if ex.Status != model.ExecutionFailed {
		t.Fatalf("status = %s, want failed", ex.Status)
	}
	if !strings.Contains(ex.Stderr, "timed out") {
		t.Errorf("stderr = %q", ex.Stderr)
	}
}

func TestOrchestrator_ScopedToOwner(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) {})

	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "owner"})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if _, err := o.GetExecution("intruder", ex.ID); !errors.Is(err, ErrExecutionNotFound) {
		t.Fatalf("foreign GetExecution err = %v, want ErrExecutionNotFound", err)
	}
	if _, err := o.GetExecution("owner", "missing"); !errors.Is(err, ErrExecutionNotFound) {
		t.Fatalf("unknown GetExecution err = %v, want ErrExecutionNotFound", err)
	}
}

func TestOrchestrator_RequiresUser(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := o.CreateExecution(context.Background(), ExecutionRequest{}); err == nil {
		t.Fatal("expected error without user id")
	}
}

func TestOrchestrator_SubscribeFinished(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) {})
	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}

	events, cancel, err := o.Subscribe("u1", ex.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ev, ok := <-events
	if !ok || ev.Status != model.ExecutionCompleted || ev.ExecutionID != ex.ID {
		t.Fatalf("first event = %+v (ok=%v)", ev, ok)
	}
	if _, ok := <-events; ok {
		t.Fatal("channel should be closed after terminal event")
	}
}

func TestOrchestrator_RetentionSweep(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, ExecutionsConfig{Retention: 20 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {})
	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := o.GetExecution("u1", ex.ID); errors.Is(err, ErrExecutionNotFound) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("finished execution was not swept")
}

func TestOrchestrator_SubscribeScopedToOwner(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	o := newTestOrchestrator(t, ExecutionsConfig{}, func(w http.ResponseWriter, r *http.Request) { <-release })
	defer close(release)

	ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1", Async: true})
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if _, _, err := o.Subscribe("u2", ex.ID); !errors.Is(err, ErrExecutionNotFound) {
		t.Fatalf("foreign Subscribe err = %v, want ErrExecutionNotFound", err)
	}
	if _, _, err := o.Subscribe("", ex.ID); !errors.Is(err, ErrExecutionNotFound) {
		t.Fatalf("anonymous Subscribe err = %v, want ErrExecutionNotFound", err)
	}
	_, cancel, err := o.Subscribe("u1", ex.ID)
	if err != nil {
		t.Fatalf("owner Subscribe: %v", err)
	}
	cancel()
}

func TestOrchestrator_ShutdownWaitsForAcceptedRuns(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(ExecutionsConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	}), &testutil.DummyLogger{})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []string
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1", Async: true})
			if err != nil {
				if !errors.Is(err, ErrOrchestratorClosed) {
					t.Errorf("CreateExecution: %v", err)
				}
				return
			}
			mu.Lock()
			accepted = append(accepted, ex.ID)
			mu.Unlock()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	wg.Wait()

	if _, err := o.CreateExecution(context.Background(), ExecutionRequest{UserID: "u1", Async: true}); !errors.Is(err, ErrOrchestratorClosed) {
		t.Errorf("CreateExecution after Shutdown err = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, id := range accepted {
		ex, err := o.GetExecution("u1", id)
		if err != nil {
			t.Fatalf("GetExecution: %v", err)
		}
		if !ex.Status.Terminal() {
			t.Errorf("execution %s still %s after Shutdown", id, ex.Status)
		}
	}
}
