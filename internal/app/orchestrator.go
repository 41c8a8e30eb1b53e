package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// Header names used when the orchestrator invokes the function.
const (
	HeaderUserID      = "x-appwrite-user-id"
	HeaderExecutionID = "x-appwrite-execution-id"
	HeaderEvent       = "x-appwrite-event"
)

// ErrExecutionNotFound is returned for unknown, expired or foreign executions.
var ErrExecutionNotFound = &apperr.Error{Kind: apperr.KindNotFound, Op: "get execution", Msg: "execution not found"}

// ErrOrchestratorClosed is returned by CreateExecution after Shutdown.
var ErrOrchestratorClosed = &apperr.Error{Kind: apperr.KindInternal, Op: "create execution", Msg: "orchestrator is shut down"}

// ExecutionRequest describes one function call.
type ExecutionRequest struct {
	UserID string
	Path   string
	Method string
	Body   string
	// Async returns immediately with a waiting execution; otherwise
	// CreateExecution blocks until the function finishes.
	Async bool
}

type execution struct {
	snap        model.Execution
	subscribers []chan model.ExecutionEvent
	finishedAt  time.Time
}

// Orchestrator runs the generation function asynchronously and keeps
// execution snapshots in memory for ExecutionsConfig.Retention.
type Orchestrator struct {
	cfg     ExecutionsConfig
	handler http.Handler
	logger  logging.Logger

	mu         sync.Mutex
	executions map[string]*execution

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator starts the retention sweeper. handler is the function that
// executions invoke. Call Shutdown to stop it.
func NewOrchestrator(cfg ExecutionsConfig, handler http.Handler, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	d := DefaultConfig().Executions
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = d.Retention
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = d.EventBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:        cfg,
		handler:    handler,
		logger:     logger.With(logging.Field{Key: "component", Value: "executions"}),
		executions: make(map[string]*execution),
		ctx:        ctx,
		cancel:     cancel,
	}

	o.wg.Add(1)
	go o.sweepLoop()
	return o
}

// CreateExecution registers a new execution and runs it.
func (o *Orchestrator) CreateExecution(ctx context.Context, req ExecutionRequest) (*model.Execution, error) {
	if req.UserID == "" {
		return nil, apperr.New(apperr.KindAuth, "create execution", "Unauthorized. User ID is required.")
	}
	if req.Path == "" {
		req.Path = "/"
	}
	if !strings.HasPrefix(req.Path, "/") {
		req.Path = "/" + req.Path
	}
	if req.Method == "" {
		req.Method = http.MethodPost
	}
	req.Method = strings.ToUpper(req.Method)

	now := time.Now().UTC()
	ex := &execution{snap: model.Execution{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Path:      req.Path,
		Method:    req.Method,
		Async:     req.Async,
		Status:    model.ExecutionWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	// wg.Add under mu pairs with the cancel in Shutdown.
	o.mu.Lock()
	if o.ctx.Err() != nil {
		o.mu.Unlock()
		return nil, ErrOrchestratorClosed
	}
	o.executions[ex.snap.ID] = ex
	if req.Async {
		o.wg.Add(1)
	}
	o.mu.Unlock()

	o.logger.Info("execution created",
		logging.Field{Key: "execution_id", Value: ex.snap.ID},
		logging.Field{Key: "path", Value: req.Path},
		logging.Field{Key: "async", Value: req.Async})

	if !req.Async {
		o.run(ctx, ex.snap.ID, req)
		return o.GetExecution(req.UserID, ex.snap.ID)
	}

	snap := ex.snap
	go func() {
		defer o.wg.Done()
		// Detached from the caller: abandoning the request never cancels the run.
		o.run(o.ctx, snap.ID, req)
	}()
	return &snap, nil
}

// GetExecution returns a snapshot of an execution owned by userID.
func (o *Orchestrator) GetExecution(userID, id string) (*model.Execution, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ex, ok := o.executions[id]
	if !ok || ex.snap.UserID != userID {
		return nil, ErrExecutionNotFound
	}
	snap := ex.snap
	return &snap, nil
}

// Subscribe returns a channel that receives the current status of an
// execution owned by userID followed by every later change; it is closed
// after the terminal event or when cancel is called.
func (o *Orchestrator) Subscribe(userID, id string) (<-chan model.ExecutionEvent, func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ex, ok := o.executions[id]
	if !ok || ex.snap.UserID != userID {
		return nil, nil, ErrExecutionNotFound
	}

	ch := make(chan model.ExecutionEvent, o.cfg.EventBuffer)
	ch <- eventFor(&ex.snap)
	if ex.snap.Status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}
	ex.subscribers = append(ex.subscribers, ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, sub := range ex.subscribers {
				if sub == ch {
					ex.subscribers = append(ex.subscribers[:i], ex.subscribers[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
	return ch, cancel, nil
}

// Shutdown stops the sweeper and waits for running executions, up to ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.cancel()
	o.mu.Unlock()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context, id string, req ExecutionRequest) {
	start := time.Now()
	o.transition(id, func(s *model.Execution) { s.Status = model.ExecutionProcessing })

	var stdout, stderr bytes.Buffer
	execLogger := logging.Tee(
		o.logger.With(logging.Field{Key: "execution_id", Value: id}),
		logging.NewLogger(&stdout, "function", logging.LevelInfo),
		logging.NewLogger(&stderr, "function", logging.LevelError),
	)

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	rec := newResponseRecorder()
	failure := o.invoke(runCtx, id, req, rec, execLogger)
	if failure == "" && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		failure = fmt.Sprintf("execution timed out after %s", o.cfg.Timeout)
	}

	o.transition(id, func(s *model.Execution) {
		s.Duration = time.Since(start).Seconds()
		s.ResponseStatusCode = rec.status()
		s.ResponseBody = rec.body.String()
		s.Stdout = stdout.String()
		s.Stderr = stderr.String()
		if failure != "" {
			s.Status = model.ExecutionFailed
			if s.Stderr != "" && !strings.HasSuffix(s.Stderr, "\n") {
				s.Stderr += "\n"
			}
			s.Stderr += failure
			return
		}
		s.Status = model.ExecutionCompleted
	})

	o.logger.Info("execution finished",
		logging.Field{Key: "execution_id", Value: id},
		logging.Field{Key: "status_code", Value: rec.status()},
		logging.Field{Key: "failed", Value: failure != ""},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
}

// invoke calls the function handler and returns a failure message when it
// panics.
func (o *Orchestrator) invoke(ctx context.Context, id string, req ExecutionRequest, rec *responseRecorder, logger logging.Logger) (failure string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("function panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			o.logger.Debug("panic stack", logging.Field{Key: "stack", Value: string(debug.Stack())})
			failure = fmt.Sprintf("function panicked: %v", r)
		}
	}()

	httpReq, err := http.NewRequestWithContext(logging.NewContext(ctx, logger), req.Method, req.Path, strings.NewReader(req.Body))
	if err != nil {
		return fmt.Sprintf("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderUserID, req.UserID)
	httpReq.Header.Set(HeaderExecutionID, id)
	httpReq.RemoteAddr = "executions"

	o.handler.ServeHTTP(rec, httpReq)
	return ""
}

func (o *Orchestrator) transition(id string, mutate func(*model.Execution)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ex, ok := o.executions[id]
	if !ok {
		return
	}
	mutate(&ex.snap)
	ex.snap.UpdatedAt = time.Now().UTC()

	ev := eventFor(&ex.snap)
	for _, sub := range ex.subscribers {
		// Non-blocking send; drop if buffer is full.
		select {
		case sub <- ev:
		default:
		}
	}
	if ex.snap.Status.Terminal() {
		ex.finishedAt = ex.snap.UpdatedAt
		for _, sub := range ex.subscribers {
			close(sub)
		}
		ex.subscribers = nil
	}
}

func (o *Orchestrator) sweepLoop() {
	defer o.wg.Done()
	interval := o.cfg.Retention / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-o.ctx.Done():
			return
		case now := <-ticker.C:
			o.sweep(now)
		}
	}
}

func (o *Orchestrator) sweep(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, ex := range o.executions {
		if !ex.finishedAt.IsZero() && now.Sub(ex.finishedAt) > o.cfg.Retention {
			delete(o.executions, id)
		}
	}
}

func eventFor(s *model.Execution) model.ExecutionEvent {
	ev := model.ExecutionEvent{ExecutionID: s.ID, Status: s.Status}
	if s.Status == model.ExecutionFailed {
		ev.Error = s.Stderr
	}
	return ev
}

// responseRecorder captures what the function writes.
type responseRecorder struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header)}
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.body.Write(p)
}

func (r *responseRecorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}
