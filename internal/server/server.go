package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/2002Bishwajeet/ogbanana/internal/app"
	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/credits"
	"github.com/2002Bishwajeet/ogbanana/internal/llm"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/pipeline"
	_ "github.com/2002Bishwajeet/ogbanana/internal/server/docs" // registers swagger spec
	"github.com/2002Bishwajeet/ogbanana/internal/store"
)

const maxLoggedBody = 512

// Runner runs one generation.
type Runner interface {
	Run(ctx context.Context, inv pipeline.Invocation) (*model.GenerationResult, error)
}

// RowReader reads persisted results scoped to their owner.
type RowReader interface {
	GetRow(ctx context.Context, userID, id string) (*model.OgpRow, error)
}

// Services are the application services the HTTP surface exposes.
type Services struct {
	Pipeline Runner
	// Rows may be nil when persistence is disabled.
	Rows     RowReader
	Seeder   *credits.Seeder
	Resetter *credits.Resetter
}

// ServicesFromApp picks the services out of a built Application.
func ServicesFromApp(a *app.Application) Services {
	svc := Services{
		Pipeline: a.Pipeline,
		Seeder:   a.Seeder,
		Resetter: a.Resetter,
	}
	if a.Rows != nil {
		svc.Rows = a.Rows
	}
	return svc
}

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg          Config
	svc          Services
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a Server with its own execution Orchestrator, which
// invokes the generation function in-process.
func NewServer(cfg Config, svc Services) (*Server, error) {
	if svc.Pipeline == nil {
		return nil, errors.New("server: pipeline is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.orchestrator = app.NewOrchestrator(cfg.Executions, s.functionRouter(), logger)
	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

// functionRouter is the generation function as executions see it.
func (s *Server) functionRouter() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/ping", s.handlePing)
	r.HandleFunc("/meta", s.handleMeta)
	r.NotFound(s.handleInfo)
	r.MethodNotAllowed(s.handleInfo)
	return r
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// Function
	r.HandleFunc("/ping", s.handlePing)
	r.HandleFunc("/meta", s.handleMeta)

	// Executions
	r.Post("/executions", s.handleCreateExecution)
	r.Get("/executions/{id}", s.handleGetExecution)
	r.Get("/ws/executions/{id}", s.handleExecutionWS)

	// Rows
	r.Get("/rows/{id}", s.handleGetRow)

	// Account hooks and jobs
	r.Post("/events/users", s.handleUserEvent)
	if s.cfg.AdminToken != "" {
		r.Post("/jobs/reset-credits", s.handleResetCredits)
	}

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.NotFound(s.handleInfo)
	r.MethodNotAllowed(s.handleInfo)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+app.HeaderUserID)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	if r.Body != nil && r.Method == http.MethodPost {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.logger.Warn("http_request body too large", fields...)
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			bodyBytes = nil
		}
		logged := string(bodyBytes)
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody] + "..."
		}
		fields = append(fields, logging.Field{Key: "body", Value: logged})
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close stops the orchestrator, waiting for running executions up to ctx.
func (s *Server) Close(ctx context.Context) error {
	if s.orchestrator != nil {
		return s.orchestrator.Shutdown(ctx)
	}
	return nil
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeAppError maps err to its status code and body.
func writeAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusPaymentRequired {
		writeJSON(w, status, OutOfCreditsResponse{Error: apperr.Message(err), Credits: 0})
		return
	}
	writeError(w, status, apperr.Message(err))
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(app.HeaderUserID))
}

// --- Function handlers ---

// handlePing godoc
// @Summary Health check
// @Produce plain
// @Success 200 {string} string "Pong"
// @Router /ping [get]
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Pong")
}

// handleMeta godoc
// @Summary Generate OGP metadata and banner image
// @Accept json
// @Produce json
// @Param request body model.GenerationRequest true "Target URL and optional context"
// @Success 200 {object} model.GenerationResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 402 {object} OutOfCreditsResponse
// @Failure 405 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security AppwriteUser
// @Router /meta [post]
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST.")
		return
	}
	logger := logging.FromContext(r.Context(), s.logger)

	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized. User ID is required.")
		return
	}

	var req model.GenerationRequest
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := s.svc.Pipeline.Run(r.Context(), pipeline.Invocation{
		UserID:      user,
		ExecutionID: r.Header.Get(app.HeaderExecutionID),
		Request:     req,
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUpstreamQuota:
			logger.Error(llm.LimitMessage)
		case apperr.KindValidation, apperr.KindAuth, apperr.KindQuotaExhausted:
			logger.Warn("request rejected", logging.Err(err))
		default:
			logger.Error("error processing "+req.TargetURL, logging.Err(err))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleInfo godoc
// @Summary API description
// @Produce json
// @Success 200 {object} InfoResponse
// @Router / [get]
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message: "OGP Generator API",
		Endpoints: map[string]string{
			"/ping": "GET - Health check",
			"/meta": "POST - Generate OGP meta tags and image",
		},
	})
}

// --- Executions ---

// handleCreateExecution godoc
// @Summary Start a function execution
// @Accept json
// @Produce json
// @Param request body CreateExecutionRequest true "Execution"
// @Success 201 {object} model.Execution
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security AppwriteUser
// @Router /executions [post]
func (s *Server) handleCreateExecution(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized. User ID is required.")
		return
	}

	var body CreateExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("decoding create execution body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ex, err := s.orchestrator.CreateExecution(r.Context(), app.ExecutionRequest{
		UserID: user,
		Path:   body.Path,
		Method: body.Method,
		Body:   body.Body,
		Async:  body.Async,
	})
	if err != nil {
		s.logger.Warn("creating execution", logging.Err(err))
		writeAppError(w, err)
		return
	}
	s.logger.Info("created execution", logging.Field{Key: "execution_id", Value: ex.ID}, logging.Field{Key: "status", Value: string(ex.Status)})
	writeJSON(w, http.StatusCreated, ex)
}

// handleGetExecution godoc
// @Summary Get an execution
// @Produce json
// @Param id path string true "Execution ID"
// @Success 200 {object} model.Execution
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security AppwriteUser
// @Router /executions/{id} [get]
func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized. User ID is required.")
		return
	}
	id := chi.URLParam(r, "id")

	ex, err := s.orchestrator.GetExecution(user, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// handleExecutionWS streams status events for one execution until it
// reaches a terminal state. Browsers cannot set headers on a websocket
// handshake, so the user id may also come from the userId query parameter.
func (s *Server) handleExecutionWS(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		user = strings.TrimSpace(r.URL.Query().Get("userId"))
	}
	if user == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized. User ID is required.")
		return
	}
	id := chi.URLParam(r, "id")

	events, cancel, err := s.orchestrator.Subscribe(user, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			// Client went away; the execution keeps running.
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// --- Rows ---

// handleGetRow godoc
// @Summary Get a persisted generation result
// @Produce json
// @Param id path string true "Row or execution ID"
// @Success 200 {object} model.OgpRow
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security AppwriteUser
// @Router /rows/{id} [get]
func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized. User ID is required.")
		return
	}
	if s.svc.Rows == nil {
		writeAppError(w, store.ErrRowNotFound)
		return
	}

	row, err := s.svc.Rows.GetRow(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			s.logger.Error("reading row", logging.Err(err))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// --- Account hooks ---

// handleUserEvent godoc
// @Summary Seed default prefs for a new account
// @Accept json
// @Produce json
// @Param x-appwrite-event header string true "Event name, e.g. users.123.create"
// @Success 200 {object} credits.SeedResult
// @Failure 400 {object} HookErrorResponse
// @Failure 500 {object} HookErrorResponse
// @Router /events/users [post]
func (s *Server) handleUserEvent(w http.ResponseWriter, r *http.Request) {
	if s.svc.Seeder == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, HookErrorResponse{Message: "Invalid JSON body"})
		return
	}

	res, err := s.svc.Seeder.Handle(r.Context(), r.Header.Get(app.HeaderEvent), body)
	if err != nil {
		writeJSON(w, apperr.HTTPStatus(err), HookErrorResponse{Message: apperr.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleResetCredits godoc
// @Summary Reset every user's credits to their plan ceiling
// @Produce json
// @Success 200 {object} credits.ResetResult
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} credits.ResetResult
// @Router /jobs/reset-credits [post]
func (s *Server) handleResetCredits(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid admin token")
		return
	}
	if s.svc.Resetter == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	res, err := s.svc.Resetter.Run(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	s.logger.Info("credits reset", logging.Field{Key: "users_processed", Value: res.UsersProcessed})
	writeJSON(w, http.StatusOK, res)
}
