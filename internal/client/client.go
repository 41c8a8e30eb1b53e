// Package client talks to the execution API: it starts an asynchronous
// generation and polls it to completion.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 5 * time.Minute

	headerUserID = "x-appwrite-user-id"
	metaPath     = "/meta"
)

// ExecutionFailedError is returned when the remote execution failed or the
// function answered with an error status.
type ExecutionFailedError struct {
	ExecutionID string
	// StatusCode is the function's response status, zero when the
	// execution itself failed.
	StatusCode int
	Message    string
}

func (e *ExecutionFailedError) Error() string {
	return e.Message
}

func (e *ExecutionFailedError) Unwrap() error {
	return &apperr.Error{Kind: apperr.KindExecutionFailed, Op: "await execution"}
}

// ExecutionTimeoutError is returned when polling gives up. The remote
// execution keeps running.
type ExecutionTimeoutError struct {
	ExecutionID string
	Timeout     time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("execution %s timed out after %s", e.ExecutionID, e.Timeout)
}

func (e *ExecutionTimeoutError) Unwrap() error {
	return &apperr.Error{Kind: apperr.KindExecutionTimeout, Op: "await execution"}
}

// PollOptions tunes AwaitResult. Zero values take the defaults.
type PollOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	// OnStatusChange is called after every poll with the observed status.
	OnStatusChange func(model.ExecutionStatus)
}

// Client calls the execution API on behalf of one user.
type Client struct {
	baseURL string
	userID  string
	http    webclient.WebClient
	logger  logging.Logger
}

// New returns a Client for the API at baseURL.
func New(baseURL, userID string, wc webclient.WebClient, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    wc,
		logger:  logger.With(logging.Field{Key: "component", Value: "poller"}),
	}
}

type createExecutionBody struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Body   string `json:"body"`
	Async  bool   `json:"async"`
}

// StartExecution starts an asynchronous /meta execution for targetURL.
func (c *Client) StartExecution(ctx context.Context, targetURL, contextText string) (*model.Execution, error) {
	payload, err := json.Marshal(model.GenerationRequest{TargetURL: targetURL, ContextText: contextText})
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(createExecutionBody{
		Path:   metaPath,
		Method: http.MethodPost,
		Body:   string(payload),
		Async:  true,
	})
	if err != nil {
		return nil, err
	}

	var ex model.Execution
	status, err := c.doJSON(ctx, http.MethodPost, "/executions", body, &ex)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, fmt.Errorf("create execution: unexpected status %d", status)
	}
	c.logger.Info("execution started", logging.Field{Key: "execution_id", Value: ex.ID})
	return &ex, nil
}

// AwaitResult polls exec until it finishes and returns the generation
// result. The persisted row supplies meta and ogpImage when present; the
// inline response supplies creditsRemaining.
func (c *Client) AwaitResult(ctx context.Context, exec *model.Execution, opts PollOptions) (*model.GenerationResult, error) {
	if exec == nil || exec.ID == "" {
		return nil, apperr.New(apperr.KindValidation, "await execution", "execution id is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPollTimeout
	}

	pollCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		current, err := c.getExecution(pollCtx, exec.ID)
		if err != nil {
			if ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
				return nil, &ExecutionTimeoutError{ExecutionID: exec.ID, Timeout: opts.Timeout}
			}
			return nil, err
		}
		if opts.OnStatusChange != nil {
			opts.OnStatusChange(current.Status)
		}

		switch current.Status {
		case model.ExecutionFailed:
			msg := current.Stderr
			if msg == "" {
				msg = "Execution failed"
			}
			return nil, &ExecutionFailedError{ExecutionID: exec.ID, Message: msg}
		case model.ExecutionCompleted:
			return c.result(ctx, current)
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &ExecutionTimeoutError{ExecutionID: exec.ID, Timeout: opts.Timeout}
		case <-ticker.C:
		}
	}
}

// Generate starts an execution and waits for its result.
func (c *Client) Generate(ctx context.Context, targetURL, contextText string, opts PollOptions) (*model.GenerationResult, error) {
	ex, err := c.StartExecution(ctx, targetURL, contextText)
	if err != nil {
		return nil, err
	}
	return c.AwaitResult(ctx, ex, opts)
}

func (c *Client) result(ctx context.Context, ex *model.Execution) (*model.GenerationResult, error) {
	if ex.ResponseStatusCode >= http.StatusBadRequest {
		return nil, &ExecutionFailedError{
			ExecutionID: ex.ID,
			StatusCode:  ex.ResponseStatusCode,
			Message:     responseError(ex),
		}
	}

	var inline model.GenerationResult
	inlineErr := json.Unmarshal([]byte(ex.ResponseBody), &inline)

	row, err := c.getRow(ctx, ex.ID)
	if err != nil {
		c.logger.Warn("persisted result unavailable, using inline response",
			logging.Field{Key: "execution_id", Value: ex.ID}, logging.Err(err))
		if inlineErr != nil {
			return nil, fmt.Errorf("decode execution response: %w", inlineErr)
		}
		return &inline, nil
	}

	merged := inline
	if row.URL != "" {
		merged.URL = row.URL
	}
	if row.Meta != nil {
		merged.Meta = row.Meta
	}
	if row.OgpImage != nil {
		merged.OgpImage = row.OgpImage
	}
	return &merged, nil
}

// responseError pulls the "error" field out of a failed function response.
func responseError(ex *model.Execution) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(ex.ResponseBody), &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fmt.Sprintf("function returned status %d", ex.ResponseStatusCode)
}

func (c *Client) getExecution(ctx context.Context, id string) (*model.Execution, error) {
	var ex model.Execution
	status, err := c.doJSON(ctx, http.MethodGet, "/executions/"+url.PathEscape(id), nil, &ex)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get execution %s: unexpected status %d", id, status)
	}
	return &ex, nil
}

func (c *Client) getRow(ctx context.Context, executionID string) (*model.RowContent, error) {
	var row model.OgpRow
	status, err := c.doJSON(ctx, http.MethodGet, "/rows/"+url.PathEscape(executionID), nil, &row)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apperr.New(apperr.KindNotFound, "get row", fmt.Sprintf("status %d", status))
	}
	var content model.RowContent
	if err := json.Unmarshal([]byte(row.EncryptedContent), &content); err != nil {
		return nil, fmt.Errorf("decode row content: %w", err)
	}
	return &content, nil
}

// doJSON sends a request and decodes 2xx JSON bodies into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set(headerUserID, c.userID)
	if body != nil {
		headers.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, &webclient.Request{
		Method:  method,
		URL:     c.baseURL + path,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
