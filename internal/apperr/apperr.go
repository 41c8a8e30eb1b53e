// Package apperr defines the error taxonomy shared by the generation
// pipeline, the execution service and the HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindQuotaExhausted
	KindUpstreamQuota
	KindScrape
	KindFetch
	KindRender
	KindLLMResponse
	KindMetadataParse
	KindImageGeneration
	KindPersistence
	KindExecutionTimeout
	KindExecutionFailed
	KindInvalidImageData
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindValidation:       "validation",
	KindAuth:             "auth",
	KindQuotaExhausted:   "quota_exhausted",
	KindUpstreamQuota:    "upstream_quota",
	KindScrape:           "scrape",
	KindFetch:            "fetch",
	KindRender:           "render",
	KindLLMResponse:      "llm_response",
	KindMetadataParse:    "metadata_parse",
	KindImageGeneration:  "image_generation",
	KindPersistence:      "persistence",
	KindExecutionTimeout: "execution_timeout",
	KindExecutionFailed:  "execution_failed",
	KindInvalidImageData: "invalid_image_data",
	KindNotFound:         "not_found",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified error. Msg is safe to show to callers; Err is the
// underlying cause and is reachable through errors.Unwrap.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on Kind when target is an *Error with no Op, Msg or Err,
// so errors.Is(err, apperr.ErrValidation) works across wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrAuth             = &Error{Kind: KindAuth}
	ErrQuotaExhausted   = &Error{Kind: KindQuotaExhausted}
	ErrUpstreamQuota    = &Error{Kind: KindUpstreamQuota}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidImageData = &Error{Kind: KindInvalidImageData}
)

// New returns an Error of kind k.
func New(k Kind, op, msg string) *Error {
	return &Error{Kind: k, Op: op, Msg: msg}
}

// Wrap returns an Error of kind k around err. A nil err yields nil.
func Wrap(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Op: op, Err: err}
}

// Wrapf is Wrap with a caller-facing message.
func Wrapf(k Kind, op string, err error, format string, args ...any) error {
	return &Error{Kind: k, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-facing text of err: the Msg of the first
// *Error that carries one, else err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if e, ok := cur.(*Error); ok && e.Msg != "" {
			return e.Msg
		}
	}
	return err.Error()
}

// HTTPStatus maps err onto the status code the HTTP surface returns.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindQuotaExhausted:
		return http.StatusPaymentRequired
	case KindUpstreamQuota:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
