package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// LimitMessage is shown to callers when the model provider rejects a request
// for quota or rate-limit reasons.
const LimitMessage = "AI generation limits have been reached for now. Please try again later."

var quotaMarkers = []string{
	"resource_exhausted",
	"resource exhausted",
	"quota exceeded",
	"exceeded your current quota",
	"rate limit exceeded",
	"too many requests",
}

// IsQuotaError reports whether err is an upstream quota or rate-limit error.
// It recognises genai API errors, errors exposing StatusCode() or
// HTTPStatusCode(), status text in the message, and JSON error bodies embedded
// in the message in any of the usual nestings ({"error":{"code":429}},
// {"response":{"data":{"error":{...}}}}, {"status":"RESOURCE_EXHAUSTED"}).
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErrorIsQuota(apiErr) {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrorIsQuota(*apiErrPtr) {
		return true
	}

	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	var hsc interface{ HTTPStatusCode() int }
	if errors.As(err, &hsc) && hsc.HTTPStatusCode() == http.StatusTooManyRequests {
		return true
	}

	msg := err.Error()
	if hasQuotaMarker(msg) {
		return true
	}
	return embeddedJSONIsQuota(msg)
}

func apiErrorIsQuota(e genai.APIError) bool {
	if e.Code == http.StatusTooManyRequests || hasQuotaMarker(e.Status) || hasQuotaMarker(e.Message) {
		return true
	}
	for _, d := range e.Details {
		if valueIsQuota(d) {
			return true
		}
	}
	return false
}

func hasQuotaMarker(s string) bool {
	s = strings.ToLower(s)
	for _, m := range quotaMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// embeddedJSONIsQuota decodes every JSON object that starts inside msg and
// inspects it.
func embeddedJSONIsQuota(msg string) bool {
	for i := strings.IndexByte(msg, '{'); i >= 0; {
		dec := json.NewDecoder(strings.NewReader(msg[i:]))
		var v any
		if err := dec.Decode(&v); err == nil && valueIsQuota(v) {
			return true
		}
		next := strings.IndexByte(msg[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

var statusKeys = map[string]bool{
	"code":           true,
	"status":         true,
	"statuscode":     true,
	"httpstatuscode": true,
	"httpstatus":     true,
}

func valueIsQuota(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if statusKeys[strings.ToLower(k)] {
				switch s := val.(type) {
				case float64:
					if int(s) == http.StatusTooManyRequests {
						return true
					}
				case string:
					if s == "429" || hasQuotaMarker(s) {
						return true
					}
				}
			}
			if k == "message" {
				if s, ok := val.(string); ok && hasQuotaMarker(s) {
					return true
				}
			}
			if valueIsQuota(val) {
				return true
			}
		}
	case []any:
		for _, val := range t {
			if valueIsQuota(val) {
				return true
			}
		}
	}
	return false
}
