package server

// CreateExecutionRequest starts a function execution.
type CreateExecutionRequest struct {
	Path   string `json:"path" example:"/meta"`
	Method string `json:"method" example:"POST"`
	// Body is passed to the function verbatim.
	Body  string `json:"body" example:"{\"targetUrl\":\"https://example.com\"}"`
	Async bool   `json:"async" example:"true"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"Missing \"targetUrl\" field"`
}

// OutOfCreditsResponse is returned with 402.
type OutOfCreditsResponse struct {
	Error   string `json:"error" example:"You are out of credits. Please purchase more to continue."`
	Credits int    `json:"credits" example:"0"`
}

// HookErrorResponse is returned by the account hooks on failure.
type HookErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Missing event header"`
}

// InfoResponse is served on unknown function paths.
type InfoResponse struct {
	Message   string            `json:"message" example:"OGP Generator API"`
	Endpoints map[string]string `json:"endpoints"`
}
