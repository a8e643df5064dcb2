package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx
// responses. It mirrors the body rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
