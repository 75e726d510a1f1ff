package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a failed Gemini API call. The status code is
// the structured classification signal: retry decisions are made on
// it, never on the error text.
type APIError struct {
	StatusCode int
	Status     string // API status name, e.g. "RESOURCE_EXHAUSTED"
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error: status code %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// RateLimited reports whether the error signals rate limiting and is
// therefore worth retrying.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// geminiErrorBody mirrors the {"error": {...}} envelope the API wraps
// failures in.
type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ParseAPIError builds an APIError from a non-200 response. A body
// that does not match the error envelope still yields a usable error
// carrying the status code.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var parsed geminiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Status = parsed.Error.Status
		apiErr.Message = parsed.Error.Message
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}
