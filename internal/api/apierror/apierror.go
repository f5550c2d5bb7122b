// Package apierror classifies failures from the backend API into the error
// taxonomy the rest of the client acts on: network trouble (status 0),
// authentication (401), authorization (403), validation/conflict, and server
// failures. Backend-provided messages win over the static fallbacks.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified backend API failure. Status 0 means the request never
// produced an HTTP response (connectivity, DNS, timeouts).
type Error struct {
	Status  int
	Message string
	Method  string
	URL     string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: network error: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
}

// errorBody is the shape the backend uses for failure payloads.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// FromResponse builds an Error from a non-2xx response, preferring the
// backend's own message over the static fallback for the status.
func FromResponse(resp *http.Response, body []byte) *Error {
	e := &Error{
		Status:  resp.StatusCode,
		Message: FallbackMessage(resp.StatusCode),
	}
	if resp.Request != nil {
		e.Method = resp.Request.Method
		e.URL = resp.Request.URL.String()
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			e.Message = parsed.Message
		} else if parsed.Error != "" {
			e.Message = parsed.Error
		}
	}
	return e
}

// Network builds an Error for a request that never reached the backend.
func Network(req *http.Request, cause error) *Error {
	e := &Error{
		Status:  0,
		Message: "Network error - check your connection",
	}
	if cause != nil {
		e.Message = cause.Error()
	}
	if req != nil {
		e.Method = req.Method
		e.URL = req.URL.String()
	}
	return e
}

// FallbackMessage returns the user-facing message for a status when the
// backend did not provide one.
func FallbackMessage(status int) string {
	switch status {
	case 0:
		return "Network error - check your connection"
	case http.StatusBadRequest:
		return "Invalid request data"
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Conflict - resource already exists"
	}
	if status >= 500 {
		return "Server error - please try again later"
	}
	return fmt.Sprintf("HTTP %d", status)
}

// StatusOf extracts the HTTP status from a classified error. Unclassified
// errors report -1 so callers can tell them apart from network failures.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}

// IsNetwork reports whether err is a connectivity failure (status 0).
func IsNetwork(err error) bool { return StatusOf(err) == 0 }

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

// IsForbidden reports whether err is an HTTP 403.
func IsForbidden(err error) bool { return StatusOf(err) == http.StatusForbidden }

// UserMessage surfaces the human-readable message for any error coming out of
// the API layer.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "An unexpected error occurred"
}
