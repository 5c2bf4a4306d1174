package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the remote API.
// The API reports failures as {"message": "..."}; Message carries that text
// when present.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

// NewAPIError builds an APIError from a status code and raw response body.
func NewAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}

	var payload struct {
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: status=%d: %s", e.StatusCode, e.Message)
}

// Is maps well-known status codes onto the package sentinels so callers can
// write errors.Is(err, ErrUnauthorized) without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// IsAPIStatus reports whether err carries an APIError with the given status.
func IsAPIStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if !As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == statusCode
}
