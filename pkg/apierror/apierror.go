package apierror

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// NotFound reports a missing entry. Details carry the workspace-relative
// path only, never a resolved absolute path.
func NotFound(message string, relPath string) *APIError {
	return New("NOT_FOUND", message, relPath, http.StatusNotFound)
}

func InvalidPath(message string, relPath string) *APIError {
	return New("INVALID_PATH", message, relPath, http.StatusBadRequest)
}

func AlreadyExists(message string, details string) *APIError {
	return New("ALREADY_EXISTS", message, details, http.StatusConflict)
}
