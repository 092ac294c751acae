// Package api provides the HTTP client for the printstash server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
)

// APIError represents a non-2xx response from the printstash server.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d for %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("server returned %d for %s %s", e.StatusCode, e.Method, e.Path)
}

// errorBody is the server's standard error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// newAPIError builds an APIError from a response, extracting the server's
// error message when the body carries the standard envelope.
func newAPIError(resp *nethttp.Response, method, path string) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		return apiErr
	}

	var envelope errorBody
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else if msg := strings.TrimSpace(string(body)); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == nethttp.StatusNotFound
}

// IsAuthError reports whether err indicates a bad or missing API key.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == nethttp.StatusUnauthorized || apiErr.StatusCode == nethttp.StatusForbidden
}
