// Package errors defines the JSON error envelope the control surface emits.
package errors

import (
	"encoding/json"
	"net/http"
)

// Stable error codes exposed by the HTTP surface.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeInternal         = "INTERNAL"
)

// HTTPError is the inner error object.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorResponse is the envelope for every non-2xx response.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// WriteJSON writes the envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{Error: HTTPError{Code: code, Message: message}})
}

// NotFoundHandler serves the envelope for unknown routes.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, CodeNotFound, "resource not found")
	}
}

// MethodNotAllowedHandler serves the envelope for unsupported methods.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}
