package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"torchserved/internal/manager"
	"torchserved/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps the manager error taxonomy onto HTTP codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case errors.Is(err, manager.ErrInvalidName):
		return http.StatusBadRequest
	case manager.IsNotFound(err):
		return http.StatusNotFound
	case manager.IsInvalidTransition(err), manager.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.Is(err, manager.ErrClosed), manager.IsModelNotReady(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
