package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"plotbench/internal/supervisor"
	"plotbench/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps supervisor errors onto HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case supervisor.IsModelNotFound(err):
		return http.StatusNotFound
	case supervisor.IsNoActiveServer(err):
		return http.StatusConflict
	case supervisor.IsLaunchError(err):
		return http.StatusServiceUnavailable
	case supervisor.IsStartupError(err), supervisor.IsHealthCheckFailed(err), supervisor.IsRequestError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &he):
		return he.StatusCode()
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

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
