package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"modelhub/internal/manager"
	"modelhub/pkg/types"
)

// statusFor maps manager and downloader errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case manager.IsModelNotFound(err):
		return http.StatusNotFound
	case manager.IsNotLoaded(err):
		return http.StatusConflict
	case manager.IsInsufficientMemory(err), manager.IsGPURequired(err), errors.Is(err, manager.ErrClosed):
		return http.StatusServiceUnavailable
	case manager.IsConfigError(err):
		return http.StatusBadRequest
	case manager.IsDownloadFailed(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes a JSON error payload.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		countRejection(rejectionReason(err))
	}
	ev := zlog.Info()
	if status >= 500 {
		ev = zlog.Error()
	}
	ev.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	writeJSONError(w, status, err.Error())
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
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}

func rejectionReason(err error) string {
	switch {
	case manager.IsInsufficientMemory(err):
		return "insufficient_memory"
	case manager.IsGPURequired(err):
		return "gpu_required"
	case errors.Is(err, manager.ErrClosed):
		return "closed"
	default:
		return ""
	}
}
