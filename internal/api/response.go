package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nebulachat/infrastructure"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteData writes {"data": data} with the given status.
func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataEnvelope{Data: data})
}

// WriteError maps err onto a status code and writes {"error": message}.
// Errors outside the known set are logged and reported as internal.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorEnvelope{Error: message})
}

// ErrorStatus returns the HTTP status and client-facing message for err.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, infrastructure.ErrJoinFailed):
		return http.StatusForbidden, infrastructure.ErrJoinFailed.Error()
	case errors.Is(err, infrastructure.ErrForbidden):
		return http.StatusForbidden, infrastructure.ErrForbidden.Error()
	case errors.Is(err, infrastructure.ErrRoomFull):
		return http.StatusConflict, infrastructure.ErrRoomFull.Error()
	case errors.Is(err, infrastructure.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, infrastructure.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, infrastructure.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, infrastructure.ErrInvalidCredentials):
		return http.StatusUnauthorized, infrastructure.ErrInvalidCredentials.Error()
	case errors.Is(err, infrastructure.ErrTokenExpired):
		return http.StatusUnauthorized, infrastructure.ErrTokenExpired.Error()
	case errors.Is(err, infrastructure.ErrMissingToken):
		return http.StatusUnauthorized, infrastructure.ErrMissingToken.Error()
	case errors.Is(err, infrastructure.ErrInvalidToken), errors.Is(err, infrastructure.ErrUnauthorized):
		return http.StatusUnauthorized, infrastructure.ErrUnauthorized.Error()
	}
	return http.StatusInternalServerError, infrastructure.ErrInternalServer.Error()
}
