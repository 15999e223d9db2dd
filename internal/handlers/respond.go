package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/snapstream/backend/internal/logging"
)

// apiEnvelope is the uniform response shape: failed requests always carry
// success=false, the status code and a message; successful ones wrap their
// payload in data.
type apiEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, status, apiEnvelope{
		Success:    true,
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeEnvelope(ctx, w, status, apiEnvelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, envelope apiEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		logger.Error("encode response body", "status", status, "error", err)
		return
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", envelope.Message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", envelope.Message)
	}
}
