package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/chatdesk/chatdesk/internal/log"
)

// writeJSON writes a JSON response with the given status code.
// The payload is encoded into a buffer first so an encoding failure can
// still become a 500 instead of a half-written body.
func writeJSON(w http.ResponseWriter, logger log.Logger, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, logger log.Logger, status int, err string, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: err, Message: message})
}
