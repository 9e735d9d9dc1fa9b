package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/chatdesk/chatdesk/internal/chat"
	"github.com/chatdesk/chatdesk/internal/conversation"
	"github.com/chatdesk/chatdesk/internal/log"
)

// ChatHandler handles the chat endpoints.
type ChatHandler struct {
	chat   ChatService
	logger log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc ChatService, logger log.Logger) *ChatHandler {
	return &ChatHandler{chat: svc, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("POST /chat/message", h.message)
	mux.HandleFunc("GET /chat/history/{sessionId}", h.history)
}

// messageRequest is the body of POST /chat/message.
// SessionID is optional; absent or empty means "start a new session".
type messageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// messageResponse is the body of a successful POST /chat/message.
type messageResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// root answers the root path with a plain liveness line.
func (h *ChatHandler) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("chatdesk backend is running"))
}

// message handles POST /chat/message.
func (h *ChatHandler) message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	ref := chat.NewSession()
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_session_id", "sessionId must be a UUID")
			return
		}
		ref = chat.ExistingSession(id)
	}

	reply, err := h.chat.HandleMessage(r.Context(), req.Message, ref)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "message is required")
		case errors.Is(err, conversation.ErrNotFound):
			h.logger.Error("chat message failed", "error", err, "session_id", req.SessionID)
			writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "failed to process message")
		default:
			h.logger.Error("chat message failed", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "failed to process message")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, messageResponse{
		Reply:     reply.Text,
		SessionID: reply.SessionID.String(),
	})
}

// history handles GET /chat/history/{sessionId}.
// Unknown sessions return an empty array, not 404.
func (h *ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("sessionId"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_session_id", "sessionId must be a UUID")
		return
	}

	turns, err := h.chat.History(r.Context(), id)
	if err != nil {
		h.logger.Error("history lookup failed", "error", err, "session_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, turns)
}
