package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/chat"
	"github.com/taskpilot/taskpilot/internal/conversation"
)

// maxChatBodySize bounds chat request bodies.
const maxChatBodySize = 32 << 10

// chatHandler serves the assistant endpoints.
type chatHandler struct {
	chat   *chat.Service
	logger *slog.Logger
}

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	SequenceNumber int       `json:"sequenceNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	// Empty messages stay a valid turn: the classifier routes them to
	// the fixed off-topic reply.

	conversationID := uuid.Nil
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversationId must be a UUID")
			return
		}
		conversationID = id
	}

	resp, err := h.chat.Send(r.Context(), userID, conversationID, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "error", err, "user", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not process message")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: resp.ConversationID.String(),
		Reply:          resp.Reply,
	})
}

// messages handles GET /api/v1/conversations/{id}/messages.
func (h *chatHandler) messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation id must be a UUID")
		return
	}

	history, err := h.chat.History(r.Context(), userID, conversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation_not_found", "no such conversation")
			return
		}
		h.logger.Error("loading history", "error", err, "user", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load messages")
		return
	}

	out := make([]messageResponse, 0, len(history))
	for _, m := range history {
		out = append(out, messageResponse{
			ID:             m.ID.String(),
			Role:           m.Role,
			Content:        m.Content,
			SequenceNumber: m.SequenceNumber,
			CreatedAt:      m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out, "count": len(out)})
}
