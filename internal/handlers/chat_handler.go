package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/interfaces"
)

// ChatHandler serves the diet-advice conversation endpoints.
type ChatHandler struct {
	chatService interfaces.ChatService
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// SendHandler handles POST /api/chat
func (h *ChatHandler) SendHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.chatService.Send(r.Context(), req.Message)
	if err != nil {
		h.logger.Error().Err(err).Msg("Chat send failed")
		WriteError(w, http.StatusInternalServerError, "Chat send failed")
		return
	}

	WriteJSON(w, http.StatusOK, reply)
}

// HistoryHandler handles GET and DELETE on /api/chat/history
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		messages, err := h.chatService.History(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to load chat history")
			WriteError(w, http.StatusInternalServerError, "Failed to load chat history")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"count":    len(messages),
			"messages": messages,
		})

	case http.MethodDelete:
		if err := h.chatService.Clear(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Failed to clear chat history")
			WriteError(w, http.StatusInternalServerError, "Failed to clear chat history")
			return
		}
		WriteSuccess(w, "Chat history cleared")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
