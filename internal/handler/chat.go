package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/middleware"
	"github.com/teamhub/collab-service/internal/service"
)

// ChatHandler обрабатывает эндпоинты сообщений чата
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler создает новый ChatHandler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// MessageBodyRequest представляет тело запроса с текстом сообщения
type MessageBodyRequest struct {
	Body string `json:"body"`
}

// MessageResponse представляет ответ с сообщением
type MessageResponse struct {
	Message *domain.Message `json:"message"`
}

// MessagesResponse представляет страницу истории чата
type MessagesResponse struct {
	Messages []*domain.Message `json:"messages"`
}

// Send обрабатывает POST /teams/{teamID}/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req MessageBodyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	msg, err := h.chatService.Send(r.Context(), chi.URLParam(r, "teamID"), actorID, req.Body)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, MessageResponse{Message: msg})
}

// Edit обрабатывает PATCH /messages/{messageID}
func (h *ChatHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req MessageBodyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	msg, err := h.chatService.Edit(r.Context(), chi.URLParam(r, "messageID"), actorID, req.Body)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}

// Delete обрабатывает DELETE /messages/{messageID} — мягкое удаление
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	msg, err := h.chatService.Delete(r.Context(), chi.URLParam(r, "messageID"), actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}

// History обрабатывает GET /teams/{teamID}/messages?before=&limit=
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "before must be an RFC 3339 timestamp")
			return
		}
		before = &parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "limit must be an integer")
			return
		}
		limit = parsed
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	msgs, err := h.chatService.History(r.Context(), chi.URLParam(r, "teamID"), actorID, before, limit)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessagesResponse{Messages: msgs})
}
