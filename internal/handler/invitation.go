package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/middleware"
	"github.com/teamhub/collab-service/internal/service"
)

// InvitationHandler обрабатывает эндпоинты приглашений
type InvitationHandler struct {
	inviteService *service.InvitationService
}

// NewInvitationHandler создает новый InvitationHandler
func NewInvitationHandler(inviteService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		inviteService: inviteService,
	}
}

// IssueInvitationRequest представляет тело запроса на приглашение
type IssueInvitationRequest struct {
	InviteeID string `json:"invitee_id"`
	Message   string `json:"message"`
}

// InvitationResponse представляет ответ с приглашением
type InvitationResponse struct {
	Invitation *domain.Invitation `json:"invitation"`
}

// InvitationsResponse представляет ответ со списком приглашений
type InvitationsResponse struct {
	Invitations []*domain.Invitation `json:"invitations"`
}

// Issue обрабатывает POST /teams/{teamID}/invitations
func (h *InvitationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueInvitationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.InviteeID == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invitee_id is required")
		return
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	inv, err := h.inviteService.Issue(r.Context(), chi.URLParam(r, "teamID"), actorID, req.InviteeID, req.Message)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, InvitationResponse{Invitation: inv})
}

// Accept обрабатывает POST /invitations/{invitationID}/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	inv, err := h.inviteService.Accept(r.Context(), chi.URLParam(r, "invitationID"), actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, InvitationResponse{Invitation: inv})
}

// Decline обрабатывает POST /invitations/{invitationID}/decline
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	inv, err := h.inviteService.Decline(r.Context(), chi.URLParam(r, "invitationID"), actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, InvitationResponse{Invitation: inv})
}

// ListForTeam обрабатывает GET /teams/{teamID}/invitations
func (h *InvitationHandler) ListForTeam(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	invs, err := h.inviteService.ListForTeam(r.Context(), chi.URLParam(r, "teamID"), actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, InvitationsResponse{Invitations: invs})
}

// ListMine обрабатывает GET /invitations — pending-приглашения текущего
// пользователя
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	invs, err := h.inviteService.ListForInvitee(r.Context(), actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, InvitationsResponse{Invitations: invs})
}
