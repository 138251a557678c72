package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/middleware"
	"github.com/teamhub/collab-service/internal/service"
)

// TeamHandler обрабатывает эндпоинты команд и членства
type TeamHandler struct {
	memberService *service.MembershipService
}

// NewTeamHandler создает новый TeamHandler
func NewTeamHandler(memberService *service.MembershipService) *TeamHandler {
	return &TeamHandler{
		memberService: memberService,
	}
}

// TeamResponse представляет ответ с командой
type TeamResponse struct {
	Team *domain.Team `json:"team"`
}

// MembersResponse представляет ответ со списком участников
type MembersResponse struct {
	Members []*domain.Member `json:"members"`
}

// TeamsResponse представляет ответ со списком команд
type TeamsResponse struct {
	Teams []*domain.Team `json:"teams"`
}

// CreateTeam обрабатывает POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var spec domain.TeamSpec
	if !DecodeJSON(w, r, &spec) {
		return
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	team, err := h.memberService.CreateTeam(r.Context(), actorID, spec)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, TeamResponse{Team: team})
}

// GetTeam обрабатывает GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.memberService.GetTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}

// UpdateTeam обрабатывает PUT /teams/{teamID}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var spec domain.TeamSpec
	if !DecodeJSON(w, r, &spec) {
		return
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	team, err := h.memberService.UpdateTeam(r.Context(), chi.URLParam(r, "teamID"), actorID, spec)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}

// DeleteTeam обрабатывает DELETE /teams/{teamID}
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	if err := h.memberService.DeleteTeam(r.Context(), chi.URLParam(r, "teamID"), actorID); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers обрабатывает GET /teams/{teamID}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.ListMembers(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MembersResponse{Members: members})
}

// RemoveMember обрабатывает DELETE /teams/{teamID}/members/{userID}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	teamID := chi.URLParam(r, "teamID")
	userID := chi.URLParam(r, "userID")

	if err := h.memberService.RemoveMember(r.Context(), teamID, userID, actorID); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MyTeams обрабатывает GET /teams — команды текущего пользователя
func (h *TeamHandler) MyTeams(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	teams, err := h.memberService.ListTeamsForUser(r.Context(), actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamsResponse{Teams: teams})
}
