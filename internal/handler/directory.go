package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/middleware"
	"github.com/teamhub/collab-service/internal/service"
)

// DirectoryHandler обрабатывает поиск по каталогу специалистов
type DirectoryHandler struct {
	directoryService *service.DirectoryService
}

// NewDirectoryHandler создает новый DirectoryHandler
func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
	}
}

// DirectoryResponse представляет ответ с кандидатами для приглашения
type DirectoryResponse struct {
	Profiles []*domain.Profile `json:"profiles"`
}

// Search обрабатывает GET /teams/{teamID}/directory?text=&skill=&location=
func (h *DirectoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	filters := domain.DirectoryFilters{
		Text:     r.URL.Query().Get("text"),
		Skill:    r.URL.Query().Get("skill"),
		Location: r.URL.Query().Get("location"),
	}

	actorID := middleware.GetUserIDFromContext(r.Context())
	profiles, err := h.directoryService.FindInvitable(r.Context(), chi.URLParam(r, "teamID"), actorID, filters)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, DirectoryResponse{Profiles: profiles})
}
