package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/teamhub/collab-service/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// HandleError преобразует доменные ошибки в HTTP ответы. Статус выбирается
// по категории ошибки, машиночитаемый код — по конкретной причине.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := string(domain.MapErrorToCode(err))

	switch {
	case errors.Is(err, domain.ErrValidation):
		RespondWithError(w, r, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidToken):
		RespondWithError(w, r, http.StatusUnauthorized, code, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		RespondWithError(w, r, http.StatusForbidden, code, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		RespondWithError(w, r, http.StatusNotFound, code, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvariant):
		RespondWithError(w, r, http.StatusConflict, code, err.Error())
	default:
		RespondWithError(w, r, http.StatusInternalServerError, code, "internal server error")
	}
}
