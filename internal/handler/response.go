package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// RespondWithJSON отправляет JSON ответ с указанным статус кодом
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	render.Status(r, statusCode)
	render.JSON(w, r, data)
}

// DecodeJSON читает тело запроса в dst; при ошибке сам пишет 400 и
// возвращает false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return false
	}
	return true
}
