package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"crm-backend/internal/domain/audit"
)

// WriteJSON serializa la respuesta. Extraído a un helper común porque todos
// los módulos de handlers lo repetían.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// DomainError mapea la taxonomía compartida a status codes. Los errores no
// reconocidos son 500 con mensaje genérico: nada de internals al cliente.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, audit.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, audit.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, audit.ErrInvalidInput),
		errors.Is(err, audit.ErrBadPatch),
		errors.Is(err, audit.ErrUnknownField):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func Unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "unauthorized")
}
