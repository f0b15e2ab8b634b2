// Пакет errors — JSON-ответы об ошибках API.
// Тело всегда {error, details?}: error — стабильное пользовательское
// сообщение, details — сырой текст от инструмента/системы отдельным полем.
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse — тело JSON-ответа об ошибке.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteError записывает JSON-ошибку с указанным статусом.
func WriteError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details})
}

// BadRequest — 400 с пользовательским сообщением.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, "")
}

// NotFound — 404 с пользовательским сообщением.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, "")
}

// InternalError — 500 с пользовательским сообщением и деталями.
func InternalError(w http.ResponseWriter, message, details string) {
	WriteError(w, http.StatusInternalServerError, message, details)
}
