// Package respond escribe respuestas JSON con el formato de error de la API:
// {"status": <code>, "message": "...", "data": {...}}.
package respond

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error escribe el cuerpo de error; data nil se serializa como {}.
func Error(w http.ResponseWriter, status int, message string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	JSON(w, status, ErrorBody{Status: status, Message: message, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
