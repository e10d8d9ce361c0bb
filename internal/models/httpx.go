package models

import (
	"encoding/json"
	"net/http"
)

// ErrorBody — единый формат ошибки API: {error, details}.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Ack — ответ на запись/удаление.
type Ack struct {
	Message      string `json:"message"`
	AffectedRows int64  `json:"affectedRows,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, msg, details string) {
	WriteJSON(w, status, ErrorBody{Error: msg, Details: details})
}

func WriteAck(w http.ResponseWriter, status int, msg string, affected int64) {
	WriteJSON(w, status, Ack{Message: msg, AffectedRows: affected})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
