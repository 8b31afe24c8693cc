package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/akudrin/dotabet-backend/internal/apperr"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteAppError maps the error taxonomy onto HTTP statuses.
func WriteAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	msg := err.Error()
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindState:
		status = http.StatusConflict
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindProvider:
		status = http.StatusBadGateway
	case apperr.KindStorage:
		msg = "internal error" // never leak storage details
	}
	WriteError(w, status, string(kind), msg, nil)
}
