// Package apperr holds the error taxonomy shared by services and handlers
// and its mapping onto HTTP responses.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoAgentsAvailable = errors.New("no agents available")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrAuthRejected      = errors.New("unauthorized")
	ErrTooLarge          = errors.New("file too large")
)

// Status maps an error onto the HTTP status the API reports for it.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrNoAgentsAvailable),
		errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthRejected):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON shape of every error response.
type Body struct {
	Message string `json:"message"`
}

// Write sends err as a JSON error body. Internal errors are reported
// generically so driver messages never reach clients.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	msg := "internal error"
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	WriteMessage(w, status, msg)
}

// WriteMessage sends a JSON error body with an explicit status.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Message: msg})
}
