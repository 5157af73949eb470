package handlers

import (
	"errors"
	"log"
	"net/http"

	"ecolearn/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondError writes a JSON error body, logging the underlying cause when
// one is supplied
func respondError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	writeJSON(w, status, errorResponse{Error: userMsg})
}

// respondServiceError maps known service errors to HTTP statuses; anything
// unrecognized becomes a 500 with the cause logged.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		respondError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, service.ErrDuplicateAccount),
		errors.Is(err, service.ErrUnknownClassCode),
		errors.Is(err, service.ErrQuizNotPublished),
		errors.Is(err, service.ErrNotStudent),
		errors.Is(err, service.ErrNotAStudent),
		errors.Is(err, service.ErrInvalidGradeLevel):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrNotQuizOwner),
		errors.Is(err, service.ErrNotInClass),
		errors.Is(err, service.ErrCourseLocked),
		errors.Is(err, service.ErrNotYourChild):
		respondError(w, http.StatusForbidden, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "internal server error", err)
	}
}
