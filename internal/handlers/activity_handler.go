package handlers

import (
	"net/http"
	"strconv"

	"ecolearn/internal/models"
	"ecolearn/internal/service"
)

// ActivityHandler serves standalone lessons and games plus their submissions
type ActivityHandler struct {
	activityService *service.ActivityService
	progressService *service.ProgressService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *service.ActivityService, progressService *service.ProgressService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, progressService: progressService}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// ListLessons handles GET /api/lessons
func (h *ActivityHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.activityService.ListLessons(r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

// GetLesson handles GET /api/lessons/{id}
func (h *ActivityHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid lesson id", nil)
		return
	}
	lesson, err := h.activityService.GetLesson(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if lesson == nil {
		respondError(w, http.StatusNotFound, "lesson not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// CreateLesson handles POST /api/lessons (teacher only)
func (h *ActivityHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var lesson models.Lesson
	if err := decodeJSON(w, r, &lesson); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if lesson.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	created, err := h.activityService.CreateLesson(&lesson)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// StartLesson handles POST /api/lessons/{id}/start
func (h *ActivityHandler) StartLesson(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid lesson id", nil)
		return
	}

	record, err := h.progressService.StartLesson(user.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// SubmitLesson handles POST /api/lessons/{id}/submit
func (h *ActivityHandler) SubmitLesson(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid lesson id", nil)
		return
	}
	var in sectionSubmission
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	outcome, err := h.progressService.SubmitLesson(user.ID, id, in.Score, in.MaxScore, in.TimeSpent, in.Answers, in.BehavioralPatterns)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// ListGames handles GET /api/games
func (h *ActivityHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.activityService.ListGames(r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/games/{id}
func (h *ActivityHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid game id", nil)
		return
	}
	game, err := h.activityService.GetGame(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// CreateGame handles POST /api/games (teacher only)
func (h *ActivityHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var game models.Game
	if err := decodeJSON(w, r, &game); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if game.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	created, err := h.activityService.CreateGame(&game)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// SubmitGame handles POST /api/games/{id}/submit
func (h *ActivityHandler) SubmitGame(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid game id", nil)
		return
	}
	var in sectionSubmission
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	results := in.Results
	if results == nil {
		results = in.Answers
	}
	outcome, err := h.progressService.SubmitGame(user.ID, id, in.Score, in.MaxScore, in.TimeSpent, results, in.BehavioralPatterns)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
