package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ecolearn/internal/service"
)

// UserHandler serves dashboards, progress history and the leaderboard
type UserHandler struct {
	userService     *service.UserService
	progressService *service.ProgressService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, progressService *service.ProgressService) *UserHandler {
	return &UserHandler{userService: userService, progressService: progressService}
}

// Dashboard handles GET /api/dashboard
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	dashboard, err := h.userService.GetDashboard(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// AddPoints handles POST /api/users/points
func (h *UserHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		Points int64 `json:"points"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Points <= 0 {
		respondError(w, http.StatusBadRequest, "points must be positive", nil)
		return
	}

	outcome, err := h.progressService.AwardPoints(user.ID, in.Points)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// UpdateGrade handles PUT /api/users/grade
func (h *UserHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		GradeLevel int `json:"gradeLevel"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	updated, err := h.userService.UpdateGradeLevel(user.ID, in.GradeLevel)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrNotStudent) {
			respondServiceError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// MyProgress handles GET /api/progress
func (h *UserHandler) MyProgress(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	records, err := h.progressService.ListUserProgress(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// RecentProgress handles GET /api/progress/recent
func (h *UserHandler) RecentProgress(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	records, err := h.progressService.ListRecentProgress(user.ID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Stats handles GET /api/progress/stats
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	stats, err := h.progressService.Stats(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Leaderboard handles GET /api/leaderboard
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	entries, err := h.userService.Leaderboard(limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
