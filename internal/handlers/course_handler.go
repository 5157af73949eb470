package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecolearn/internal/service"
)

// CourseHandler serves the course catalog and course section submissions
type CourseHandler struct {
	courseService *service.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type sectionSubmission struct {
	Score              int64           `json:"score"`
	MaxScore           int64           `json:"maxScore"`
	TimeSpent          int64           `json:"timeSpent"`
	Answers            json.RawMessage `json:"answers"`
	Results            json.RawMessage `json:"results"`
	BehavioralPatterns json.RawMessage `json:"behavioralPatterns"`
}

// List handles GET /api/courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	gradeLevel := 0
	if raw := r.URL.Query().Get("gradeLevel"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "gradeLevel must be a number", nil)
			return
		}
		gradeLevel = parsed
	}

	courses, err := h.courseService.ListCourses(gradeLevel)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Get handles GET /api/courses/{ref} and returns the course together with
// the caller's section progress
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	detail, err := h.courseService.GetCourseForUser(r.PathValue("ref"), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if detail == nil {
		respondError(w, http.StatusNotFound, "course not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// WatchVideo handles POST /api/courses/{ref}/video
func (h *CourseHandler) WatchVideo(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		TimeSpent int64 `json:"timeSpent"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	outcome, err := h.courseService.WatchVideo(user.ID, r.PathValue("ref"), in.TimeSpent)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// SubmitExercise handles POST /api/courses/{ref}/exercises/{sectionID}
func (h *CourseHandler) SubmitExercise(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in sectionSubmission
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	outcome, err := h.courseService.SubmitExercise(
		user.ID, r.PathValue("ref"), r.PathValue("sectionID"),
		in.Score, in.MaxScore, in.TimeSpent, in.Answers, in.BehavioralPatterns,
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// SubmitGame handles POST /api/courses/{ref}/games/{sectionID}
func (h *CourseHandler) SubmitGame(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in sectionSubmission
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	results := in.Results
	if results == nil {
		results = in.Answers
	}
	outcome, err := h.courseService.SubmitGame(
		user.ID, r.PathValue("ref"), r.PathValue("sectionID"),
		in.Score, in.MaxScore, in.TimeSpent, results, in.BehavioralPatterns,
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
