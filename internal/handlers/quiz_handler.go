package handlers

import (
	"net/http"

	"ecolearn/internal/models"
	"ecolearn/internal/service"
)

// QuizHandler serves quiz authoring for teachers and attempts for students
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// Create handles POST /api/quizzes (teacher only)
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var quiz models.Quiz
	if err := decodeJSON(w, r, &quiz); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if quiz.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	created, err := h.quizService.CreateQuiz(user.ID, &quiz)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/quizzes/{id} (teacher only)
func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid quiz id", nil)
		return
	}
	var quiz models.Quiz
	if err := decodeJSON(w, r, &quiz); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	quiz.ID = id

	updated, err := h.quizService.UpdateQuiz(user.ID, &quiz)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Publish handles POST /api/quizzes/{id}/publish (teacher only)
func (h *QuizHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.quizService.Publish)
}

// Archive handles POST /api/quizzes/{id}/archive (teacher only)
func (h *QuizHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.quizService.Archive)
}

func (h *QuizHandler) setStatus(w http.ResponseWriter, r *http.Request, fn func(teacherID, quizID int64) error) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid quiz id", nil)
		return
	}
	if err := fn(user.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	quiz, err := h.quizService.GetQuiz(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// Delete handles DELETE /api/quizzes/{id} (teacher only)
func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid quiz id", nil)
		return
	}
	if err := h.quizService.DeleteQuiz(user.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// List handles GET /api/quizzes. Teachers see their own quizzes in every
// status; students see published quizzes for their grade.
func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user.Role == models.RoleTeacher {
		quizzes, err := h.quizService.ListForTeacher(user.ID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quizzes)
		return
	}

	quizzes, err := h.quizService.ListForStudent(int(user.GradeLevel))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

// Get handles GET /api/quizzes/{id}
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid quiz id", nil)
		return
	}
	quiz, err := h.quizService.GetQuiz(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if quiz == nil {
		respondError(w, http.StatusNotFound, "quiz not found", nil)
		return
	}
	// students may only read published quizzes
	if user.Role != models.RoleTeacher && !quiz.IsPublished() {
		respondError(w, http.StatusNotFound, "quiz not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// Submit handles POST /api/quizzes/{id}/attempts (student only)
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid quiz id", nil)
		return
	}
	var in struct {
		Answers   []service.QuizAnswer `json:"answers"`
		TimeSpent int64                `json:"timeSpent"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	attempt, err := h.quizService.SubmitAttempt(user.ID, id, in.Answers, in.TimeSpent)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

// MyAttempts handles GET /api/quizzes/attempts
func (h *QuizHandler) MyAttempts(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	attempts, err := h.quizService.ListAttempts(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// QuizAttempts handles GET /api/quizzes/{id}/attempts (teacher only)
func (h *QuizHandler) QuizAttempts(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid quiz id", nil)
		return
	}
	attempts, err := h.quizService.ListQuizAttempts(user.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}
