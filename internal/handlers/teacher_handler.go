package handlers

import (
	"net/http"
	"strconv"

	"ecolearn/internal/models"
	"ecolearn/internal/service"
)

// TeacherHandler serves class management endpoints for teacher accounts
type TeacherHandler struct {
	teacherService *service.TeacherService
}

// NewTeacherHandler creates a new teacher handler
func NewTeacherHandler(teacherService *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherService: teacherService}
}

// ClassCode handles GET /api/teacher/class-code, generating a code on
// first request
func (h *TeacherHandler) ClassCode(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	code, err := h.teacherService.EnsureClassCode(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"classCode": code})
}

// Roster handles GET /api/teacher/students
func (h *TeacherHandler) Roster(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	students, err := h.teacherService.Roster(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// AddStudent handles POST /api/teacher/students
func (h *TeacherHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		Identifier string `json:"identifier"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Identifier == "" {
		respondError(w, http.StatusBadRequest, "identifier is required", nil)
		return
	}

	student, err := h.teacherService.AddStudent(user.ID, in.Identifier)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

// RemoveStudent handles DELETE /api/teacher/students/{id}
func (h *TeacherHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	if err := h.teacherService.RemoveStudent(user.ID, studentID); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// SendFeedback handles POST /api/teacher/feedback. An empty studentIds
// list broadcasts to the whole class.
func (h *TeacherHandler) SendFeedback(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		StudentIDs []int64 `json:"studentIds"`
		Message    string  `json:"message"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required", nil)
		return
	}

	notified, err := h.teacherService.SendClassFeedback(user.ID, in.StudentIDs, in.Message)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"notified": notified})
}

// Overview handles GET /api/teacher/overview
func (h *TeacherHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	overview, err := h.teacherService.ClassOverview(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// StudentProgress handles GET /api/teacher/students/{id}/progress
func (h *TeacherHandler) StudentProgress(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	records, err := h.teacherService.StudentProgress(user.ID, studentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// StudentProfile handles GET /api/teacher/students/{id}/profile
func (h *TeacherHandler) StudentProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	profile, err := h.teacherService.StudentFullProfile(user.ID, studentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AddNote handles POST /api/teacher/students/{id}/notes
func (h *TeacherHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	var in struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	note, err := h.teacherService.AddStudentNote(user.ID, studentID, in.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// RemoveBadge handles DELETE /api/teacher/students/{id}/badges/{badge}
func (h *TeacherHandler) RemoveBadge(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	badge := r.PathValue("badge")
	if badge == "" {
		respondError(w, http.StatusBadRequest, "badge name is required", nil)
		return
	}
	if err := h.teacherService.RemoveStudentBadge(user.ID, studentID, badge); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ToggleCourseAccess handles POST /api/teacher/students/{id}/course-access
func (h *TeacherHandler) ToggleCourseAccess(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	var in struct {
		CourseID int64 `json:"courseId"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.CourseID <= 0 {
		respondError(w, http.StatusBadRequest, "courseId is required", nil)
		return
	}

	locked, err := h.teacherService.ToggleCourseAccess(user.ID, studentID, in.CourseID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isLocked": locked})
}

// ReassignQuiz handles POST /api/teacher/students/{id}/reassign-quiz
func (h *TeacherHandler) ReassignQuiz(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	var in struct {
		QuizID int64 `json:"quizId"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.QuizID <= 0 {
		respondError(w, http.StatusBadRequest, "quizId is required", nil)
		return
	}

	if err := h.teacherService.ReassignQuiz(user.ID, studentID, in.QuizID); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ResetStudent handles POST /api/teacher/students/{id}/reset
func (h *TeacherHandler) ResetStudent(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	studentID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	if err := h.teacherService.ResetStudent(user.ID, studentID); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// GiveFeedback handles POST /api/teacher/progress/{id}/feedback
func (h *TeacherHandler) GiveFeedback(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	progressID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid progress id", nil)
		return
	}
	var in struct {
		Feedback string `json:"feedback"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Feedback == "" {
		respondError(w, http.StatusBadRequest, "feedback is required", nil)
		return
	}

	if err := h.teacherService.GiveFeedback(user.ID, progressID, in.Feedback); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Assign handles POST /api/teacher/assignments
func (h *TeacherHandler) Assign(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var assignment models.Assignment
	if err := decodeJSON(w, r, &assignment); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	created, err := h.teacherService.Assign(user.ID, &assignment)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Assignments handles GET /api/teacher/assignments
func (h *TeacherHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	assignments, err := h.teacherService.Assignments(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// MyAssignments handles GET /api/assignments for the student's own list
func (h *TeacherHandler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	assignments, err := h.teacherService.StudentAssignments(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// SendMessage handles POST /api/messages
func (h *TeacherHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		ReceiverID int64  `json:"receiverId"`
		Content    string `json:"content"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.ReceiverID <= 0 || in.Content == "" {
		respondError(w, http.StatusBadRequest, "receiverId and content are required", nil)
		return
	}

	message, err := h.teacherService.SendMessage(user.ID, in.ReceiverID, in.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

// Conversation handles GET /api/messages/{userID}
func (h *TeacherHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	otherID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	messages, err := h.teacherService.Conversation(user.ID, otherID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
