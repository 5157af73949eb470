package service

import (
	"encoding/json"
	"errors"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

var (
	// ErrQuizNotFound is returned for unknown quiz IDs
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotPublished is returned when a student submits against a draft
	ErrQuizNotPublished = errors.New("quiz is not published")
	// ErrNotQuizOwner is returned when a teacher edits someone else's quiz
	ErrNotQuizOwner = errors.New("not the quiz owner")
)

// QuizAnswer is one submitted response
type QuizAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
}

// QuizAnswerResult is the graded outcome of one question
type QuizAnswerResult struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	CorrectOption  int    `json:"correctOption"`
	Correct        bool   `json:"correct"`
	Points         int64  `json:"points"`
}

// QuizService handles quiz authoring, versioning and grading
type QuizService struct {
	quizzes *repository.QuizRepository
}

// NewQuizService creates a new quiz service
func NewQuizService(quizzes *repository.QuizRepository) *QuizService {
	return &QuizService{quizzes: quizzes}
}

// CreateQuiz stores a new draft quiz for a teacher
func (s *QuizService) CreateQuiz(teacherID int64, quiz *models.Quiz) (*models.Quiz, error) {
	quiz.TeacherID = teacherID
	quiz.Status = models.QuizDraft
	quiz.Version = 1
	if quiz.PassScore <= 0 {
		quiz.PassScore = 70
	}
	if err := s.recomputeTotal(quiz); err != nil {
		return nil, err
	}
	return s.quizzes.CreateQuiz(quiz)
}

// UpdateQuiz replaces a quiz's content. Editing a published quiz bumps its
// version so existing attempts keep pointing at the questions they answered.
func (s *QuizService) UpdateQuiz(teacherID int64, quiz *models.Quiz) (*models.Quiz, error) {
	existing, err := s.quizzes.GetQuizByID(quiz.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrQuizNotFound
	}
	if existing.TeacherID != teacherID {
		return nil, ErrNotQuizOwner
	}

	quiz.TeacherID = existing.TeacherID
	quiz.Version = existing.Version
	if quiz.Status == "" {
		quiz.Status = existing.Status
	}
	if quiz.PassScore <= 0 {
		quiz.PassScore = existing.PassScore
	}
	if err := s.recomputeTotal(quiz); err != nil {
		return nil, err
	}

	bump := existing.IsPublished() && string(quiz.Questions) != string(existing.Questions)
	if err := s.quizzes.UpdateQuiz(quiz, bump); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Publish makes a quiz available to students
func (s *QuizService) Publish(teacherID, quizID int64) error {
	return s.setStatus(teacherID, quizID, models.QuizPublished)
}

// Archive hides a quiz from students without deleting attempts
func (s *QuizService) Archive(teacherID, quizID int64) error {
	return s.setStatus(teacherID, quizID, models.QuizArchived)
}

func (s *QuizService) setStatus(teacherID, quizID int64, status string) error {
	quiz, err := s.quizzes.GetQuizByID(quizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return ErrQuizNotFound
	}
	if quiz.TeacherID != teacherID {
		return ErrNotQuizOwner
	}
	return s.quizzes.SetStatus(quizID, status)
}

// DeleteQuiz removes a quiz and its attempts
func (s *QuizService) DeleteQuiz(teacherID, quizID int64) error {
	quiz, err := s.quizzes.GetQuizByID(quizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return ErrQuizNotFound
	}
	if quiz.TeacherID != teacherID {
		return ErrNotQuizOwner
	}
	return s.quizzes.DeleteQuiz(quizID)
}

// GetQuiz loads a quiz by ID
func (s *QuizService) GetQuiz(quizID int64) (*models.Quiz, error) {
	return s.quizzes.GetQuizByID(quizID)
}

// ListForTeacher returns a teacher's quizzes
func (s *QuizService) ListForTeacher(teacherID int64) ([]models.Quiz, error) {
	quizzes, err := s.quizzes.ListByTeacher(teacherID)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	return quizzes, nil
}

// ListForStudent returns published quizzes for a grade
func (s *QuizService) ListForStudent(gradeLevel int) ([]models.Quiz, error) {
	quizzes, err := s.quizzes.ListPublished(gradeLevel)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	return quizzes, nil
}

// SubmitAttempt grades a student's answers against the current quiz version
// and records the attempt.
func (s *QuizService) SubmitAttempt(userID, quizID int64, answers []QuizAnswer, timeSpent int64) (*models.QuizAttempt, error) {
	quiz, err := s.quizzes.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	if !quiz.IsPublished() {
		return nil, ErrQuizNotPublished
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
		return nil, err
	}

	selected := make(map[string]int, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOption
	}

	var score, total int64
	results := make([]QuizAnswerResult, 0, len(questions))
	for _, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		total += points

		chosen, answered := selected[q.ID]
		if !answered {
			chosen = -1
		}
		correct := answered && chosen == q.CorrectOption
		if correct {
			score += points
		}
		results = append(results, QuizAnswerResult{
			QuestionID:     q.ID,
			SelectedOption: chosen,
			CorrectOption:  q.CorrectOption,
			Correct:        correct,
			Points:         points,
		})
	}

	result := EvaluateScore(score, total)
	status := models.AttemptFail
	if result.Percentage >= float64(quiz.PassScore) {
		status = models.AttemptPass
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}

	return s.quizzes.CreateAttempt(&models.QuizAttempt{
		UserID:      userID,
		QuizID:      quizID,
		QuizVersion: quiz.Version,
		Score:       score,
		Percentage:  result.Percentage,
		Results:     resultsJSON,
		TimeSpent:   timeSpent,
		Status:      status,
	})
}

// ListAttempts returns a student's attempts
func (s *QuizService) ListAttempts(userID int64) ([]models.QuizAttempt, error) {
	attempts, err := s.quizzes.ListAttemptsByUser(userID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}
	return attempts, nil
}

// ListQuizAttempts returns every attempt against one quiz, owner-gated
func (s *QuizService) ListQuizAttempts(teacherID, quizID int64) ([]models.QuizAttempt, error) {
	quiz, err := s.quizzes.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	if quiz.TeacherID != teacherID {
		return nil, ErrNotQuizOwner
	}
	attempts, err := s.quizzes.ListAttemptsByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}
	return attempts, nil
}

func (s *QuizService) recomputeTotal(quiz *models.Quiz) error {
	if len(quiz.Questions) == 0 {
		quiz.Questions = []byte("[]")
		quiz.TotalPoints = 0
		return nil
	}
	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
		return err
	}
	var total int64
	for _, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		total += points
	}
	quiz.TotalPoints = total
	return nil
}
