package repository

import (
	"database/sql"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// QuizRepository handles database operations for quizzes and attempts
type QuizRepository struct {
	db database.DBTX
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db database.DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *QuizRepository) WithTx(tx database.DBTX) *QuizRepository {
	return &QuizRepository{db: tx}
}

const quizColumns = `id, title, description, grade_level, course_key, total_points, time_limit,
	pass_score, status, version, questions, teacher_id, created_at, updated_at`

func scanQuiz(row interface{ Scan(...interface{}) error }) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	var questions string
	err := row.Scan(
		&quiz.ID,
		&quiz.Title,
		&quiz.Description,
		&quiz.GradeLevel,
		&quiz.CourseKey,
		&quiz.TotalPoints,
		&quiz.TimeLimit,
		&quiz.PassScore,
		&quiz.Status,
		&quiz.Version,
		&questions,
		&quiz.TeacherID,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	quiz.Questions = []byte(questions)
	return quiz, nil
}

// CreateQuiz inserts a quiz in draft status at version 1
func (r *QuizRepository) CreateQuiz(quiz *models.Quiz) (*models.Quiz, error) {
	questions := string(quiz.Questions)
	if questions == "" {
		questions = "[]"
	}
	query := `
		INSERT INTO quizzes (title, description, grade_level, course_key, total_points,
			time_limit, pass_score, status, version, questions, teacher_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		quiz.Title, quiz.Description, quiz.GradeLevel, quiz.CourseKey,
		quiz.TotalPoints, quiz.TimeLimit, quiz.PassScore, quiz.Status,
		quiz.Version, questions, quiz.TeacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	created := *quiz
	created.ID = id
	return &created, nil
}

// GetQuizByID retrieves a quiz
func (r *QuizRepository) GetQuizByID(quizID int64) (*models.Quiz, error) {
	query := "SELECT " + quizColumns + " FROM quizzes WHERE id = ?"
	quiz, err := scanQuiz(r.db.QueryRow(query, quizID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// ListByTeacher returns all quizzes a teacher authored
func (r *QuizRepository) ListByTeacher(teacherID int64) ([]models.Quiz, error) {
	query := "SELECT " + quizColumns + " FROM quizzes WHERE teacher_id = ? ORDER BY updated_at DESC"
	return r.queryQuizzes(query, teacherID)
}

// ListPublished returns published quizzes, optionally filtered by grade
func (r *QuizRepository) ListPublished(gradeLevel int) ([]models.Quiz, error) {
	query := "SELECT " + quizColumns + " FROM quizzes WHERE status = 'published'"
	args := []interface{}{}
	if gradeLevel > 0 {
		query += " AND grade_level = ?"
		args = append(args, gradeLevel)
	}
	query += " ORDER BY created_at DESC"
	return r.queryQuizzes(query, args...)
}

// UpdateQuiz replaces a quiz's fields. Editing a published quiz bumps the
// version so old attempts stay attributable to the questions they answered.
func (r *QuizRepository) UpdateQuiz(quiz *models.Quiz, bumpVersion bool) error {
	questions := string(quiz.Questions)
	if questions == "" {
		questions = "[]"
	}
	version := quiz.Version
	if bumpVersion {
		version++
	}
	query := `
		UPDATE quizzes
		SET title = ?, description = ?, grade_level = ?, course_key = ?, total_points = ?,
			time_limit = ?, pass_score = ?, status = ?, version = ?, questions = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query,
		quiz.Title, quiz.Description, quiz.GradeLevel, quiz.CourseKey,
		quiz.TotalPoints, quiz.TimeLimit, quiz.PassScore, quiz.Status,
		version, questions, quiz.ID,
	); err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	quiz.Version = version
	return nil
}

// SetStatus moves a quiz between draft, published and archived
func (r *QuizRepository) SetStatus(quizID int64, status string) error {
	query := "UPDATE quizzes SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, status, quizID); err != nil {
		return fmt.Errorf("failed to set quiz status: %w", err)
	}
	return nil
}

// DeleteQuiz removes a quiz and, via cascade, its attempts
func (r *QuizRepository) DeleteQuiz(quizID int64) error {
	if _, err := r.db.Exec("DELETE FROM quizzes WHERE id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

const attemptColumns = `id, user_id, quiz_id, quiz_version, score, percentage, results,
	time_spent, status, attempted_at`

func scanAttempt(row interface{ Scan(...interface{}) error }) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	var results string
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.QuizID,
		&a.QuizVersion,
		&a.Score,
		&a.Percentage,
		&results,
		&a.TimeSpent,
		&a.Status,
		&a.AttemptedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Results = []byte(results)
	return a, nil
}

// CreateAttempt records one quiz submission
func (r *QuizRepository) CreateAttempt(a *models.QuizAttempt) (*models.QuizAttempt, error) {
	results := string(a.Results)
	if results == "" {
		results = "[]"
	}
	query := `
		INSERT INTO quiz_attempts (user_id, quiz_id, quiz_version, score, percentage,
			results, time_spent, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		a.UserID, a.QuizID, a.QuizVersion, a.Score, a.Percentage,
		results, a.TimeSpent, a.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz attempt: %w", err)
	}
	created := *a
	created.ID = id
	return &created, nil
}

// ListAttemptsByUser returns a student's attempts, newest first
func (r *QuizRepository) ListAttemptsByUser(userID int64) ([]models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE user_id = ? ORDER BY attempted_at DESC"
	return r.queryAttempts(query, userID)
}

// ListAttemptsByQuiz returns every attempt against a quiz
func (r *QuizRepository) ListAttemptsByQuiz(quizID int64) ([]models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE quiz_id = ? ORDER BY attempted_at DESC"
	return r.queryAttempts(query, quizID)
}

// CountAttempts returns how many times a student has taken a quiz
func (r *QuizRepository) CountAttempts(userID, quizID int64) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM quiz_attempts WHERE user_id = ? AND quiz_id = ?"
	if err := r.db.QueryRow(query, userID, quizID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}

// DeleteAttemptsByUser removes a student's attempts (account reset)
func (r *QuizRepository) DeleteAttemptsByUser(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM quiz_attempts WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete quiz attempts: %w", err)
	}
	return nil
}

// DeleteAttemptsByUserAndQuiz removes one student's attempts on one quiz,
// so the teacher can hand the quiz back for a fresh run.
func (r *QuizRepository) DeleteAttemptsByUserAndQuiz(userID, quizID int64) (int64, error) {
	result, err := r.db.Exec("DELETE FROM quiz_attempts WHERE user_id = ? AND quiz_id = ?", userID, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete quiz attempts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete quiz attempts: %w", err)
	}
	return n, nil
}

func (r *QuizRepository) queryQuizzes(query string, args ...interface{}) ([]models.Quiz, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []models.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, *quiz)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepository) queryAttempts(query string, args ...interface{}) ([]models.QuizAttempt, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.QuizAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
