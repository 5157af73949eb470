package repository

import (
	"database/sql"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// ProgressStats is an aggregate snapshot of one student's completed work,
// used by the badge engine to evaluate award rules.
type ProgressStats struct {
	CompletedLessons int64            // standalone lessons + course exercises
	CompletedGames   int64            // standalone games + course games
	PerfectScores    int64            // completed rows where score == max_score > 0
	CategoryCounts   map[string]int64 // completed rows per environmental category
}

// ProgressRepository handles database operations for progress records
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ProgressRepository) WithTx(tx database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

const progressColumns = `id, user_id, lesson_id, game_id, course_id, course_section, section_id,
	status, score, max_score, time_spent, attempts, category, answers, feedback,
	behavioral_patterns, last_attempt, completed_at, created_at`

func scanProgress(row interface{ Scan(...interface{}) error }) (*models.Progress, error) {
	p := &models.Progress{}
	var lessonID, gameID, courseID sql.NullInt64
	var courseSection, sectionID sql.NullString
	var answers, patterns string
	var completedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&lessonID,
		&gameID,
		&courseID,
		&courseSection,
		&sectionID,
		&p.Status,
		&p.Score,
		&p.MaxScore,
		&p.TimeSpent,
		&p.Attempts,
		&p.Category,
		&answers,
		&p.Feedback,
		&patterns,
		&p.LastAttempt,
		&completedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lessonID.Valid {
		p.LessonID = &lessonID.Int64
	}
	if gameID.Valid {
		p.GameID = &gameID.Int64
	}
	if courseID.Valid {
		p.CourseID = &courseID.Int64
	}
	p.CourseSection = courseSection.String
	p.SectionID = sectionID.String
	p.Answers = []byte(answers)
	p.BehavioralPatterns = []byte(patterns)
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}

// GetLessonProgress returns the user's record for a standalone lesson
func (r *ProgressRepository) GetLessonProgress(userID, lessonID int64) (*models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE user_id = ? AND lesson_id = ?"
	p, err := scanProgress(r.db.QueryRow(query, userID, lessonID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return p, nil
}

// GetGameProgress returns the user's record for a standalone game
func (r *ProgressRepository) GetGameProgress(userID, gameID int64) (*models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE user_id = ? AND game_id = ?"
	p, err := scanProgress(r.db.QueryRow(query, userID, gameID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game progress: %w", err)
	}
	return p, nil
}

// GetSectionProgress returns the user's record for one course section
func (r *ProgressRepository) GetSectionProgress(userID, courseID int64, section, sectionID string) (*models.Progress, error) {
	query := "SELECT " + progressColumns + ` FROM progress
		WHERE user_id = ? AND course_id = ? AND course_section = ? AND section_id = ?`
	p, err := scanProgress(r.db.QueryRow(query, userID, courseID, section, sectionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section progress: %w", err)
	}
	return p, nil
}

// CreateProgress inserts a record and returns it with its ID set
func (r *ProgressRepository) CreateProgress(p *models.Progress) (*models.Progress, error) {
	answers := string(p.Answers)
	if answers == "" {
		answers = "[]"
	}
	patterns := string(p.BehavioralPatterns)
	if patterns == "" {
		patterns = "[]"
	}
	query := `
		INSERT INTO progress (user_id, lesson_id, game_id, course_id, course_section, section_id,
			status, score, max_score, time_spent, attempts, category, answers, feedback,
			behavioral_patterns, last_attempt, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)
	`
	id, err := r.db.ExecReturningID(query,
		p.UserID, p.LessonID, p.GameID, p.CourseID,
		nullString(p.CourseSection), nullString(p.SectionID),
		p.Status, p.Score, p.MaxScore, p.TimeSpent, p.Attempts, p.Category,
		answers, p.Feedback, patterns, p.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	created := *p
	created.ID = id
	return &created, nil
}

// UpdateProgress replaces a record's mutable fields
func (r *ProgressRepository) UpdateProgress(p *models.Progress) error {
	answers := string(p.Answers)
	if answers == "" {
		answers = "[]"
	}
	patterns := string(p.BehavioralPatterns)
	if patterns == "" {
		patterns = "[]"
	}
	query := `
		UPDATE progress
		SET status = ?, score = ?, max_score = ?, time_spent = ?, attempts = ?,
			category = ?, answers = ?, feedback = ?, behavioral_patterns = ?,
			last_attempt = CURRENT_TIMESTAMP, completed_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query,
		p.Status, p.Score, p.MaxScore, p.TimeSpent, p.Attempts,
		p.Category, answers, p.Feedback, patterns, p.CompletedAt, p.ID,
	); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// SetFeedback stores teacher feedback on a progress record
func (r *ProgressRepository) SetFeedback(progressID int64, feedback string) error {
	query := "UPDATE progress SET feedback = ? WHERE id = ?"
	if _, err := r.db.Exec(query, feedback, progressID); err != nil {
		return fmt.Errorf("failed to set feedback: %w", err)
	}
	return nil
}

// GetProgressByID retrieves a single record
func (r *ProgressRepository) GetProgressByID(progressID int64) (*models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE id = ?"
	p, err := scanProgress(r.db.QueryRow(query, progressID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// ListUserProgress returns every record for a user, most recent first
func (r *ProgressRepository) ListUserProgress(userID int64) ([]models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE user_id = ? ORDER BY last_attempt DESC"
	return r.queryProgress(query, userID)
}

// ListCourseProgress returns a user's records for one course
func (r *ProgressRepository) ListCourseProgress(userID, courseID int64) ([]models.Progress, error) {
	query := "SELECT " + progressColumns + ` FROM progress
		WHERE user_id = ? AND course_id = ?
		ORDER BY course_section ASC, section_id ASC`
	return r.queryProgress(query, userID, courseID)
}

// ListRecentProgress returns a user's latest records, capped at limit
func (r *ProgressRepository) ListRecentProgress(userID int64, limit int) ([]models.Progress, error) {
	if limit <= 0 {
		limit = 10
	}
	query := "SELECT " + progressColumns + ` FROM progress
		WHERE user_id = ?
		ORDER BY last_attempt DESC
		LIMIT ?`
	return r.queryProgress(query, userID, limit)
}

// CountCompletedSections counts the user's completed sections in one course
func (r *ProgressRepository) CountCompletedSections(userID, courseID int64) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM progress WHERE user_id = ? AND course_id = ? AND status = 'completed'"
	if err := r.db.QueryRow(query, userID, courseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count completed sections: %w", err)
	}
	return n, nil
}

// Stats computes the aggregate snapshot used by the badge engine.
// Course exercises count as lessons; course games count as games.
func (r *ProgressRepository) Stats(userID int64) (*ProgressStats, error) {
	stats := &ProgressStats{CategoryCounts: map[string]int64{}}

	query := `
		SELECT COUNT(*) FROM progress
		WHERE user_id = ? AND status = 'completed'
		AND (lesson_id IS NOT NULL OR course_section = 'exercise')
	`
	if err := r.db.QueryRow(query, userID).Scan(&stats.CompletedLessons); err != nil {
		return nil, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	query = `
		SELECT COUNT(*) FROM progress
		WHERE user_id = ? AND status = 'completed'
		AND (game_id IS NOT NULL OR course_section = 'game')
	`
	if err := r.db.QueryRow(query, userID).Scan(&stats.CompletedGames); err != nil {
		return nil, fmt.Errorf("failed to count completed games: %w", err)
	}

	query = `
		SELECT COUNT(*) FROM progress
		WHERE user_id = ? AND status = 'completed' AND max_score > 0 AND score = max_score
	`
	if err := r.db.QueryRow(query, userID).Scan(&stats.PerfectScores); err != nil {
		return nil, fmt.Errorf("failed to count perfect scores: %w", err)
	}

	// videos are passive viewing, not activities, so they never count
	// toward category mastery
	query = `
		SELECT category, COUNT(*) FROM progress
		WHERE user_id = ? AND status = 'completed' AND category != ''
		AND (course_section IS NULL OR course_section != 'video')
		GROUP BY category
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.CategoryCounts[category] = n
	}
	return stats, rows.Err()
}

// DeleteUserProgress removes every record for a user (account reset)
func (r *ProgressRepository) DeleteUserProgress(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM progress WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func (r *ProgressRepository) queryProgress(query string, args ...interface{}) ([]models.Progress, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []models.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
