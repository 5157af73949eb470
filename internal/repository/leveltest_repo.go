package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// LevelTestRepository handles database operations for grade placement tests
type LevelTestRepository struct {
	db database.DBTX
}

// NewLevelTestRepository creates a new level test repository
func NewLevelTestRepository(db database.DBTX) *LevelTestRepository {
	return &LevelTestRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *LevelTestRepository) WithTx(tx database.DBTX) *LevelTestRepository {
	return &LevelTestRepository{db: tx}
}

const levelTestColumns = `id, user_id, grade_level, score, category, answers, completed, completed_at, created_at`

// Get returns the student's placement test for one grade level, or nil when
// they have not taken it.
func (r *LevelTestRepository) Get(userID int64, gradeLevel int) (*models.LevelTest, error) {
	query := "SELECT " + levelTestColumns + " FROM level_tests WHERE user_id = ? AND grade_level = ?"

	var lt models.LevelTest
	var answers string
	err := r.db.QueryRow(query, userID, gradeLevel).Scan(
		&lt.ID, &lt.UserID, &lt.GradeLevel, &lt.Score, &lt.Category,
		&answers, &lt.Completed, &lt.CompletedAt, &lt.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get level test: %w", err)
	}
	lt.Answers = []byte(answers)
	return &lt, nil
}

// Upsert records a completed placement test. One row exists per
// (user, grade); resubmitting overwrites the previous result.
func (r *LevelTestRepository) Upsert(lt *models.LevelTest) (*models.LevelTest, error) {
	answers := "[]"
	if len(lt.Answers) > 0 {
		answers = string(lt.Answers)
	}
	now := time.Now().UTC()

	existing, err := r.Get(lt.UserID, lt.GradeLevel)
	if err != nil {
		return nil, err
	}

	completed := r.db.GetDialect().BoolValue(lt.Completed)
	if existing != nil {
		query := `
			UPDATE level_tests
			SET score = ?, category = ?, answers = ?, completed = ` + completed + `, completed_at = ?
			WHERE id = ?
		`
		if _, err := r.db.Exec(query, lt.Score, lt.Category, answers, now, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to update level test: %w", err)
		}
		return r.Get(lt.UserID, lt.GradeLevel)
	}

	query := `
		INSERT INTO level_tests (user_id, grade_level, score, category, answers, completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ` + completed + `, ?)
	`
	if _, err := r.db.ExecReturningID(query,
		lt.UserID, lt.GradeLevel, lt.Score, lt.Category, answers, now,
	); err != nil {
		return nil, fmt.Errorf("failed to create level test: %w", err)
	}
	return r.Get(lt.UserID, lt.GradeLevel)
}
