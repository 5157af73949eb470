package repository

import (
	"database/sql"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// ActivityRepository handles database operations for standalone lessons
// and games.
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ActivityRepository) WithTx(tx database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

const lessonColumns = `id, title, description, content, video_url, category, difficulty,
	duration, points, sort_order, is_active, created_at`

const gameColumns = `id, title, description, type, category, difficulty, game_data,
	points, time_limit, is_active, created_at`

func scanLesson(row interface{ Scan(...interface{}) error }) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	var content string
	err := row.Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Description,
		&content,
		&lesson.VideoURL,
		&lesson.Category,
		&lesson.Difficulty,
		&lesson.Duration,
		&lesson.Points,
		&lesson.SortOrder,
		&lesson.IsActive,
		&lesson.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if content != "" {
		lesson.Content = []byte(content)
	}
	return lesson, nil
}

func scanGame(row interface{ Scan(...interface{}) error }) (*models.Game, error) {
	game := &models.Game{}
	var gameData string
	err := row.Scan(
		&game.ID,
		&game.Title,
		&game.Description,
		&game.Type,
		&game.Category,
		&game.Difficulty,
		&gameData,
		&game.Points,
		&game.TimeLimit,
		&game.IsActive,
		&game.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gameData != "" {
		game.GameData = []byte(gameData)
	}
	return game, nil
}

// CreateLesson inserts a lesson
func (r *ActivityRepository) CreateLesson(lesson *models.Lesson) (*models.Lesson, error) {
	content := string(lesson.Content)
	if content == "" {
		content = "{}"
	}
	query := `
		INSERT INTO lessons (title, description, content, video_url, category, difficulty,
			duration, points, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		lesson.Title, lesson.Description, content, lesson.VideoURL,
		lesson.Category, lesson.Difficulty, lesson.Duration, lesson.Points,
		lesson.SortOrder, lesson.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	created := *lesson
	created.ID = id
	return &created, nil
}

// GetLessonByID retrieves a lesson
func (r *ActivityRepository) GetLessonByID(lessonID int64) (*models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE id = ?"
	lesson, err := scanLesson(r.db.QueryRow(query, lessonID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

// ListLessons returns active lessons, optionally filtered by category
func (r *ActivityRepository) ListLessons(category string) ([]models.Lesson, error) {
	active := r.db.GetDialect().BoolValue(true)
	query := "SELECT " + lessonColumns + " FROM lessons WHERE is_active = " + active
	args := []interface{}{}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY sort_order ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}
	return lessons, rows.Err()
}

// CountLessons returns the number of lessons
func (r *ActivityRepository) CountLessons() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return n, nil
}

// CreateGame inserts a game
func (r *ActivityRepository) CreateGame(game *models.Game) (*models.Game, error) {
	gameData := string(game.GameData)
	if gameData == "" {
		gameData = "{}"
	}
	query := `
		INSERT INTO games (title, description, type, category, difficulty, game_data,
			points, time_limit, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		game.Title, game.Description, game.Type, game.Category,
		game.Difficulty, gameData, game.Points, game.TimeLimit, game.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	created := *game
	created.ID = id
	return &created, nil
}

// GetGameByID retrieves a game
func (r *ActivityRepository) GetGameByID(gameID int64) (*models.Game, error) {
	query := "SELECT " + gameColumns + " FROM games WHERE id = ?"
	game, err := scanGame(r.db.QueryRow(query, gameID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// ListGames returns active games, optionally filtered by category
func (r *ActivityRepository) ListGames(category string) ([]models.Game, error) {
	active := r.db.GetDialect().BoolValue(true)
	query := "SELECT " + gameColumns + " FROM games WHERE is_active = " + active
	args := []interface{}{}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// CountGames returns the number of games
func (r *ActivityRepository) CountGames() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM games").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return n, nil
}
