package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// CourseRepository handles database operations for courses. Exercise and
// game sections travel as JSON documents in the exercises/games columns.
type CourseRepository struct {
	db database.DBTX
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db database.DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *CourseRepository) WithTx(tx database.DBTX) *CourseRepository {
	return &CourseRepository{db: tx}
}

const courseColumns = `id, course_key, title, description, category, grade_level, sort_order,
	icon, video_url, badge_name, badge_icon, exercises, games, is_active, created_at, updated_at`

func scanCourse(row interface{ Scan(...interface{}) error }) (*models.Course, error) {
	course := &models.Course{}
	var exercises, games string
	err := row.Scan(
		&course.ID,
		&course.CourseKey,
		&course.Title,
		&course.Description,
		&course.Category,
		&course.GradeLevel,
		&course.SortOrder,
		&course.Icon,
		&course.VideoURL,
		&course.BadgeName,
		&course.BadgeIcon,
		&exercises,
		&games,
		&course.IsActive,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(exercises), &course.Exercises); err != nil {
		return nil, fmt.Errorf("failed to decode course exercises: %w", err)
	}
	if err := json.Unmarshal([]byte(games), &course.Games); err != nil {
		return nil, fmt.Errorf("failed to decode course games: %w", err)
	}
	return course, nil
}

// CreateCourse inserts a course
func (r *CourseRepository) CreateCourse(course *models.Course) (*models.Course, error) {
	exercises, err := json.Marshal(course.Exercises)
	if err != nil {
		return nil, fmt.Errorf("failed to encode exercises: %w", err)
	}
	games, err := json.Marshal(course.Games)
	if err != nil {
		return nil, fmt.Errorf("failed to encode games: %w", err)
	}

	query := `
		INSERT INTO courses (course_key, title, description, category, grade_level, sort_order,
			icon, video_url, badge_name, badge_icon, exercises, games, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		course.CourseKey, course.Title, course.Description, course.Category,
		course.GradeLevel, course.SortOrder, course.Icon, course.VideoURL,
		course.BadgeName, course.BadgeIcon, string(exercises), string(games),
		course.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	created := *course
	created.ID = id
	return &created, nil
}

// GetCourseByID retrieves a course by numeric ID
func (r *CourseRepository) GetCourseByID(courseID int64) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE id = ?"
	course, err := scanCourse(r.db.QueryRow(query, courseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// GetCourseByKey retrieves a course by its stable key
func (r *CourseRepository) GetCourseByKey(courseKey string) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE course_key = ?"
	course, err := scanCourse(r.db.QueryRow(query, courseKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by key: %w", err)
	}
	return course, nil
}

// ListCourses returns active courses, optionally filtered by grade level
func (r *CourseRepository) ListCourses(gradeLevel int) ([]models.Course, error) {
	active := r.db.GetDialect().BoolValue(true)
	query := "SELECT " + courseColumns + " FROM courses WHERE is_active = " + active
	args := []interface{}{}
	if gradeLevel > 0 {
		query += " AND grade_level = ?"
		args = append(args, gradeLevel)
	}
	query += " ORDER BY sort_order ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

// CountCourses returns the number of courses, active or not
func (r *CourseRepository) CountCourses() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM courses").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return n, nil
}

// UpdateCourse replaces a course's mutable fields
func (r *CourseRepository) UpdateCourse(course *models.Course) error {
	exercises, err := json.Marshal(course.Exercises)
	if err != nil {
		return fmt.Errorf("failed to encode exercises: %w", err)
	}
	games, err := json.Marshal(course.Games)
	if err != nil {
		return fmt.Errorf("failed to encode games: %w", err)
	}

	query := `
		UPDATE courses
		SET title = ?, description = ?, category = ?, grade_level = ?, sort_order = ?,
			icon = ?, video_url = ?, badge_name = ?, badge_icon = ?,
			exercises = ?, games = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query,
		course.Title, course.Description, course.Category, course.GradeLevel,
		course.SortOrder, course.Icon, course.VideoURL, course.BadgeName,
		course.BadgeIcon, string(exercises), string(games), course.IsActive,
		course.ID,
	); err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

// DeactivateCourse hides a course without deleting progress rows
func (r *CourseRepository) DeactivateCourse(courseID int64) error {
	inactive := r.db.GetDialect().BoolValue(false)
	query := "UPDATE courses SET is_active = " + inactive + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, courseID); err != nil {
		return fmt.Errorf("failed to deactivate course: %w", err)
	}
	return nil
}
