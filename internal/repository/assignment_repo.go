package repository

import (
	"database/sql"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// AssignmentRepository handles database operations for assignments and
// direct messages.
type AssignmentRepository struct {
	db database.DBTX
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db database.DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *AssignmentRepository) WithTx(tx database.DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: tx}
}

const assignmentColumns = `id, teacher_id, student_id, activity_type, activity_id,
	deadline, difficulty, status, assigned_at, completed_at`

func scanAssignment(row interface{ Scan(...interface{}) error }) (*models.Assignment, error) {
	a := &models.Assignment{}
	var deadline, completedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.TeacherID,
		&a.StudentID,
		&a.ActivityType,
		&a.ActivityID,
		&deadline,
		&a.Difficulty,
		&a.Status,
		&a.AssignedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t := deadline.Time
		a.Deadline = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

// CreateAssignment records a teacher assigning an activity. Duplicate
// assignments of the same activity to the same student are rejected by
// the unique constraint.
func (r *AssignmentRepository) CreateAssignment(a *models.Assignment) (*models.Assignment, error) {
	query := `
		INSERT INTO assignments (teacher_id, student_id, activity_type, activity_id,
			deadline, difficulty, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		a.TeacherID, a.StudentID, a.ActivityType, a.ActivityID,
		a.Deadline, a.Difficulty, a.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	created := *a
	created.ID = id
	return &created, nil
}

// GetAssignment looks up an existing assignment of an activity to a student
func (r *AssignmentRepository) GetAssignment(teacherID, studentID int64, activityType string, activityID int64) (*models.Assignment, error) {
	query := "SELECT " + assignmentColumns + ` FROM assignments
		WHERE teacher_id = ? AND student_id = ? AND activity_type = ? AND activity_id = ?`
	a, err := scanAssignment(r.db.QueryRow(query, teacherID, studentID, activityType, activityID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// ReassignAssignment resets an existing assignment with a new deadline and
// difficulty, clearing any prior completion.
func (r *AssignmentRepository) ReassignAssignment(a *models.Assignment) error {
	query := `
		UPDATE assignments
		SET deadline = ?, difficulty = ?, status = ?, completed_at = NULL,
			assigned_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, a.Deadline, a.Difficulty, a.Status, a.ID); err != nil {
		return fmt.Errorf("failed to reassign assignment: %w", err)
	}
	return nil
}

// ListByStudent returns a student's assignments, soonest deadline first
func (r *AssignmentRepository) ListByStudent(studentID int64) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + ` FROM assignments
		WHERE student_id = ?
		ORDER BY status ASC, deadline ASC, assigned_at DESC`
	return r.queryAssignments(query, studentID)
}

// ListByTeacher returns everything a teacher has assigned
func (r *AssignmentRepository) ListByTeacher(teacherID int64) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + ` FROM assignments
		WHERE teacher_id = ?
		ORDER BY assigned_at DESC`
	return r.queryAssignments(query, teacherID)
}

// MarkCompleted flags matching open assignments done when the student
// finishes the activity.
func (r *AssignmentRepository) MarkCompleted(studentID int64, activityType string, activityID int64) error {
	query := `
		UPDATE assignments
		SET status = 'completed', completed_at = CURRENT_TIMESTAMP
		WHERE student_id = ? AND activity_type = ? AND activity_id = ? AND status != 'completed'
	`
	if _, err := r.db.Exec(query, studentID, activityType, activityID); err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes an assignment, scoped to its owning teacher
func (r *AssignmentRepository) DeleteAssignment(teacherID, assignmentID int64) error {
	query := "DELETE FROM assignments WHERE id = ? AND teacher_id = ?"
	if _, err := r.db.Exec(query, assignmentID, teacherID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// CreateMessage stores a direct message
func (r *AssignmentRepository) CreateMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	query := "INSERT INTO messages (sender_id, receiver_id, content) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, senderID, receiverID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &models.Message{ID: id, SenderID: senderID, ReceiverID: receiverID, Content: content}, nil
}

// ListConversation returns messages between two users, oldest first
func (r *AssignmentRepository) ListConversation(userA, userB int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userA, userB, userB, userA, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *AssignmentRepository) queryAssignments(query string, args ...interface{}) ([]models.Assignment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}
