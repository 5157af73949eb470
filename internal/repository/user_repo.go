package repository

import (
	"database/sql"
	"fmt"
	"time"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
)

// UserRepository handles database operations for users, badges and the
// parent/teacher link tables.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *UserRepository) WithTx(tx database.DBTX) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, avatar,
	points, level, grade_level, class_code, oauth_provider, oauth_subject, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	var gradeLevel sql.NullInt64
	var classCode sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.FirstName,
		&user.LastName,
		&user.Avatar,
		&user.Points,
		&user.Level,
		&gradeLevel,
		&classCode,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.GradeLevel = int(gradeLevel.Int64)
	user.ClassCode = classCode.String
	return user, nil
}

// CreateUser inserts a new user account
func (r *UserRepository) CreateUser(user *models.User) (*models.User, error) {
	var gradeLevel interface{}
	if user.GradeLevel > 0 {
		gradeLevel = user.GradeLevel
	}
	var classCode interface{}
	if user.ClassCode != "" {
		classCode = user.ClassCode
	}
	query := `
		INSERT INTO users (username, email, password_hash, role, first_name, last_name, avatar,
			points, level, grade_level, class_code, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		user.Username, user.Email, user.PasswordHash, user.Role,
		user.FirstName, user.LastName, user.Avatar,
		user.Points, user.Level, gradeLevel, classCode,
		user.OAuthProvider, user.OAuthSubject,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created := *user
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = time.Now()
	if created.Badges == nil {
		created.Badges = []string{}
	}
	return &created, nil
}

// GetUserByID retrieves a user by ID, with badges loaded
func (r *UserRepository) GetUserByID(userID int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Badges, err = r.GetBadges(userID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.Badges, err = r.GetBadges(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	user, err := scanUser(r.db.QueryRow(query, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if user.Badges, err = r.GetBadges(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE oauth_provider = ? AND oauth_subject = ?"
	user, err := scanUser(r.db.QueryRow(query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by oauth: %w", err)
	}
	if user.Badges, err = r.GetBadges(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile updates a user's display fields
func (r *UserRepository) UpdateProfile(userID int64, firstName, lastName, avatar string) error {
	query := `
		UPDATE users SET first_name = ?, last_name = ?, avatar = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, firstName, lastName, avatar, userID); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateGradeLevel changes a student's grade level
func (r *UserRepository) UpdateGradeLevel(userID, gradeLevel int64) error {
	query := "UPDATE users SET grade_level = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, gradeLevel, userID); err != nil {
		return fmt.Errorf("failed to update grade level: %w", err)
	}
	return nil
}

// UpdatePointsAndLevel sets a user's point total and level together
func (r *UserRepository) UpdatePointsAndLevel(userID, points, level int64) error {
	query := "UPDATE users SET points = ?, level = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, points, level, userID); err != nil {
		return fmt.Errorf("failed to update points: %w", err)
	}
	return nil
}

// SetClassCode stores a class code on a user (teacher's own code, or the
// code a student joined with)
func (r *UserRepository) SetClassCode(userID int64, code string) error {
	query := "UPDATE users SET class_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, code, userID); err != nil {
		return fmt.Errorf("failed to set class code: %w", err)
	}
	return nil
}

// GetTeacherByClassCode finds the teacher owning a class code
func (r *UserRepository) GetTeacherByClassCode(code string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE class_code = ? AND role = 'teacher'"
	user, err := scanUser(r.db.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher by class code: %w", err)
	}
	return user, nil
}

// GetBadges returns the user's badge names in award order
func (r *UserRepository) GetBadges(userID int64) ([]string, error) {
	query := "SELECT badge FROM user_badges WHERE user_id = ? ORDER BY awarded_at ASC, badge ASC"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	badges := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// HasBadge reports whether the user already holds the badge
func (r *UserRepository) HasBadge(userID int64, badge string) (bool, error) {
	var n int
	query := "SELECT COUNT(*) FROM user_badges WHERE user_id = ? AND badge = ?"
	if err := r.db.QueryRow(query, userID, badge).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check badge: %w", err)
	}
	return n > 0, nil
}

// AddBadge awards a badge. It returns false when the user already held it,
// so callers can make awards idempotent. The insert skips conflicts at the
// engine level, so concurrent awards of the same badge race safely: exactly
// one caller sees true.
func (r *UserRepository) AddBadge(userID int64, badge string) (bool, error) {
	query := r.db.GetDialect().InsertIgnore("INSERT INTO user_badges (user_id, badge) VALUES (?, ?)")
	result, err := r.db.Exec(query, userID, badge)
	if err != nil {
		return false, fmt.Errorf("failed to add badge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add badge: %w", err)
	}
	return n > 0, nil
}

// RemoveBadge takes a single badge away from a user
func (r *UserRepository) RemoveBadge(userID int64, badge string) error {
	query := "DELETE FROM user_badges WHERE user_id = ? AND badge = ?"
	if _, err := r.db.Exec(query, userID, badge); err != nil {
		return fmt.Errorf("failed to remove badge: %w", err)
	}
	return nil
}

// ClearBadges removes every badge from a user
func (r *UserRepository) ClearBadges(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM user_badges WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear badges: %w", err)
	}
	return nil
}

// LinkParentChild records that parent oversees child
func (r *UserRepository) LinkParentChild(parentID, childID int64) error {
	var n int
	check := "SELECT COUNT(*) FROM parent_children WHERE parent_id = ? AND child_id = ?"
	if err := r.db.QueryRow(check, parentID, childID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check parent link: %w", err)
	}
	if n > 0 {
		return nil
	}
	query := "INSERT INTO parent_children (parent_id, child_id) VALUES (?, ?)"
	if _, err := r.db.Exec(query, parentID, childID); err != nil {
		return fmt.Errorf("failed to link parent and child: %w", err)
	}
	return nil
}

// GetChildren returns all students linked to a parent
func (r *UserRepository) GetChildren(parentID int64) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT child_id FROM parent_children WHERE parent_id = ?)
		ORDER BY username ASC
	`
	return r.queryUsers(query, parentID)
}

// GetGuardians returns all parents linked to a student
func (r *UserRepository) GetGuardians(childID int64) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT parent_id FROM parent_children WHERE child_id = ?)
		ORDER BY username ASC
	`
	return r.queryUsers(query, childID)
}

// AddStudentToTeacher records class membership
func (r *UserRepository) AddStudentToTeacher(teacherID, studentID int64) error {
	var n int
	check := "SELECT COUNT(*) FROM teacher_students WHERE teacher_id = ? AND student_id = ?"
	if err := r.db.QueryRow(check, teacherID, studentID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check class membership: %w", err)
	}
	if n > 0 {
		return nil
	}
	query := "INSERT INTO teacher_students (teacher_id, student_id) VALUES (?, ?)"
	if _, err := r.db.Exec(query, teacherID, studentID); err != nil {
		return fmt.Errorf("failed to add student to class: %w", err)
	}
	return nil
}

// RemoveStudentFromTeacher drops class membership
func (r *UserRepository) RemoveStudentFromTeacher(teacherID, studentID int64) error {
	query := "DELETE FROM teacher_students WHERE teacher_id = ? AND student_id = ?"
	if _, err := r.db.Exec(query, teacherID, studentID); err != nil {
		return fmt.Errorf("failed to remove student from class: %w", err)
	}
	return nil
}

// GetStudents returns a teacher's class roster
func (r *UserRepository) GetStudents(teacherID int64) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT student_id FROM teacher_students WHERE teacher_id = ?)
		ORDER BY username ASC
	`
	return r.queryUsers(query, teacherID)
}

// IsStudentOfTeacher reports whether the student belongs to the teacher's class
func (r *UserRepository) IsStudentOfTeacher(teacherID, studentID int64) (bool, error) {
	var n int
	query := "SELECT COUNT(*) FROM teacher_students WHERE teacher_id = ? AND student_id = ?"
	if err := r.db.QueryRow(query, teacherID, studentID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check class membership: %w", err)
	}
	return n > 0, nil
}

// IsChildOfParent reports whether the student is linked to the parent
func (r *UserRepository) IsChildOfParent(parentID, childID int64) (bool, error) {
	var n int
	query := "SELECT COUNT(*) FROM parent_children WHERE parent_id = ? AND child_id = ?"
	if err := r.db.QueryRow(query, parentID, childID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check parent link: %w", err)
	}
	return n > 0, nil
}

// AddStudentNote appends a teacher's note on a student
func (r *UserRepository) AddStudentNote(note *models.StudentNote) (*models.StudentNote, error) {
	query := "INSERT INTO student_notes (student_id, teacher_id, note) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, note.StudentID, note.TeacherID, note.Note)
	if err != nil {
		return nil, fmt.Errorf("failed to add student note: %w", err)
	}
	created := *note
	created.ID = id
	created.CreatedAt = time.Now()
	return &created, nil
}

// ListStudentNotes returns a teacher's notes on one student, oldest first
func (r *UserRepository) ListStudentNotes(teacherID, studentID int64) ([]models.StudentNote, error) {
	query := `
		SELECT id, student_id, teacher_id, note, created_at
		FROM student_notes
		WHERE teacher_id = ? AND student_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, teacherID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student notes: %w", err)
	}
	defer rows.Close()

	notes := []models.StudentNote{}
	for rows.Next() {
		var n models.StudentNote
		if err := rows.Scan(&n.ID, &n.StudentID, &n.TeacherID, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// LockCourse blocks a student's access to one course. Locking an already
// locked course is a no-op.
func (r *UserRepository) LockCourse(userID, courseID int64) error {
	query := r.db.GetDialect().InsertIgnore("INSERT INTO locked_courses (user_id, course_id) VALUES (?, ?)")
	if _, err := r.db.Exec(query, userID, courseID); err != nil {
		return fmt.Errorf("failed to lock course: %w", err)
	}
	return nil
}

// UnlockCourse restores a student's access to one course
func (r *UserRepository) UnlockCourse(userID, courseID int64) error {
	query := "DELETE FROM locked_courses WHERE user_id = ? AND course_id = ?"
	if _, err := r.db.Exec(query, userID, courseID); err != nil {
		return fmt.Errorf("failed to unlock course: %w", err)
	}
	return nil
}

// IsCourseLocked reports whether the course is locked for the student
func (r *UserRepository) IsCourseLocked(userID, courseID int64) (bool, error) {
	var n int
	query := "SELECT COUNT(*) FROM locked_courses WHERE user_id = ? AND course_id = ?"
	if err := r.db.QueryRow(query, userID, courseID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check course lock: %w", err)
	}
	return n > 0, nil
}

// ListLockedCourses returns the IDs of courses locked for the student
func (r *UserRepository) ListLockedCourses(userID int64) (map[int64]bool, error) {
	rows, err := r.db.Query("SELECT course_id FROM locked_courses WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locked courses: %w", err)
	}
	defer rows.Close()

	locked := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan locked course: %w", err)
		}
		locked[id] = true
	}
	return locked, rows.Err()
}

// Leaderboard returns the top students by points
func (r *UserRepository) Leaderboard(limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'student'
		ORDER BY points DESC, username ASC
		LIMIT ?
	`
	return r.queryUsers(query, limit)
}

func (r *UserRepository) queryUsers(query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
