package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

var (
	// ErrNotInClass is returned when the target student is not in the
	// teacher's class
	ErrNotInClass = errors.New("student is not in this class")
	// ErrStudentNotFound is returned when the target student does not exist
	ErrStudentNotFound = errors.New("student not found")
)

// StudentOverview is one roster row in the class overview
type StudentOverview struct {
	Student        models.User       `json:"student"`
	Stats          repository.ProgressStats `json:"stats"`
	RecentActivity []models.Progress `json:"recentActivity"`
}

// TeacherService handles class management: codes, rosters, assignments,
// feedback, resets and the class overview.
type TeacherService struct {
	db          *database.DB
	users       *repository.UserRepository
	progress    *repository.ProgressRepository
	quizzes     *repository.QuizRepository
	assignments *repository.AssignmentRepository
	activities  *repository.ActivityRepository
	courses     *repository.CourseRepository
	notifier    *NotificationService
}

// NewTeacherService creates a new teacher service
func NewTeacherService(
	db *database.DB,
	users *repository.UserRepository,
	progress *repository.ProgressRepository,
	quizzes *repository.QuizRepository,
	assignments *repository.AssignmentRepository,
	activities *repository.ActivityRepository,
	courses *repository.CourseRepository,
	notifier *NotificationService,
) *TeacherService {
	return &TeacherService{
		db:          db,
		users:       users,
		progress:    progress,
		quizzes:     quizzes,
		assignments: assignments,
		activities:  activities,
		courses:     courses,
		notifier:    notifier,
	}
}

const classCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const classCodeLength = 6

// GenerateClassCode returns a random 6-character class code
func GenerateClassCode() (string, error) {
	buf := make([]byte, classCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate class code: %w", err)
	}
	for i, b := range buf {
		buf[i] = classCodeAlphabet[int(b)%len(classCodeAlphabet)]
	}
	return string(buf), nil
}

// EnsureClassCode returns the teacher's class code, generating one on
// first use. Retries on the (unlikely) collision with another teacher.
func (s *TeacherService) EnsureClassCode(teacherID int64) (string, error) {
	teacher, err := s.users.GetUserByID(teacherID)
	if err != nil {
		return "", err
	}
	if teacher == nil {
		return "", ErrUserNotFound
	}
	if teacher.ClassCode != "" {
		return teacher.ClassCode, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, err := GenerateClassCode()
		if err != nil {
			return "", err
		}
		existing, err := s.users.GetTeacherByClassCode(code)
		if err != nil {
			return "", err
		}
		if existing != nil {
			continue
		}
		if err := s.users.SetClassCode(teacherID, code); err != nil {
			return "", err
		}
		return code, nil
	}
	return "", errors.New("failed to generate a unique class code")
}

// Roster returns the teacher's students
func (s *TeacherService) Roster(teacherID int64) ([]models.User, error) {
	students, err := s.users.GetStudents(teacherID)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.User{}
	}
	for i := range students {
		badges, err := s.users.GetBadges(students[i].ID)
		if err != nil {
			return nil, err
		}
		students[i].Badges = badges
	}
	return students, nil
}

// AddStudent adds a student to the class by username or email
func (s *TeacherService) AddStudent(teacherID int64, identifier string) (*models.User, error) {
	student, err := s.users.GetUserByUsername(identifier)
	if err != nil {
		return nil, err
	}
	if student == nil {
		student, err = s.users.GetUserByEmail(identifier)
		if err != nil {
			return nil, err
		}
	}
	if student == nil || !student.IsStudent() {
		return nil, ErrStudentNotFound
	}
	if err := s.users.AddStudentToTeacher(teacherID, student.ID); err != nil {
		return nil, err
	}
	return student, nil
}

// RemoveStudent drops a student from the class roster. The student's
// account and progress are untouched.
func (s *TeacherService) RemoveStudent(teacherID, studentID int64) error {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return err
	}
	if !inClass {
		return ErrNotInClass
	}
	return s.users.RemoveStudentFromTeacher(teacherID, studentID)
}

// ClassOverview returns each student with aggregate stats and recent work
func (s *TeacherService) ClassOverview(teacherID int64) ([]StudentOverview, error) {
	students, err := s.Roster(teacherID)
	if err != nil {
		return nil, err
	}

	overview := make([]StudentOverview, 0, len(students))
	for _, student := range students {
		stats, err := s.progress.Stats(student.ID)
		if err != nil {
			return nil, err
		}
		recent, err := s.progress.ListRecentProgress(student.ID, 5)
		if err != nil {
			return nil, err
		}
		if recent == nil {
			recent = []models.Progress{}
		}
		overview = append(overview, StudentOverview{
			Student:        student,
			Stats:          *stats,
			RecentActivity: recent,
		})
	}
	return overview, nil
}

// StudentProgress returns one student's full progress, membership-gated
func (s *TeacherService) StudentProgress(teacherID, studentID int64) ([]models.Progress, error) {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if !inClass {
		return nil, ErrNotInClass
	}
	records, err := s.progress.ListUserProgress(studentID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Progress{}
	}
	return records, nil
}

// ResetStudent wipes a student's progress, quiz attempts, points, level and
// badges in one transaction. The account itself survives.
func (s *TeacherService) ResetStudent(teacherID, studentID int64) error {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return err
	}
	if !inClass {
		return ErrNotInClass
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.progress.WithTx(tx).DeleteUserProgress(studentID); err != nil {
		return err
	}
	if err := s.quizzes.WithTx(tx).DeleteAttemptsByUser(studentID); err != nil {
		return err
	}
	users := s.users.WithTx(tx)
	if err := users.UpdatePointsAndLevel(studentID, 0, 1); err != nil {
		return err
	}
	if err := users.ClearBadges(studentID); err != nil {
		return err
	}
	return tx.Commit()
}

// GiveFeedback attaches teacher feedback to a progress record and notifies
// the student.
func (s *TeacherService) GiveFeedback(teacherID, progressID int64, feedback string) error {
	record, err := s.progress.GetProgressByID(progressID)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrActivityNotFound
	}
	inClass, err := s.users.IsStudentOfTeacher(teacherID, record.UserID)
	if err != nil {
		return err
	}
	if !inClass {
		return ErrNotInClass
	}

	if err := s.progress.SetFeedback(progressID, feedback); err != nil {
		return err
	}
	s.notifier.Notify(record.UserID, models.NotifyFeedback,
		"New feedback from your teacher", feedback,
		"progress", strconv.FormatInt(progressID, 10))
	return nil
}

// SendClassFeedback delivers a feedback notification to specific students,
// or to the whole class when no IDs are given. Returns how many students
// were notified.
func (s *TeacherService) SendClassFeedback(teacherID int64, studentIDs []int64, message string) (int, error) {
	if message == "" {
		return 0, errors.New("feedback message is required")
	}

	if len(studentIDs) == 0 {
		students, err := s.users.GetStudents(teacherID)
		if err != nil {
			return 0, err
		}
		for _, student := range students {
			studentIDs = append(studentIDs, student.ID)
		}
	} else {
		for _, studentID := range studentIDs {
			inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
			if err != nil {
				return 0, err
			}
			if !inClass {
				return 0, ErrNotInClass
			}
		}
	}

	for _, studentID := range studentIDs {
		s.notifier.Notify(studentID, models.NotifyFeedback,
			"Feedback from your teacher", message,
			"teacher", strconv.FormatInt(teacherID, 10))
	}
	return len(studentIDs), nil
}

// Assign directs a student to a lesson or game and notifies them
func (s *TeacherService) Assign(teacherID int64, a *models.Assignment) (*models.Assignment, error) {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, a.StudentID)
	if err != nil {
		return nil, err
	}
	if !inClass {
		return nil, ErrNotInClass
	}

	var title string
	switch a.ActivityType {
	case models.AssignLesson:
		lesson, err := s.activities.GetLessonByID(a.ActivityID)
		if err != nil {
			return nil, err
		}
		if lesson == nil {
			return nil, ErrActivityNotFound
		}
		title = lesson.Title
	case models.AssignGame:
		game, err := s.activities.GetGameByID(a.ActivityID)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, ErrActivityNotFound
		}
		title = game.Title
	default:
		return nil, fmt.Errorf("invalid activity type %q", a.ActivityType)
	}

	a.TeacherID = teacherID
	a.Status = models.AssignmentAssigned
	if a.Difficulty == "" {
		a.Difficulty = "beginner"
	}

	existing, err := s.assignments.GetAssignment(teacherID, a.StudentID, a.ActivityType, a.ActivityID)
	if err != nil {
		return nil, err
	}

	var created *models.Assignment
	if existing != nil {
		// assigning the same activity again resets the deadline and status
		existing.Deadline = a.Deadline
		existing.Difficulty = a.Difficulty
		existing.Status = models.AssignmentAssigned
		existing.CompletedAt = nil
		if err := s.assignments.ReassignAssignment(existing); err != nil {
			return nil, err
		}
		created = existing
	} else {
		created, err = s.assignments.CreateAssignment(a)
		if err != nil {
			return nil, err
		}
	}

	s.notifier.Notify(a.StudentID, models.NotifyAssignment,
		"New assignment",
		fmt.Sprintf("Your teacher assigned you: %s", title),
		a.ActivityType, strconv.FormatInt(a.ActivityID, 10))
	return created, nil
}

// Assignments returns what the teacher has assigned
func (s *TeacherService) Assignments(teacherID int64) ([]models.Assignment, error) {
	assignments, err := s.assignments.ListByTeacher(teacherID)
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	return assignments, nil
}

// StudentAssignments returns a student's own assignment list
func (s *TeacherService) StudentAssignments(studentID int64) ([]models.Assignment, error) {
	assignments, err := s.assignments.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	return assignments, nil
}

// SendMessage delivers a direct message and an in-app notification
func (s *TeacherService) SendMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	if content == "" {
		return nil, errors.New("message content is required")
	}
	receiver, err := s.users.GetUserByID(receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}
	message, err := s.assignments.CreateMessage(senderID, receiverID, content)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(receiverID, models.NotifyMessage,
		"New message", content,
		"message", strconv.FormatInt(message.ID, 10))
	return message, nil
}

// ReassignQuiz wipes one student's attempts on a quiz so they can take it
// again, and tells the student.
func (s *TeacherService) ReassignQuiz(teacherID, studentID, quizID int64) error {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return err
	}
	if !inClass {
		return ErrNotInClass
	}
	quiz, err := s.quizzes.GetQuizByID(quizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return ErrQuizNotFound
	}
	if _, err := s.quizzes.DeleteAttemptsByUserAndQuiz(studentID, quizID); err != nil {
		return err
	}
	s.notifier.Notify(studentID, models.NotifyAssignment,
		"Quiz reassigned",
		fmt.Sprintf("Your teacher asked you to retake: %s", quiz.Title),
		"quiz", strconv.FormatInt(quizID, 10))
	return nil
}

// AddStudentNote records a private teacher note about a student
func (s *TeacherService) AddStudentNote(teacherID, studentID int64, text string) (*models.StudentNote, error) {
	if text == "" {
		return nil, errors.New("note text is required")
	}
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if !inClass {
		return nil, ErrNotInClass
	}
	return s.users.AddStudentNote(&models.StudentNote{
		StudentID: studentID,
		TeacherID: teacherID,
		Note:      text,
	})
}

// RemoveStudentBadge takes a single badge away from a student
func (s *TeacherService) RemoveStudentBadge(teacherID, studentID int64, badge string) error {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return err
	}
	if !inClass {
		return ErrNotInClass
	}
	return s.users.RemoveBadge(studentID, badge)
}

// ToggleCourseAccess flips a course lock for one student and reports the new
// state: true when the course is now locked.
func (s *TeacherService) ToggleCourseAccess(teacherID, studentID, courseID int64) (bool, error) {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return false, err
	}
	if !inClass {
		return false, ErrNotInClass
	}
	course, err := s.courses.GetCourseByID(courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, ErrActivityNotFound
	}

	locked, err := s.users.IsCourseLocked(studentID, courseID)
	if err != nil {
		return false, err
	}
	if locked {
		return false, s.users.UnlockCourse(studentID, courseID)
	}
	return true, s.users.LockCourse(studentID, courseID)
}

// CourseStanding is one course row inside a student profile
type CourseStanding struct {
	CourseID          int64  `json:"courseId"`
	CourseKey         string `json:"courseKey"`
	Title             string `json:"title"`
	Category          string `json:"category"`
	CompletedSections int    `json:"completedSections"`
	TotalSections     int    `json:"totalSections"`
	Percentage        int    `json:"percentage"`
	IsLocked          bool   `json:"isLocked"`
}

// StudentProfile aggregates everything a teacher sees about one student
type StudentProfile struct {
	Student      models.User              `json:"student"`
	Stats        repository.ProgressStats `json:"stats"`
	Lessons      []models.Progress        `json:"lessons"`
	Games        []models.Progress        `json:"games"`
	Courses      []CourseStanding         `json:"courses"`
	QuizAttempts []models.QuizAttempt     `json:"quizAttempts"`
	Notes        []models.StudentNote     `json:"notes"`
}

// StudentFullProfile assembles the complete picture of one student:
// identity and badges, aggregate stats, lesson and game history, standing
// in every course, quiz attempts and the teacher's notes.
func (s *TeacherService) StudentFullProfile(teacherID, studentID int64) (*StudentProfile, error) {
	inClass, err := s.users.IsStudentOfTeacher(teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if !inClass {
		return nil, ErrNotInClass
	}
	student, err := s.users.GetUserByID(studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	stats, err := s.progress.Stats(studentID)
	if err != nil {
		return nil, err
	}
	records, err := s.progress.ListUserProgress(studentID)
	if err != nil {
		return nil, err
	}
	lessons := []models.Progress{}
	games := []models.Progress{}
	for _, record := range records {
		switch {
		case record.LessonID != nil:
			lessons = append(lessons, record)
		case record.GameID != nil:
			games = append(games, record)
		}
	}

	courses, err := s.courses.ListCourses(0)
	if err != nil {
		return nil, err
	}
	lockedCourses, err := s.users.ListLockedCourses(studentID)
	if err != nil {
		return nil, err
	}
	standings := make([]CourseStanding, 0, len(courses))
	for _, course := range courses {
		completed, err := s.progress.CountCompletedSections(studentID, course.ID)
		if err != nil {
			return nil, err
		}
		total := course.SectionCount()
		percentage := 0
		if total > 0 {
			if completed > total {
				completed = total
			}
			percentage = completed * 100 / total
		}
		standings = append(standings, CourseStanding{
			CourseID:          course.ID,
			CourseKey:         course.CourseKey,
			Title:             course.Title,
			Category:          course.Category,
			CompletedSections: completed,
			TotalSections:     total,
			Percentage:        percentage,
			IsLocked:          lockedCourses[course.ID],
		})
	}

	attempts, err := s.quizzes.ListAttemptsByUser(studentID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}
	notes, err := s.users.ListStudentNotes(teacherID, studentID)
	if err != nil {
		return nil, err
	}

	return &StudentProfile{
		Student:      *student,
		Stats:        *stats,
		Lessons:      lessons,
		Games:        games,
		Courses:      standings,
		QuizAttempts: attempts,
		Notes:        notes,
	}, nil
}

// Conversation returns the message history between two users
func (s *TeacherService) Conversation(userA, userB int64, limit int) ([]models.Message, error) {
	messages, err := s.assignments.ListConversation(userA, userB, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
