package service

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"ecolearn/internal/content"
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

// ErrCourseLocked is returned when a student works a course their teacher
// has locked
var ErrCourseLocked = errors.New("course is locked for this student")

// CourseService resolves courses, records section submissions and evaluates
// course completion.
type CourseService struct {
	courses  *repository.CourseRepository
	progress *repository.ProgressRepository
	users    *repository.UserRepository
	tracker  *ProgressService
	notifier *NotificationService
}

// NewCourseService creates a new course service
func NewCourseService(
	courses *repository.CourseRepository,
	progress *repository.ProgressRepository,
	users *repository.UserRepository,
	tracker *ProgressService,
	notifier *NotificationService,
) *CourseService {
	return &CourseService{
		courses:  courses,
		progress: progress,
		users:    users,
		tracker:  tracker,
		notifier: notifier,
	}
}

// EnsureSeeded inserts the built-in course templates when the courses table
// is empty, so a fresh database serves content immediately.
func (s *CourseService) EnsureSeeded() error {
	n, err := s.courses.CountCourses()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for i, template := range content.Courses() {
		course := template
		course.SortOrder = int64(i)
		if _, err := s.courses.CreateCourse(&course); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d built-in courses", len(content.Courses()))
	return nil
}

// ListCourses returns active courses, optionally filtered by grade
func (s *CourseService) ListCourses(gradeLevel int) ([]models.Course, error) {
	courses, err := s.courses.ListCourses(gradeLevel)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// GetCourse resolves a course by numeric ID or course key. When the key is
// unknown but matches a built-in template, the template is inserted on the
// fly so stale databases self-heal instead of returning 404.
func (s *CourseService) GetCourse(ref string) (*models.Course, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		course, err := s.courses.GetCourseByID(id)
		if err != nil || course != nil {
			return course, err
		}
	}

	course, err := s.courses.GetCourseByKey(ref)
	if err != nil {
		return nil, err
	}
	if course == nil {
		course, err = s.courses.GetCourseByKey(content.NormalizeKey(ref))
		if err != nil {
			return nil, err
		}
	}
	if course != nil {
		return course, nil
	}

	template, ok := content.FindCourseTemplate(ref)
	if !ok {
		return nil, nil
	}
	created, err := s.courses.CreateCourse(template)
	if err != nil {
		// lost a race with a concurrent self-heal; re-read
		if existing, readErr := s.courses.GetCourseByKey(template.CourseKey); readErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	log.Printf("Self-healed missing course %q from built-in template", template.CourseKey)
	return created, nil
}

// CourseWithProgress bundles a course with one student's section records
type CourseWithProgress struct {
	Course   *models.Course    `json:"course"`
	Progress []models.Progress `json:"progress"`
	Complete bool              `json:"complete"`
	IsLocked bool              `json:"isLocked"`
}

// GetCourseForUser returns a course plus the student's progress in it
func (s *CourseService) GetCourseForUser(ref string, userID int64) (*CourseWithProgress, error) {
	course, err := s.GetCourse(ref)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, nil
	}
	records, err := s.progress.ListCourseProgress(userID, course.ID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Progress{}
	}
	complete, err := s.isComplete(userID, course)
	if err != nil {
		return nil, err
	}
	locked, err := s.users.IsCourseLocked(userID, course.ID)
	if err != nil {
		return nil, err
	}
	return &CourseWithProgress{Course: course, Progress: records, Complete: complete, IsLocked: locked}, nil
}

// requireUnlocked rejects submissions into a course the student's teacher
// has locked
func (s *CourseService) requireUnlocked(userID, courseID int64) error {
	locked, err := s.users.IsCourseLocked(userID, courseID)
	if err != nil {
		return err
	}
	if locked {
		return ErrCourseLocked
	}
	return nil
}

// WatchVideo marks a course's video section completed. Videos carry no
// score and award no points, but count toward course completion.
func (s *CourseService) WatchVideo(userID int64, ref string, timeSpent int64) (*SubmissionOutcome, error) {
	course, err := s.GetCourse(ref)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrActivityNotFound
	}
	if err := s.requireUnlocked(userID, course.ID); err != nil {
		return nil, err
	}

	outcome, err := s.tracker.submit(userID, submissionInput{
		CourseID:      &course.ID,
		CourseSection: models.SectionVideo,
		SectionID:     models.SectionVideo,
		Category:      course.Category,
		TimeSpent:     timeSpent,
		AutoComplete:  true,
	})
	if err != nil {
		return nil, err
	}

	completionBadges, err := s.checkCourseCompletion(userID, course)
	if err != nil {
		return nil, err
	}
	outcome.NewBadges = append(outcome.NewBadges, completionBadges...)
	return outcome, nil
}

// SubmitExercise records one course exercise attempt
func (s *CourseService) SubmitExercise(userID int64, ref, sectionID string, score, maxScore, timeSpent int64, answers, patterns json.RawMessage) (*SubmissionOutcome, error) {
	course, err := s.GetCourse(ref)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrActivityNotFound
	}
	exercise, ok := course.FindExercise(sectionID)
	if !ok {
		return nil, ErrActivityNotFound
	}
	if err := s.requireUnlocked(userID, course.ID); err != nil {
		return nil, err
	}

	points := exercise.Points
	if points <= 0 {
		points = DefaultExercisePoints
	}

	outcome, err := s.tracker.submit(userID, submissionInput{
		CourseID:           &course.ID,
		CourseSection:      models.SectionExercise,
		SectionID:          sectionID,
		Title:              exercise.Title,
		Category:           course.Category,
		Score:              score,
		MaxScore:           maxScore,
		TimeSpent:          timeSpent,
		Answers:            answers,
		BehavioralPatterns: patterns,
		PointsValue:        points,
		CustomBadge:        contentBadge(exercise.Content),
	})
	if err != nil {
		return nil, err
	}

	completionBadges, err := s.checkCourseCompletion(userID, course)
	if err != nil {
		return nil, err
	}
	outcome.NewBadges = append(outcome.NewBadges, completionBadges...)
	return outcome, nil
}

// SubmitGame records one course game attempt
func (s *CourseService) SubmitGame(userID int64, ref, sectionID string, score, maxScore, timeSpent int64, results, patterns json.RawMessage) (*SubmissionOutcome, error) {
	course, err := s.GetCourse(ref)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrActivityNotFound
	}
	game, ok := course.FindGame(sectionID)
	if !ok {
		return nil, ErrActivityNotFound
	}
	if err := s.requireUnlocked(userID, course.ID); err != nil {
		return nil, err
	}

	points := game.Points
	if points <= 0 {
		points = DefaultGamePoints
	}

	outcome, err := s.tracker.submit(userID, submissionInput{
		CourseID:           &course.ID,
		CourseSection:      models.SectionGame,
		SectionID:          sectionID,
		Title:              game.Title,
		Category:           course.Category,
		Score:              score,
		MaxScore:           maxScore,
		TimeSpent:          timeSpent,
		Answers:            results,
		BehavioralPatterns: patterns,
		PointsValue:        points,
		CustomBadge:        contentBadge(game.GameData),
	})
	if err != nil {
		return nil, err
	}

	completionBadges, err := s.checkCourseCompletion(userID, course)
	if err != nil {
		return nil, err
	}
	outcome.NewBadges = append(outcome.NewBadges, completionBadges...)
	return outcome, nil
}

// isComplete reports whether every section of the course is completed:
// the video (when the course has one), every exercise and every game.
func (s *CourseService) isComplete(userID int64, course *models.Course) (bool, error) {
	if course.VideoURL != "" {
		video, err := s.progress.GetSectionProgress(userID, course.ID, models.SectionVideo, models.SectionVideo)
		if err != nil {
			return false, err
		}
		if video == nil || !video.IsCompleted() {
			return false, nil
		}
	}

	records, err := s.progress.ListCourseProgress(userID, course.ID)
	if err != nil {
		return false, err
	}
	var exercises, games int
	for _, p := range records {
		if !p.IsCompleted() {
			continue
		}
		switch p.CourseSection {
		case models.SectionExercise:
			exercises++
		case models.SectionGame:
			games++
		}
	}
	return exercises >= len(course.Exercises) && games >= len(course.Games), nil
}

// checkCourseCompletion awards the course badge and the universal completion
// badge on the first transition to complete. Idempotent: re-evaluation after
// every submission never duplicates an award.
func (s *CourseService) checkCourseCompletion(userID int64, course *models.Course) ([]Badge, error) {
	complete, err := s.isComplete(userID, course)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, nil
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var awarded []Badge
	if course.BadgeName != "" {
		added, err := s.users.AddBadge(userID, course.BadgeName)
		if err != nil {
			return nil, err
		}
		if added {
			awarded = append(awarded, Badge{Name: course.BadgeName, Icon: course.BadgeIcon})
		}
	}
	added, err := s.users.AddBadge(userID, BadgeUniversalCompletion.Name)
	if err != nil {
		return nil, err
	}
	if added {
		awarded = append(awarded, BadgeUniversalCompletion)
	}

	if len(awarded) > 0 {
		s.notifier.AnnounceCourseCompletion(user, course)
		s.notifier.AnnounceBadges(user, awarded)
	}
	return awarded, nil
}

// contentBadge extracts the content-defined reward badge from a section
// document, if any
func contentBadge(doc json.RawMessage) *Badge {
	name, icon := models.RewardBadge(doc)
	if name == "" {
		return nil
	}
	if icon == "" {
		icon = "🎖️"
	}
	return &Badge{Name: name, Icon: icon}
}
