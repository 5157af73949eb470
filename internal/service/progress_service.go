package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

var (
	// ErrUserNotFound is returned when the target user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrActivityNotFound is returned when a lesson, game or course section
	// cannot be resolved
	ErrActivityNotFound = errors.New("activity not found")
	// ErrNotStudent is returned when a progress operation targets a
	// non-student account
	ErrNotStudent = errors.New("user is not a student")
)

// Default point values for activities that declare none
const (
	DefaultExercisePoints = 10
	DefaultLessonPoints   = 20
	DefaultGamePoints     = 20
)

// SubmissionOutcome is everything a submission changed, assembled for the
// HTTP response.
type SubmissionOutcome struct {
	Progress      *models.Progress `json:"progress"`
	Result        ScoreResult      `json:"result"`
	NewBadges     []Badge          `json:"newBadges"`
	PointsAwarded int64            `json:"pointsAwarded"`
	Points        int64            `json:"points"`
	Level         int64            `json:"level"`
	LeveledUp     bool             `json:"leveledUp"`
}

// submissionInput carries one attempt through the recording pipeline
type submissionInput struct {
	LessonID           *int64
	GameID             *int64
	CourseID           *int64
	CourseSection      string
	SectionID          string
	Title              string
	Category           string
	Score              int64
	MaxScore           int64
	TimeSpent          int64
	Answers            json.RawMessage
	BehavioralPatterns json.RawMessage
	PointsValue        int64
	CustomBadge        *Badge
	// video sections complete without scoring or points
	AutoComplete bool
}

// ProgressService records attempts and drives the points, level and badge
// chain. Each submission runs inside one transaction; notifications go out
// best-effort after commit.
type ProgressService struct {
	db          *database.DB
	users       *repository.UserRepository
	progress    *repository.ProgressRepository
	activities  *repository.ActivityRepository
	assignments *repository.AssignmentRepository
	notifier    *NotificationService
}

// NewProgressService creates a new progress service
func NewProgressService(
	db *database.DB,
	users *repository.UserRepository,
	progress *repository.ProgressRepository,
	activities *repository.ActivityRepository,
	assignments *repository.AssignmentRepository,
	notifier *NotificationService,
) *ProgressService {
	return &ProgressService{
		db:          db,
		users:       users,
		progress:    progress,
		activities:  activities,
		assignments: assignments,
		notifier:    notifier,
	}
}

// SubmitLesson records an attempt against a standalone lesson
func (s *ProgressService) SubmitLesson(userID, lessonID, score, maxScore, timeSpent int64, answers, patterns json.RawMessage) (*SubmissionOutcome, error) {
	lesson, err := s.activities.GetLessonByID(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrActivityNotFound
	}
	points := lesson.Points
	if points <= 0 {
		points = DefaultLessonPoints
	}
	outcome, err := s.submit(userID, submissionInput{
		LessonID:           &lessonID,
		Title:              lesson.Title,
		Category:           lesson.Category,
		Score:              score,
		MaxScore:           maxScore,
		TimeSpent:          timeSpent,
		Answers:            answers,
		BehavioralPatterns: patterns,
		PointsValue:        points,
	})
	if err != nil {
		return nil, err
	}
	if outcome.Result.Passed {
		if err := s.assignments.MarkCompleted(userID, models.AssignLesson, lessonID); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// SubmitGame records an attempt against a standalone game
func (s *ProgressService) SubmitGame(userID, gameID, score, maxScore, timeSpent int64, results, patterns json.RawMessage) (*SubmissionOutcome, error) {
	game, err := s.activities.GetGameByID(gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrActivityNotFound
	}
	points := game.Points
	if points <= 0 {
		points = DefaultGamePoints
	}
	outcome, err := s.submit(userID, submissionInput{
		GameID:             &gameID,
		Title:              game.Title,
		Category:           game.Category,
		Score:              score,
		MaxScore:           maxScore,
		TimeSpent:          timeSpent,
		Answers:            results,
		BehavioralPatterns: patterns,
		PointsValue:        points,
	})
	if err != nil {
		return nil, err
	}
	if outcome.Result.Passed {
		if err := s.assignments.MarkCompleted(userID, models.AssignGame, gameID); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// StartLesson opens an in-progress record for a lesson before the first
// submission, so dashboards can show work in flight. Repeated starts
// return the existing record.
func (s *ProgressService) StartLesson(userID, lessonID int64) (*models.Progress, error) {
	lesson, err := s.activities.GetLessonByID(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrActivityNotFound
	}

	prior, err := s.progress.GetLessonProgress(userID, lessonID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return prior, nil
	}

	record := &models.Progress{
		UserID:      userID,
		LessonID:    &lessonID,
		Status:      models.StatusInProgress,
		Category:    lesson.Category,
		LastAttempt: time.Now(),
	}
	return s.progress.CreateProgress(record)
}

// AwardPoints adds points directly to a student, outside any activity:
// the level is recomputed and milestone badges re-evaluated.
func (s *ProgressService) AwardPoints(userID, amount int64) (*SubmissionOutcome, error) {
	if amount <= 0 {
		return nil, errors.New("points amount must be positive")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	users := s.users.WithTx(tx)
	user, err := users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsStudent() {
		return nil, ErrNotStudent
	}

	outcome := &SubmissionOutcome{Points: user.Points, Level: user.Level}
	if err := s.awardCompletion(tx, user, submissionInput{PointsValue: amount}, ScoreResult{}, outcome); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if outcome.LeveledUp {
		s.notifier.AnnounceLevelUp(user, outcome.Level)
	}
	s.notifier.AnnounceBadges(user, outcome.NewBadges)

	return outcome, nil
}

// ListUserProgress returns every progress record of a user
func (s *ProgressService) ListUserProgress(userID int64) ([]models.Progress, error) {
	records, err := s.progress.ListUserProgress(userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Progress{}
	}
	return records, nil
}

// ListRecentProgress returns a user's latest attempts
func (s *ProgressService) ListRecentProgress(userID int64, limit int) ([]models.Progress, error) {
	return s.progress.ListRecentProgress(userID, limit)
}

// Stats exposes the aggregate snapshot (dashboards reuse the badge counts)
func (s *ProgressService) Stats(userID int64) (*repository.ProgressStats, error) {
	return s.progress.Stats(userID)
}

// submit runs one attempt through record → score → points → badges inside
// a transaction, then dispatches notifications after commit.
func (s *ProgressService) submit(userID int64, in submissionInput) (*SubmissionOutcome, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	users := s.users.WithTx(tx)
	progressRepo := s.progress.WithTx(tx)

	user, err := users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsStudent() {
		return nil, ErrNotStudent
	}

	prior, err := s.lookupProgress(progressRepo, userID, in)
	if err != nil {
		return nil, err
	}

	result := EvaluateScore(in.Score, in.MaxScore)
	if in.AutoComplete {
		result = ScoreResult{Passed: true, Percentage: 100}
	}
	if !result.Passed && !in.AutoComplete {
		in.BehavioralPatterns = appendPatterns(in.BehavioralPatterns, failurePattern(in, result))
	}

	record, err := s.writeProgress(progressRepo, userID, in, prior, result)
	if err != nil {
		return nil, err
	}

	outcome := &SubmissionOutcome{
		Progress: record,
		Result:   result,
		Points:   user.Points,
		Level:    user.Level,
	}

	// Points and badges are keyed to the first successful completion:
	// a resubmission of an already-completed activity never re-awards.
	firstCompletion := result.Passed && (prior == nil || !prior.IsCompleted())
	if firstCompletion && !in.AutoComplete {
		if err := s.awardCompletion(tx, user, in, result, outcome); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if outcome.LeveledUp {
		s.notifier.AnnounceLevelUp(user, outcome.Level)
	}
	s.notifier.AnnounceBadges(user, outcome.NewBadges)
	if !result.Passed && !in.AutoComplete {
		s.notifier.AnnounceStruggle(user, in.Category, result.Percentage)
	}

	return outcome, nil
}

// failurePattern builds the behavioral tag recorded on every failed attempt,
// so struggle trends survive in the progress log.
func failurePattern(in submissionInput, result ScoreResult) json.RawMessage {
	pattern := []map[string]string{{
		"type":        "negative",
		"category":    in.Category,
		"description": fmt.Sprintf("Failed %s with %.0f%% score - needs improvement", in.Title, result.Percentage),
	}}
	buf, err := json.Marshal(pattern)
	if err != nil {
		return nil
	}
	return buf
}

// awardCompletion applies points, recomputes the level and runs the badge
// rule table, all inside the submission's transaction.
func (s *ProgressService) awardCompletion(tx *database.Tx, user *models.User, in submissionInput, result ScoreResult, outcome *SubmissionOutcome) error {
	users := s.users.WithTx(tx)
	progressRepo := s.progress.WithTx(tx)

	newPoints := user.Points + in.PointsValue
	newLevel := models.LevelForPoints(newPoints)
	if err := users.UpdatePointsAndLevel(user.ID, newPoints, newLevel); err != nil {
		return err
	}
	outcome.PointsAwarded = in.PointsValue
	outcome.Points = newPoints
	outcome.Level = newLevel
	outcome.LeveledUp = newLevel > user.Level

	stats, err := progressRepo.Stats(user.ID)
	if err != nil {
		return err
	}

	held := make(map[string]bool, len(user.Badges))
	for _, b := range user.Badges {
		held[b] = true
	}

	earned := EvaluateBadgeRules(held, BadgeContext{
		Score:    in.Score,
		MaxScore: in.MaxScore,
		Category: in.Category,
		Points:   newPoints,
		Level:    newLevel,
		Stats:    *stats,
	})
	if in.CustomBadge != nil && !held[in.CustomBadge.Name] {
		earned = append(earned, *in.CustomBadge)
	}

	for _, badge := range earned {
		added, err := users.AddBadge(user.ID, badge.Name)
		if err != nil {
			return err
		}
		if added {
			outcome.NewBadges = append(outcome.NewBadges, badge)
		}
	}
	return nil
}

func (s *ProgressService) lookupProgress(repo *repository.ProgressRepository, userID int64, in submissionInput) (*models.Progress, error) {
	switch {
	case in.LessonID != nil:
		return repo.GetLessonProgress(userID, *in.LessonID)
	case in.GameID != nil:
		return repo.GetGameProgress(userID, *in.GameID)
	case in.CourseID != nil:
		return repo.GetSectionProgress(userID, *in.CourseID, in.CourseSection, in.SectionID)
	}
	return nil, ErrActivityNotFound
}

// writeProgress creates or updates the attempt record. Resubmissions never
// clobber a stored score, answers or max score with an empty value, and
// completedAt is set exactly once.
func (s *ProgressService) writeProgress(repo *repository.ProgressRepository, userID int64, in submissionInput, prior *models.Progress, result ScoreResult) (*models.Progress, error) {
	status := models.StatusFailed
	if result.Passed {
		status = models.StatusCompleted
	}

	if prior == nil {
		record := &models.Progress{
			UserID:             userID,
			LessonID:           in.LessonID,
			GameID:             in.GameID,
			CourseID:           in.CourseID,
			CourseSection:      in.CourseSection,
			SectionID:          in.SectionID,
			Status:             status,
			Score:              in.Score,
			MaxScore:           in.MaxScore,
			TimeSpent:          in.TimeSpent,
			Attempts:           1,
			Category:           in.Category,
			Answers:            in.Answers,
			BehavioralPatterns: in.BehavioralPatterns,
			LastAttempt:        time.Now(),
		}
		if result.Passed {
			now := time.Now()
			record.CompletedAt = &now
		}
		return repo.CreateProgress(record)
	}

	record := *prior
	record.Attempts++
	record.TimeSpent += in.TimeSpent
	if in.Score > 0 {
		record.Score = in.Score
	}
	if in.MaxScore > 0 {
		record.MaxScore = in.MaxScore
	}
	if len(in.Answers) > 0 {
		record.Answers = in.Answers
	}
	record.BehavioralPatterns = appendPatterns(record.BehavioralPatterns, in.BehavioralPatterns)
	record.Status = status
	if prior.IsCompleted() {
		// a completed record never regresses
		record.Status = models.StatusCompleted
	}
	if record.CompletedAt == nil && result.Passed {
		now := time.Now()
		record.CompletedAt = &now
	}
	record.LastAttempt = time.Now()

	if err := repo.UpdateProgress(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// appendPatterns merges two JSON arrays of behavioral tags, keeping the
// log append-only across resubmissions.
func appendPatterns(existing, incoming json.RawMessage) json.RawMessage {
	if len(incoming) == 0 {
		return existing
	}
	var a, b []json.RawMessage
	if err := json.Unmarshal(existing, &a); err != nil {
		a = nil
	}
	if err := json.Unmarshal(incoming, &b); err != nil {
		return existing
	}
	merged, err := json.Marshal(append(a, b...))
	if err != nil {
		return existing
	}
	return merged
}
