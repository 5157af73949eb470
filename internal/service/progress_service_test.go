package service

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"ecolearn/internal/database"
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

// testEnv wires the full service stack against a throwaway SQLite database
type testEnv struct {
	db            *database.DB
	users         *repository.UserRepository
	progressRepo  *repository.ProgressRepository
	activities    *repository.ActivityRepository
	notifications *repository.NotificationRepository
	courseRepo    *repository.CourseRepository

	notifier *NotificationService
	tracker  *ProgressService
	courses  *CourseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		progressRepo:  repository.NewProgressRepository(db),
		activities:    repository.NewActivityRepository(db),
		notifications: repository.NewNotificationRepository(db),
		courseRepo:    repository.NewCourseRepository(db),
	}

	email, err := NewEmailService("eu-west-1", "", "")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}
	env.notifier = NewNotificationService(env.notifications, env.users, email)
	env.tracker = NewProgressService(db, env.users, env.progressRepo,
		env.activities, repository.NewAssignmentRepository(db), env.notifier)
	env.courses = NewCourseService(env.courseRepo, env.progressRepo, env.users, env.tracker, env.notifier)
	return env
}

func (e *testEnv) createStudent(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(&models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleStudent,
		GradeLevel:   5,
		Level:        1,
	})
	if err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}
	return user
}

func (e *testEnv) createLesson(t *testing.T, title, category string, points int64) *models.Lesson {
	t.Helper()
	lesson, err := e.activities.CreateLesson(&models.Lesson{
		Title:    title,
		Category: category,
		Points:   points,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Failed to create lesson: %v", err)
	}
	return lesson
}

func (e *testEnv) createGame(t *testing.T, title, category string, points int64) *models.Game {
	t.Helper()
	game, err := e.activities.CreateGame(&models.Game{
		Title:    title,
		Type:     "sorting",
		Category: category,
		Points:   points,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	return game
}

func TestSubmitLessonFirstCompletion(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "first_pass")
	lesson := env.createLesson(t, "Sorting Basics", models.CategoryRecycling, 20)

	outcome, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 8, 10, 60,
		json.RawMessage(`{"q1":"a"}`), json.RawMessage(`["quick"]`))
	if err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}

	if !outcome.Result.Passed {
		t.Error("expected 8/10 to pass")
	}
	if outcome.Result.Percentage != 80 {
		t.Errorf("Percentage = %v, want 80", outcome.Result.Percentage)
	}
	if outcome.PointsAwarded != 20 {
		t.Errorf("PointsAwarded = %d, want 20", outcome.PointsAwarded)
	}
	if outcome.Points != 20 {
		t.Errorf("Points = %d, want 20", outcome.Points)
	}
	if outcome.Level != 1 {
		t.Errorf("Level = %d, want 1", outcome.Level)
	}
	if outcome.Progress.Status != models.StatusCompleted {
		t.Errorf("Status = %q, want %q", outcome.Progress.Status, models.StatusCompleted)
	}
	if outcome.Progress.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", outcome.Progress.Attempts)
	}
	if outcome.Progress.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	if !badgeNames(outcome.NewBadges)[BadgeFirstLesson.Name] {
		t.Errorf("expected %q in %v", BadgeFirstLesson.Name, outcome.NewBadges)
	}

	// persisted user state must match the outcome
	stored, err := env.users.GetUserByID(student.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.Points != 20 || !stored.HasBadge(BadgeFirstLesson.Name) {
		t.Errorf("stored user points=%d badges=%v", stored.Points, stored.Badges)
	}

	// the student gets an in-app notification for the badge
	count, err := env.notifier.CountUnread(student.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count == 0 {
		t.Error("expected at least one notification after earning a badge")
	}
}

func TestSubmitLessonResubmissionDoesNotReaward(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "resubmit")
	lesson := env.createLesson(t, "Water Drops", models.CategoryWater, 20)

	if _, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 7, 10, 30, nil, nil); err != nil {
		t.Fatalf("first SubmitLesson: %v", err)
	}
	outcome, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 10, 10, 20, nil, nil)
	if err != nil {
		t.Fatalf("second SubmitLesson: %v", err)
	}

	if outcome.PointsAwarded != 0 {
		t.Errorf("PointsAwarded = %d, want 0 on resubmission", outcome.PointsAwarded)
	}
	if outcome.Points != 20 {
		t.Errorf("Points = %d, want 20", outcome.Points)
	}
	if outcome.Progress.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", outcome.Progress.Attempts)
	}
	if outcome.Progress.Score != 10 {
		t.Errorf("Score = %d, want best resubmitted score 10", outcome.Progress.Score)
	}
	if outcome.Progress.TimeSpent != 50 {
		t.Errorf("TimeSpent = %d, want accumulated 50", outcome.Progress.TimeSpent)
	}
}

func TestSubmitLessonFailedAttempt(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "fails_first")
	lesson := env.createLesson(t, "Tough Quiz", models.CategoryEnergy, 20)

	outcome, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 5, 10, 45, nil, nil)
	if err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}

	if outcome.Result.Passed {
		t.Error("expected 5/10 to fail")
	}
	if outcome.Progress.Status != models.StatusFailed {
		t.Errorf("Status = %q, want %q", outcome.Progress.Status, models.StatusFailed)
	}
	if outcome.PointsAwarded != 0 {
		t.Errorf("PointsAwarded = %d, want 0", outcome.PointsAwarded)
	}
	if outcome.Progress.CompletedAt != nil {
		t.Error("expected no CompletedAt on a failed attempt")
	}
	if len(outcome.NewBadges) != 0 {
		t.Errorf("expected no badges, got %v", outcome.NewBadges)
	}
}

func TestCompletedStatusNeverRegresses(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "no_regress")
	lesson := env.createLesson(t, "Climate 101", models.CategoryClimate, 20)

	first, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 9, 10, 30, nil, nil)
	if err != nil {
		t.Fatalf("first SubmitLesson: %v", err)
	}
	completedAt := first.Progress.CompletedAt
	if completedAt == nil {
		t.Fatal("expected CompletedAt after passing")
	}

	second, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 2, 10, 15, nil, nil)
	if err != nil {
		t.Fatalf("second SubmitLesson: %v", err)
	}

	if second.Result.Passed {
		t.Error("expected 2/10 to fail")
	}
	if second.Progress.Status != models.StatusCompleted {
		t.Errorf("Status = %q, want completed to stick", second.Progress.Status)
	}
	if second.Progress.CompletedAt == nil || !second.Progress.CompletedAt.Equal(*completedAt) {
		t.Error("expected CompletedAt to be unchanged by a failed resubmission")
	}
}

func TestSubmitGameAwardsDefaultPoints(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "gamer")
	game := env.createGame(t, "Bin Dash", models.CategoryRecycling, 0)

	outcome, err := env.tracker.SubmitGame(student.ID, game.ID, 10, 10, 90, nil, nil)
	if err != nil {
		t.Fatalf("SubmitGame: %v", err)
	}

	if outcome.PointsAwarded != DefaultGamePoints {
		t.Errorf("PointsAwarded = %d, want default %d", outcome.PointsAwarded, DefaultGamePoints)
	}
	gotBadges := badgeNames(outcome.NewBadges)
	if !gotBadges[BadgeFirstGame.Name] {
		t.Errorf("expected %q in %v", BadgeFirstGame.Name, outcome.NewBadges)
	}
	if !gotBadges[BadgePerfectScore.Name] {
		t.Errorf("expected %q for 10/10 in %v", BadgePerfectScore.Name, outcome.NewBadges)
	}
}

func TestLevelUpAtHundredPoints(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "leveler")

	// five 20-point lessons push the student to exactly 100 points
	var last *SubmissionOutcome
	for i := 0; i < 5; i++ {
		lesson := env.createLesson(t, "Lesson", models.CategoryGeneral, 20)
		outcome, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 10, 10, 10, nil, nil)
		if err != nil {
			t.Fatalf("SubmitLesson %d: %v", i, err)
		}
		last = outcome
	}

	if last.Points != 100 {
		t.Errorf("Points = %d, want 100", last.Points)
	}
	if last.Level != 2 {
		t.Errorf("Level = %d, want 2", last.Level)
	}
	if !last.LeveledUp {
		t.Error("expected LeveledUp on the crossing submission")
	}
	if !badgeNames(last.NewBadges)[BadgeCenturion.Name] {
		t.Errorf("expected %q at 100 points, got %v", BadgeCenturion.Name, last.NewBadges)
	}
}

func TestCategoryMasteryBadge(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "recycler")

	var last *SubmissionOutcome
	for i := 0; i < CategoryMasteryThreshold; i++ {
		lesson := env.createLesson(t, "Recycling", models.CategoryRecycling, 10)
		outcome, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 10, 10, 10, nil, nil)
		if err != nil {
			t.Fatalf("SubmitLesson %d: %v", i, err)
		}
		last = outcome
	}

	if !badgeNames(last.NewBadges)[BadgeRecycleMaster.Name] {
		t.Errorf("expected %q after %d recycling completions, got %v",
			BadgeRecycleMaster.Name, CategoryMasteryThreshold, last.NewBadges)
	}
}

func TestVideoViewsDoNotCountTowardCategoryMastery(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "video_watcher")
	if err := env.courses.EnsureSeeded(); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}

	// watching the recycling course video completes a categorized row
	if _, err := env.courses.WatchVideo(student.ID, "recycling-basics-5", 60); err != nil {
		t.Fatalf("WatchVideo: %v", err)
	}

	// real activities stay one short of the mastery threshold
	var last *SubmissionOutcome
	for i := 0; i < CategoryMasteryThreshold-1; i++ {
		game := env.createGame(t, "Sort It", models.CategoryRecycling, 10)
		outcome, err := env.tracker.SubmitGame(student.ID, game.ID, 8, 10, 30, nil, nil)
		if err != nil {
			t.Fatalf("SubmitGame %d: %v", i, err)
		}
		last = outcome
	}
	if badgeNames(last.NewBadges)[BadgeRecycleMaster.Name] {
		t.Errorf("mastery badge awarded with the video padding the count: %v", last.NewBadges)
	}
	stored, err := env.users.GetUserByID(student.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.HasBadge(BadgeRecycleMaster.Name) {
		t.Errorf("stored badges include %q too early: %v", BadgeRecycleMaster.Name, stored.Badges)
	}

	// the crossing activity must be a real one
	game := env.createGame(t, "Sort It Again", models.CategoryRecycling, 10)
	outcome, err := env.tracker.SubmitGame(student.ID, game.ID, 8, 10, 30, nil, nil)
	if err != nil {
		t.Fatalf("final SubmitGame: %v", err)
	}
	if !badgeNames(outcome.NewBadges)[BadgeRecycleMaster.Name] {
		t.Errorf("expected %q after %d real completions, got %v",
			BadgeRecycleMaster.Name, CategoryMasteryThreshold, outcome.NewBadges)
	}
}

func TestFailedAttemptAlertsGuardians(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "struggling_kid")
	parent, err := env.users.CreateUser(&models.User{
		Username:     "worried_parent",
		Email:        "worried.parent@example.com",
		PasswordHash: "hash",
		Role:         models.RoleParent,
		Level:        1,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := env.users.LinkParentChild(parent.ID, student.ID); err != nil {
		t.Fatalf("LinkParentChild: %v", err)
	}
	game := env.createGame(t, "Bin Dash", models.CategoryRecycling, 20)

	outcome, err := env.tracker.SubmitGame(student.ID, game.ID, 5, 10, 30, nil, nil)
	if err != nil {
		t.Fatalf("SubmitGame: %v", err)
	}
	if outcome.Result.Passed {
		t.Fatal("expected 5/10 to fail")
	}

	// the failure lands in the behavioral pattern log
	var patterns []struct {
		Type        string `json:"type"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(outcome.Progress.BehavioralPatterns, &patterns); err != nil {
		t.Fatalf("unmarshal patterns %s: %v", outcome.Progress.BehavioralPatterns, err)
	}
	if len(patterns) != 1 {
		t.Fatalf("patterns = %d, want 1", len(patterns))
	}
	if patterns[0].Type != "negative" || patterns[0].Category != models.CategoryRecycling {
		t.Errorf("pattern = %+v, want negative/recycling", patterns[0])
	}
	if !strings.Contains(patterns[0].Description, "Bin Dash") || !strings.Contains(patterns[0].Description, "50%") {
		t.Errorf("Description = %q, want the activity title and score", patterns[0].Description)
	}

	// the guardian got a parent alert
	notifications, err := env.notifier.List(parent.ID, false, 10)
	if err != nil {
		t.Fatalf("List notifications: %v", err)
	}
	var alert *models.Notification
	for i := range notifications {
		if notifications[i].Type == models.NotifyParentAlert {
			alert = &notifications[i]
		}
	}
	if alert == nil {
		t.Fatalf("no parent alert among %+v", notifications)
	}
	if alert.Title != "Behavioral Alert" {
		t.Errorf("Title = %q, want Behavioral Alert", alert.Title)
	}
	if !strings.Contains(alert.Message, "struggling_kid") || !strings.Contains(alert.Message, models.CategoryRecycling) {
		t.Errorf("Message = %q, want the student and category named", alert.Message)
	}

	// passing attempts stay silent
	if _, err := env.tracker.SubmitGame(student.ID, game.ID, 9, 10, 30, nil, nil); err != nil {
		t.Fatalf("passing SubmitGame: %v", err)
	}
	after, err := env.notifier.List(parent.ID, false, 10)
	if err != nil {
		t.Fatalf("second List: %v", err)
	}
	alerts := 0
	for _, n := range after {
		if n.Type == models.NotifyParentAlert {
			alerts++
		}
	}
	if alerts != 1 {
		t.Errorf("parent alerts = %d after a passing attempt, want still 1", alerts)
	}
}

func TestSubmitRejectsNonStudents(t *testing.T) {
	env := newTestEnv(t)
	teacher, err := env.users.CreateUser(&models.User{
		Username:     "ms_green",
		Email:        "ms.green@example.com",
		PasswordHash: "hash",
		Role:         models.RoleTeacher,
		Level:        1,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	lesson := env.createLesson(t, "Lesson", models.CategoryGeneral, 10)

	if _, err := env.tracker.SubmitLesson(teacher.ID, lesson.ID, 10, 10, 10, nil, nil); err != ErrNotStudent {
		t.Errorf("expected ErrNotStudent, got %v", err)
	}
}

func TestSubmitUnknownActivity(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "lost")

	if _, err := env.tracker.SubmitLesson(student.ID, 9999, 10, 10, 10, nil, nil); err != ErrActivityNotFound {
		t.Errorf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestStartLessonOpensInProgressRecord(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "starter_kid")
	lesson := env.createLesson(t, "Long Read", models.CategoryWater, 20)

	record, err := env.tracker.StartLesson(student.ID, lesson.ID)
	if err != nil {
		t.Fatalf("StartLesson: %v", err)
	}
	if record.Status != models.StatusInProgress {
		t.Errorf("Status = %q, want in_progress", record.Status)
	}
	if record.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 before any submission", record.Attempts)
	}

	// starting again returns the same record
	again, err := env.tracker.StartLesson(student.ID, lesson.ID)
	if err != nil {
		t.Fatalf("second StartLesson: %v", err)
	}
	if again.ID != record.ID {
		t.Errorf("second start created a new record: %d then %d", record.ID, again.ID)
	}

	// a later submission completes the same record
	outcome, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 9, 10, 40, nil, nil)
	if err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}
	if outcome.Progress.ID != record.ID {
		t.Errorf("submission used record %d, want %d", outcome.Progress.ID, record.ID)
	}
	if !outcome.Progress.IsCompleted() {
		t.Error("record should be completed after a passing submission")
	}
	if outcome.PointsAwarded != 20 {
		t.Errorf("PointsAwarded = %d, want 20", outcome.PointsAwarded)
	}

	if _, err := env.tracker.StartLesson(student.ID, 9999); err != ErrActivityNotFound {
		t.Errorf("unknown lesson: got %v, want ErrActivityNotFound", err)
	}
}

func TestAwardPointsDirectly(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "bonus_kid")

	outcome, err := env.tracker.AwardPoints(student.ID, 120)
	if err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}
	if outcome.Points != 120 {
		t.Errorf("Points = %d, want 120", outcome.Points)
	}
	if outcome.Level != 2 || !outcome.LeveledUp {
		t.Errorf("Level = %d LeveledUp = %v, want level 2 after 120 points", outcome.Level, outcome.LeveledUp)
	}
	if !badgeNames(outcome.NewBadges)[BadgeCenturion.Name] {
		t.Errorf("NewBadges = %v, want the 100-point milestone", badgeNames(outcome.NewBadges))
	}

	stored, err := env.users.GetUserByID(student.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.Points != 120 || stored.Level != 2 {
		t.Errorf("stored points=%d level=%d, want 120/2", stored.Points, stored.Level)
	}

	if _, err := env.tracker.AwardPoints(student.ID, 0); err == nil {
		t.Error("zero points should be rejected")
	}
	if _, err := env.tracker.AwardPoints(9999, 10); err != ErrUserNotFound {
		t.Errorf("unknown user: got %v, want ErrUserNotFound", err)
	}
}
