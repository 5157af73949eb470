package service

import (
	"testing"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

func newTeacherEnv(t *testing.T) (*testEnv, *TeacherService, *models.User) {
	t.Helper()
	env := newTestEnv(t)
	quizRepo := repository.NewQuizRepository(env.db)
	assignmentRepo := repository.NewAssignmentRepository(env.db)
	courseRepo := repository.NewCourseRepository(env.db)
	teachers := NewTeacherService(env.db, env.users, env.progressRepo,
		quizRepo, assignmentRepo, env.activities, courseRepo, env.notifier)

	teacher, err := env.users.CreateUser(&models.User{
		Username: "mr_oak", Email: "mr.oak@example.com",
		PasswordHash: "hash", Role: models.RoleTeacher, Level: 1,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return env, teachers, teacher
}

func TestGenerateClassCode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	code, err := GenerateClassCode()
	if err != nil {
		t.Fatalf("GenerateClassCode: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	for _, c := range code {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			t.Errorf("code %q contains invalid character %q", code, c)
		}
	}
}

func TestEnsureClassCodeIsStable(t *testing.T) {
	_, teachers, teacher := newTeacherEnv(t)

	first, err := teachers.EnsureClassCode(teacher.ID)
	if err != nil {
		t.Fatalf("EnsureClassCode: %v", err)
	}
	if first == "" {
		t.Fatal("expected a class code")
	}

	second, err := teachers.EnsureClassCode(teacher.ID)
	if err != nil {
		t.Fatalf("second EnsureClassCode: %v", err)
	}
	if second != first {
		t.Errorf("class code changed: %q then %q", first, second)
	}
}

func TestRosterAndMembershipGates(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "in_class")
	outsider := env.createStudent(t, "outsider")

	if _, err := teachers.AddStudent(teacher.ID, "in_class"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	if _, err := teachers.AddStudent(teacher.ID, "no_such_kid"); err != ErrStudentNotFound {
		t.Errorf("unknown identifier: got %v, want ErrStudentNotFound", err)
	}

	roster, err := teachers.Roster(teacher.ID)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(roster) != 1 || roster[0].ID != student.ID {
		t.Errorf("roster = %+v, want just %d", roster, student.ID)
	}

	if _, err := teachers.StudentProgress(teacher.ID, student.ID); err != nil {
		t.Errorf("StudentProgress for member: %v", err)
	}
	if _, err := teachers.StudentProgress(teacher.ID, outsider.ID); err != ErrNotInClass {
		t.Errorf("StudentProgress for outsider: got %v, want ErrNotInClass", err)
	}
}

func TestResetStudent(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "reset_me")
	if _, err := teachers.AddStudent(teacher.ID, "reset_me"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	lesson := env.createLesson(t, "Lesson", models.CategoryRecycling, 20)
	if _, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 10, 10, 30, nil, nil); err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}

	if err := teachers.ResetStudent(teacher.ID, student.ID); err != nil {
		t.Fatalf("ResetStudent: %v", err)
	}

	stored, err := env.users.GetUserByID(student.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.Points != 0 || stored.Level != 1 {
		t.Errorf("after reset points=%d level=%d, want 0/1", stored.Points, stored.Level)
	}
	if len(stored.Badges) != 0 {
		t.Errorf("after reset badges = %v, want none", stored.Badges)
	}
	records, err := env.tracker.ListUserProgress(student.ID)
	if err != nil {
		t.Fatalf("ListUserProgress: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("after reset progress records = %d, want 0", len(records))
	}

	// the account itself survives
	if stored.Username != "reset_me" {
		t.Errorf("Username = %q, want reset_me", stored.Username)
	}
}

func TestAssignActivity(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "assigned_kid")
	if _, err := teachers.AddStudent(teacher.ID, "assigned_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	lesson := env.createLesson(t, "Homework", models.CategoryWater, 20)

	assignment, err := teachers.Assign(teacher.ID, &models.Assignment{
		StudentID:    student.ID,
		ActivityType: models.AssignLesson,
		ActivityID:   lesson.ID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assignment.Status != models.AssignmentAssigned {
		t.Errorf("Status = %q, want assigned", assignment.Status)
	}

	// assigning an unknown activity fails
	if _, err := teachers.Assign(teacher.ID, &models.Assignment{
		StudentID:    student.ID,
		ActivityType: models.AssignLesson,
		ActivityID:   9999,
	}); err != ErrActivityNotFound {
		t.Errorf("unknown lesson: got %v, want ErrActivityNotFound", err)
	}

	// assigning to a student outside the class fails
	outsider := env.createStudent(t, "free_kid")
	if _, err := teachers.Assign(teacher.ID, &models.Assignment{
		StudentID:    outsider.ID,
		ActivityType: models.AssignLesson,
		ActivityID:   lesson.ID,
	}); err != ErrNotInClass {
		t.Errorf("outsider: got %v, want ErrNotInClass", err)
	}

	// completing the lesson marks the assignment done
	if _, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 10, 10, 30, nil, nil); err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}
	list, err := teachers.StudentAssignments(student.ID)
	if err != nil {
		t.Fatalf("StudentAssignments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("assignments = %d, want 1", len(list))
	}
	if list[0].Status != models.AssignmentCompleted {
		t.Errorf("assignment Status = %q, want completed after passing", list[0].Status)
	}

	// the student was notified about the assignment
	count, err := env.notifier.CountUnread(student.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count == 0 {
		t.Error("expected an assignment notification")
	}
}

func TestMessaging(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "chat_kid")

	sent, err := teachers.SendMessage(teacher.ID, student.ID, "Great work this week!")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent.ID == 0 {
		t.Error("expected a persisted message id")
	}
	if _, err := teachers.SendMessage(student.ID, teacher.ID, "Thanks!"); err != nil {
		t.Fatalf("reply SendMessage: %v", err)
	}
	if _, err := teachers.SendMessage(teacher.ID, 9999, "hello?"); err != ErrUserNotFound {
		t.Errorf("unknown receiver: got %v, want ErrUserNotFound", err)
	}

	conversation, err := teachers.Conversation(teacher.ID, student.ID, 50)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(conversation) != 2 {
		t.Errorf("conversation = %d messages, want 2", len(conversation))
	}
}

func TestRemoveStudent(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "leaving_kid")
	if _, err := teachers.AddStudent(teacher.ID, "leaving_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	if err := teachers.RemoveStudent(teacher.ID, student.ID); err != nil {
		t.Fatalf("RemoveStudent: %v", err)
	}
	roster, err := teachers.Roster(teacher.ID)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("roster = %d students, want 0", len(roster))
	}

	// removing again fails the membership gate
	if err := teachers.RemoveStudent(teacher.ID, student.ID); err != ErrNotInClass {
		t.Errorf("second remove: got %v, want ErrNotInClass", err)
	}

	// the account survives
	stored, err := env.users.GetUserByID(student.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored == nil {
		t.Fatal("student account was deleted")
	}
}

func TestReassignResetsAssignment(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "retry_kid")
	if _, err := teachers.AddStudent(teacher.ID, "retry_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	lesson := env.createLesson(t, "Redo Me", models.CategoryEnergy, 20)

	first, err := teachers.Assign(teacher.ID, &models.Assignment{
		StudentID:    student.ID,
		ActivityType: models.AssignLesson,
		ActivityID:   lesson.ID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// student finishes the lesson
	if _, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 10, 10, 30, nil, nil); err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}

	// assigning the same lesson again reuses the row and resets its status
	second, err := teachers.Assign(teacher.ID, &models.Assignment{
		StudentID:    student.ID,
		ActivityType: models.AssignLesson,
		ActivityID:   lesson.ID,
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("reassign created a new row: id %d then %d", first.ID, second.ID)
	}
	if second.Status != models.AssignmentAssigned {
		t.Errorf("Status = %q, want assigned after reassign", second.Status)
	}

	list, err := teachers.StudentAssignments(student.ID)
	if err != nil {
		t.Fatalf("StudentAssignments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("assignments = %d, want 1", len(list))
	}
	if list[0].Status != models.AssignmentAssigned {
		t.Errorf("stored Status = %q, want assigned", list[0].Status)
	}
	if list[0].CompletedAt != nil {
		t.Error("CompletedAt should be cleared on reassign")
	}
}

func TestReassignQuizClearsAttempts(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "quiz_kid")
	if _, err := teachers.AddStudent(teacher.ID, "quiz_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	quizRepo := repository.NewQuizRepository(env.db)
	quiz, err := quizRepo.CreateQuiz(&models.Quiz{
		Title: "Water Quiz", GradeLevel: 5, TeacherID: teacher.ID,
		Status: models.QuizPublished, Version: 1, PassScore: 70,
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	for _, score := range []int64{4, 6} {
		if _, err := quizRepo.CreateAttempt(&models.QuizAttempt{
			UserID: student.ID, QuizID: quiz.ID, QuizVersion: 1,
			Score: score, Percentage: float64(score) * 10, Status: models.AttemptFail,
		}); err != nil {
			t.Fatalf("CreateAttempt: %v", err)
		}
	}

	if err := teachers.ReassignQuiz(teacher.ID, student.ID, quiz.ID); err != nil {
		t.Fatalf("ReassignQuiz: %v", err)
	}
	n, err := quizRepo.CountAttempts(student.ID, quiz.ID)
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if n != 0 {
		t.Errorf("attempts = %d after reassign, want 0", n)
	}

	// the student hears about the retake
	count, err := env.notifier.CountUnread(student.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count == 0 {
		t.Error("expected a reassignment notification")
	}

	// gates
	outsider := env.createStudent(t, "quiz_outsider")
	if err := teachers.ReassignQuiz(teacher.ID, outsider.ID, quiz.ID); err != ErrNotInClass {
		t.Errorf("outsider: got %v, want ErrNotInClass", err)
	}
	if err := teachers.ReassignQuiz(teacher.ID, student.ID, 9999); err != ErrQuizNotFound {
		t.Errorf("unknown quiz: got %v, want ErrQuizNotFound", err)
	}
}

func TestStudentNotesAndBadgeRemoval(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "noted_kid")
	if _, err := teachers.AddStudent(teacher.ID, "noted_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	note, err := teachers.AddStudentNote(teacher.ID, student.ID, "Struggles with sorting games")
	if err != nil {
		t.Fatalf("AddStudentNote: %v", err)
	}
	if note.ID == 0 {
		t.Error("expected a persisted note id")
	}
	if _, err := teachers.AddStudentNote(teacher.ID, student.ID, ""); err == nil {
		t.Error("empty note should be rejected")
	}
	outsider := env.createStudent(t, "note_outsider")
	if _, err := teachers.AddStudentNote(teacher.ID, outsider.ID, "hi"); err != ErrNotInClass {
		t.Errorf("outsider note: got %v, want ErrNotInClass", err)
	}

	notes, err := env.users.ListStudentNotes(teacher.ID, student.ID)
	if err != nil {
		t.Fatalf("ListStudentNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].Note != "Struggles with sorting games" {
		t.Errorf("notes = %+v, want the one stored note", notes)
	}

	// badge removal
	if _, err := env.users.AddBadge(student.ID, BadgeFirstLesson.Name); err != nil {
		t.Fatalf("AddBadge: %v", err)
	}
	if err := teachers.RemoveStudentBadge(teacher.ID, student.ID, BadgeFirstLesson.Name); err != nil {
		t.Fatalf("RemoveStudentBadge: %v", err)
	}
	stored, err := env.users.GetUserByID(student.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.HasBadge(BadgeFirstLesson.Name) {
		t.Errorf("badge survived removal: %v", stored.Badges)
	}
	if err := teachers.RemoveStudentBadge(teacher.ID, outsider.ID, "x"); err != ErrNotInClass {
		t.Errorf("outsider badge removal: got %v, want ErrNotInClass", err)
	}
}

func TestToggleCourseAccessBlocksSubmissions(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "locked_kid")
	if _, err := teachers.AddStudent(teacher.ID, "locked_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	if err := env.courses.EnsureSeeded(); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}
	const courseKey = "recycling-basics-5"
	course, err := env.courses.GetCourse(courseKey)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}

	locked, err := teachers.ToggleCourseAccess(teacher.ID, student.ID, course.ID)
	if err != nil {
		t.Fatalf("ToggleCourseAccess: %v", err)
	}
	if !locked {
		t.Error("first toggle should lock")
	}

	if _, err := env.courses.SubmitExercise(student.ID, courseKey, "ex1", 10, 10, 10, nil, nil); err != ErrCourseLocked {
		t.Errorf("locked submission: got %v, want ErrCourseLocked", err)
	}
	detail, err := env.courses.GetCourseForUser(courseKey, student.ID)
	if err != nil {
		t.Fatalf("GetCourseForUser: %v", err)
	}
	if !detail.IsLocked {
		t.Error("expected IsLocked in the course detail")
	}

	locked, err = teachers.ToggleCourseAccess(teacher.ID, student.ID, course.ID)
	if err != nil {
		t.Fatalf("second ToggleCourseAccess: %v", err)
	}
	if locked {
		t.Error("second toggle should unlock")
	}
	if _, err := env.courses.SubmitExercise(student.ID, courseKey, "ex1", 10, 10, 10, nil, nil); err != nil {
		t.Errorf("unlocked submission: %v", err)
	}

	if _, err := teachers.ToggleCourseAccess(teacher.ID, student.ID, 9999); err != ErrActivityNotFound {
		t.Errorf("unknown course: got %v, want ErrActivityNotFound", err)
	}
}

func TestStudentFullProfile(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	student := env.createStudent(t, "profiled_kid")
	if _, err := teachers.AddStudent(teacher.ID, "profiled_kid"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	if err := env.courses.EnsureSeeded(); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}

	lesson := env.createLesson(t, "Lesson", models.CategoryWater, 20)
	if _, err := env.tracker.SubmitLesson(student.ID, lesson.ID, 9, 10, 30, nil, nil); err != nil {
		t.Fatalf("SubmitLesson: %v", err)
	}
	game := env.createGame(t, "Game", models.CategoryWater, 20)
	if _, err := env.tracker.SubmitGame(student.ID, game.ID, 9, 10, 30, nil, nil); err != nil {
		t.Fatalf("SubmitGame: %v", err)
	}

	const courseKey = "recycling-basics-5"
	course, err := env.courses.GetCourse(courseKey)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if _, err := env.courses.SubmitExercise(student.ID, courseKey, "ex1", 10, 10, 30, nil, nil); err != nil {
		t.Fatalf("SubmitExercise: %v", err)
	}
	if _, err := teachers.AddStudentNote(teacher.ID, student.ID, "Doing well"); err != nil {
		t.Fatalf("AddStudentNote: %v", err)
	}
	if _, err := teachers.ToggleCourseAccess(teacher.ID, student.ID, course.ID); err != nil {
		t.Fatalf("ToggleCourseAccess: %v", err)
	}

	profile, err := teachers.StudentFullProfile(teacher.ID, student.ID)
	if err != nil {
		t.Fatalf("StudentFullProfile: %v", err)
	}
	if profile.Student.ID != student.ID {
		t.Errorf("Student.ID = %d, want %d", profile.Student.ID, student.ID)
	}
	if len(profile.Lessons) != 1 {
		t.Errorf("Lessons = %d, want 1", len(profile.Lessons))
	}
	if len(profile.Games) != 1 {
		t.Errorf("Games = %d, want 1", len(profile.Games))
	}
	if len(profile.Notes) != 1 || profile.Notes[0].Note != "Doing well" {
		t.Errorf("Notes = %+v, want the stored note", profile.Notes)
	}

	var standing *CourseStanding
	for i := range profile.Courses {
		if profile.Courses[i].CourseID == course.ID {
			standing = &profile.Courses[i]
		}
	}
	if standing == nil {
		t.Fatalf("course %d missing from profile", course.ID)
	}
	if standing.CompletedSections != 1 {
		t.Errorf("CompletedSections = %d, want 1", standing.CompletedSections)
	}
	if standing.TotalSections != course.SectionCount() {
		t.Errorf("TotalSections = %d, want %d", standing.TotalSections, course.SectionCount())
	}
	if want := 100 / course.SectionCount(); standing.Percentage != want {
		t.Errorf("Percentage = %d, want %d", standing.Percentage, want)
	}
	if !standing.IsLocked {
		t.Error("expected the locked course to be flagged")
	}

	outsider := env.createStudent(t, "profile_outsider")
	if _, err := teachers.StudentFullProfile(teacher.ID, outsider.ID); err != ErrNotInClass {
		t.Errorf("outsider profile: got %v, want ErrNotInClass", err)
	}
}

func TestClassFeedbackBroadcast(t *testing.T) {
	env, teachers, teacher := newTeacherEnv(t)
	first := env.createStudent(t, "class_kid_1")
	second := env.createStudent(t, "class_kid_2")
	for _, name := range []string{"class_kid_1", "class_kid_2"} {
		if _, err := teachers.AddStudent(teacher.ID, name); err != nil {
			t.Fatalf("AddStudent %s: %v", name, err)
		}
	}

	// no IDs means the whole class
	notified, err := teachers.SendClassFeedback(teacher.ID, nil, "Well done everyone!")
	if err != nil {
		t.Fatalf("SendClassFeedback: %v", err)
	}
	if notified != 2 {
		t.Errorf("notified = %d, want 2", notified)
	}
	for _, student := range []*models.User{first, second} {
		count, err := env.notifier.CountUnread(student.ID)
		if err != nil {
			t.Fatalf("CountUnread: %v", err)
		}
		if count == 0 {
			t.Errorf("student %d received no feedback notification", student.ID)
		}
	}

	// targeted feedback gates on membership
	outsider := env.createStudent(t, "class_outsider")
	if _, err := teachers.SendClassFeedback(teacher.ID, []int64{outsider.ID}, "hi"); err != ErrNotInClass {
		t.Errorf("outsider target: got %v, want ErrNotInClass", err)
	}
	if _, err := teachers.SendClassFeedback(teacher.ID, []int64{first.ID}, ""); err == nil {
		t.Error("empty message should be rejected")
	}
}
