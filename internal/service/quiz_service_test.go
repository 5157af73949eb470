package service

import (
	"encoding/json"
	"testing"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

func newQuizEnv(t *testing.T) (*testEnv, *QuizService, *models.User) {
	t.Helper()
	env := newTestEnv(t)
	quizzes := NewQuizService(repository.NewQuizRepository(env.db))

	teacher, err := env.users.CreateUser(&models.User{
		Username:     "quiz_teacher",
		Email:        "quiz.teacher@example.com",
		PasswordHash: "hash",
		Role:         models.RoleTeacher,
		Level:        1,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return env, quizzes, teacher
}

func sampleQuestions(t *testing.T) json.RawMessage {
	t.Helper()
	questions := []models.QuizQuestion{
		{ID: "q1", Text: "Which bin takes glass?", Options: []string{"Paper", "Glass", "Compost"}, CorrectOption: 1, Points: 2},
		{ID: "q2", Text: "Water freezes at?", Options: []string{"0C", "10C", "100C"}, CorrectOption: 0, Points: 2},
		{ID: "q3", Text: "Solar power comes from?", Options: []string{"Wind", "The sun", "Coal"}, CorrectOption: 1, Points: 1},
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}
	return raw
}

func TestCreateQuizDefaults(t *testing.T) {
	_, quizzes, teacher := newQuizEnv(t)

	quiz, err := quizzes.CreateQuiz(teacher.ID, &models.Quiz{
		Title:      "Eco Basics",
		GradeLevel: 5,
		Questions:  sampleQuestions(t),
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	if quiz.Status != models.QuizDraft {
		t.Errorf("Status = %q, want draft", quiz.Status)
	}
	if quiz.Version != 1 {
		t.Errorf("Version = %d, want 1", quiz.Version)
	}
	if quiz.PassScore != 70 {
		t.Errorf("PassScore = %d, want default 70", quiz.PassScore)
	}
	if quiz.TotalPoints != 5 {
		t.Errorf("TotalPoints = %d, want 5", quiz.TotalPoints)
	}
}

func TestQuizOwnershipGates(t *testing.T) {
	env, quizzes, teacher := newQuizEnv(t)
	quiz, err := quizzes.CreateQuiz(teacher.ID, &models.Quiz{
		Title: "Owned", GradeLevel: 5, Questions: sampleQuestions(t),
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	other, err := env.users.CreateUser(&models.User{
		Username: "other_teacher", Email: "other@example.com",
		PasswordHash: "hash", Role: models.RoleTeacher, Level: 1,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := quizzes.Publish(other.ID, quiz.ID); err != ErrNotQuizOwner {
		t.Errorf("Publish by non-owner: got %v, want ErrNotQuizOwner", err)
	}
	if err := quizzes.DeleteQuiz(other.ID, quiz.ID); err != ErrNotQuizOwner {
		t.Errorf("Delete by non-owner: got %v, want ErrNotQuizOwner", err)
	}
	if err := quizzes.Publish(teacher.ID, quiz.ID); err != nil {
		t.Errorf("Publish by owner: %v", err)
	}
}

func TestPublishedQuizEditBumpsVersion(t *testing.T) {
	_, quizzes, teacher := newQuizEnv(t)
	quiz, err := quizzes.CreateQuiz(teacher.ID, &models.Quiz{
		Title: "Versioned", GradeLevel: 5, Questions: sampleQuestions(t),
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if err := quizzes.Publish(teacher.ID, quiz.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	published, err := quizzes.GetQuiz(quiz.ID)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}

	// editing the title alone keeps the version
	edit := *published
	edit.Title = "Versioned v2"
	updated, err := quizzes.UpdateQuiz(teacher.ID, &edit)
	if err != nil {
		t.Fatalf("UpdateQuiz: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("Version after title edit = %d, want 1", updated.Version)
	}

	// changing the questions of a published quiz bumps the version
	changed := []models.QuizQuestion{
		{ID: "q1", Text: "New question", Options: []string{"A", "B"}, CorrectOption: 0, Points: 3},
	}
	raw, err := json.Marshal(changed)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}
	edit2 := *updated
	edit2.Questions = raw
	updated2, err := quizzes.UpdateQuiz(teacher.ID, &edit2)
	if err != nil {
		t.Fatalf("UpdateQuiz: %v", err)
	}
	if updated2.Version != 2 {
		t.Errorf("Version after question edit = %d, want 2", updated2.Version)
	}
	if updated2.TotalPoints != 3 {
		t.Errorf("TotalPoints = %d, want recomputed 3", updated2.TotalPoints)
	}
}

func TestSubmitAttemptGrading(t *testing.T) {
	env, quizzes, teacher := newQuizEnv(t)
	student := env.createStudent(t, "quiz_kid")

	quiz, err := quizzes.CreateQuiz(teacher.ID, &models.Quiz{
		Title: "Graded", GradeLevel: 5, Questions: sampleQuestions(t),
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	// drafts cannot be attempted
	if _, err := quizzes.SubmitAttempt(student.ID, quiz.ID, nil, 10); err != ErrQuizNotPublished {
		t.Fatalf("attempt on draft: got %v, want ErrQuizNotPublished", err)
	}
	if err := quizzes.Publish(teacher.ID, quiz.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// q1 correct (2), q2 wrong, q3 correct (1): 3 of 5 points = 60%, fails at 70
	attempt, err := quizzes.SubmitAttempt(student.ID, quiz.ID, []QuizAnswer{
		{QuestionID: "q1", SelectedOption: 1},
		{QuestionID: "q2", SelectedOption: 2},
		{QuestionID: "q3", SelectedOption: 1},
	}, 120)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	if attempt.Score != 3 {
		t.Errorf("Score = %d, want 3", attempt.Score)
	}
	if attempt.Percentage != 60 {
		t.Errorf("Percentage = %v, want 60", attempt.Percentage)
	}
	if attempt.Status != models.AttemptFail {
		t.Errorf("Status = %q, want fail", attempt.Status)
	}
	if attempt.QuizVersion != 1 {
		t.Errorf("QuizVersion = %d, want 1", attempt.QuizVersion)
	}

	var results []QuizAnswerResult
	if err := json.Unmarshal(attempt.Results, &results); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d entries, want 3", len(results))
	}
	if !results[0].Correct || results[1].Correct || !results[2].Correct {
		t.Errorf("per-question correctness = %+v", results)
	}

	// a passing retake: all three correct = 5 of 5
	passing, err := quizzes.SubmitAttempt(student.ID, quiz.ID, []QuizAnswer{
		{QuestionID: "q1", SelectedOption: 1},
		{QuestionID: "q2", SelectedOption: 0},
		{QuestionID: "q3", SelectedOption: 1},
	}, 90)
	if err != nil {
		t.Fatalf("second SubmitAttempt: %v", err)
	}
	if passing.Status != models.AttemptPass {
		t.Errorf("Status = %q, want pass", passing.Status)
	}
	if passing.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", passing.Percentage)
	}

	attempts, err := quizzes.ListAttempts(student.ID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(attempts))
	}
}

func TestSubmitAttemptUnansweredQuestions(t *testing.T) {
	env, quizzes, teacher := newQuizEnv(t)
	student := env.createStudent(t, "partial_kid")

	quiz, err := quizzes.CreateQuiz(teacher.ID, &models.Quiz{
		Title: "Partial", GradeLevel: 5, Questions: sampleQuestions(t),
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if err := quizzes.Publish(teacher.ID, quiz.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	attempt, err := quizzes.SubmitAttempt(student.ID, quiz.ID, []QuizAnswer{
		{QuestionID: "q1", SelectedOption: 1},
	}, 30)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	var results []QuizAnswerResult
	if err := json.Unmarshal(attempt.Results, &results); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	for _, res := range results[1:] {
		if res.SelectedOption != -1 {
			t.Errorf("unanswered question %s SelectedOption = %d, want -1", res.QuestionID, res.SelectedOption)
		}
		if res.Correct {
			t.Errorf("unanswered question %s marked correct", res.QuestionID)
		}
	}
	if attempt.Score != 2 {
		t.Errorf("Score = %d, want 2", attempt.Score)
	}
}
