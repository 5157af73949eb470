package models

import (
	"encoding/json"
	"time"
)

// Quiz statuses
const (
	QuizDraft     = "draft"
	QuizPublished = "published"
	QuizArchived  = "archived"
)

// Attempt outcomes
const (
	AttemptPass = "pass"
	AttemptFail = "fail"
)

// Quiz is a teacher-authored assessment. Editing a published quiz bumps
// Version; attempts record the version they were taken against.
type Quiz struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	GradeLevel  int             `json:"gradeLevel"`
	CourseKey   string          `json:"courseKey,omitempty"`
	TotalPoints int64           `json:"totalPoints"`
	TimeLimit   int64           `json:"timeLimit"` // minutes, 0 = none
	PassScore   int64           `json:"passScore"` // percentage
	Status      string          `json:"status"`
	Version     int64           `json:"version"`
	Questions   json.RawMessage `json:"questions"`
	TeacherID   int64           `json:"teacherId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsPublished reports whether students can currently take the quiz
func (q *Quiz) IsPublished() bool { return q.Status == QuizPublished }

// QuizQuestion is one question inside a quiz document.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Points        int64    `json:"points"`
}

// QuizAttempt is one student submission against a quiz version.
type QuizAttempt struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	QuizID      int64           `json:"quizId"`
	QuizVersion int64           `json:"quizVersion"`
	Score       int64           `json:"score"`
	Percentage  float64         `json:"percentage"`
	Results     json.RawMessage `json:"results,omitempty"`
	TimeSpent   int64           `json:"timeSpent"`
	Status      string          `json:"status"`
	AttemptedAt time.Time       `json:"attemptedAt"`
}
