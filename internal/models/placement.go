package models

import (
	"encoding/json"
	"time"
)

// LevelTest is a student's grade-placement test for one grade level. At most
// one record exists per (user, grade); resubmitting replaces the result.
type LevelTest struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	GradeLevel  int             `json:"level"`
	Score       int64           `json:"score"`
	Category    string          `json:"category,omitempty"`
	Answers     json.RawMessage `json:"answers,omitempty"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// StudentNote is a free-form note a teacher keeps about one of their students.
type StudentNote struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"studentId"`
	TeacherID int64     `json:"teacherId"`
	Note      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
