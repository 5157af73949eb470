package models

import (
	"encoding/json"
	"time"
)

// Progress statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Progress is one student's record against one activity: a legacy lesson or
// game, or a single section of a course. Exactly one of LessonID, GameID or
// the CourseID/CourseSection/SectionID triple identifies the activity.
type Progress struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"userId"`
	LessonID           *int64          `json:"lessonId,omitempty"`
	GameID             *int64          `json:"gameId,omitempty"`
	CourseID           *int64          `json:"courseId,omitempty"`
	CourseSection      string          `json:"courseSection,omitempty"`
	SectionID          string          `json:"sectionId,omitempty"`
	Status             string          `json:"status"`
	Score              int64           `json:"score"`
	MaxScore           int64           `json:"maxScore"`
	TimeSpent          int64           `json:"timeSpent"` // seconds
	Attempts           int64           `json:"attempts"`
	Category           string          `json:"category,omitempty"`
	Answers            json.RawMessage `json:"answers,omitempty"`
	Feedback           string          `json:"feedback,omitempty"`
	BehavioralPatterns json.RawMessage `json:"behavioralPatterns,omitempty"`
	LastAttempt        time.Time       `json:"lastAttempt"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// IsCompleted reports whether this record has ever reached completed status
func (p *Progress) IsCompleted() bool { return p.Status == StatusCompleted }
