package models

import "time"

// Assignment activity types
const (
	AssignLesson = "lesson"
	AssignGame   = "game"
)

// Assignment statuses
const (
	AssignmentAssigned  = "assigned"
	AssignmentCompleted = "completed"
)

// Assignment is a teacher directing a student to a specific activity.
type Assignment struct {
	ID           int64      `json:"id"`
	TeacherID    int64      `json:"teacherId"`
	StudentID    int64      `json:"studentId"`
	ActivityType string     `json:"activityType"`
	ActivityID   int64      `json:"activityId"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Difficulty   string     `json:"difficulty"`
	Status       string     `json:"status"`
	AssignedAt   time.Time  `json:"assignedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Message is a direct message between users (teacher/parent and student).
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
