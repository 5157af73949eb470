package models

import "time"

// Notification types
const (
	NotifyBadge       = "badge"
	NotifyLevelUp     = "level_up"
	NotifyCourse      = "course_completed"
	NotifyChildBadge  = "child_badge"
	NotifyChildLevel  = "child_level_up"
	NotifyChildCourse = "child_course_completed"
	NotifyParentAlert = "parent_alert"
	NotifyAssignment  = "assignment"
	NotifyFeedback    = "feedback"
	NotifyMessage     = "message"
)

// Notification is an in-app message delivered to a single user. RelatedTo
// and RelatedID optionally point at the entity the notification is about.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedTo string    `json:"relatedTo,omitempty"`
	RelatedID string    `json:"relatedId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
