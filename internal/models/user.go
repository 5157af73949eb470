package models

import "time"

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
)

// User represents any account in the system. Students carry points, level,
// grade level and badges; parents link to children; teachers own a class code.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Points        int64     `json:"points"`
	Level         int64     `json:"level"`
	GradeLevel    int       `json:"gradeLevel,omitempty"` // students only
	ClassCode     string    `json:"classCode,omitempty"`
	Badges        []string  `json:"badges"`
	OAuthProvider string    `json:"-"`
	OAuthSubject  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsStudent reports whether the user is a student account
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// HasBadge reports whether the badge is already in the user's badge set
func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// LevelForPoints computes a student's level from a point total.
// The invariant level == floor(points/100)+1 holds after every mutation.
func LevelForPoints(points int64) int64 {
	if points < 0 {
		points = 0
	}
	return points/100 + 1
}
