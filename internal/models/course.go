package models

import (
	"encoding/json"
	"time"
)

// Course section kinds, used as the course_section discriminator on progress rows
const (
	SectionVideo    = "video"
	SectionExercise = "exercise"
	SectionGame     = "game"
)

// Course is a structured unit of study: an ordered set of videos,
// interactive exercises and games, plus a completion badge.
type Course struct {
	ID          int64            `json:"id"`
	CourseKey   string           `json:"courseKey"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category"`
	GradeLevel  int              `json:"gradeLevel"`
	SortOrder   int64            `json:"sortOrder"`
	Icon        string           `json:"icon,omitempty"`
	BadgeName   string           `json:"badgeName,omitempty"`
	BadgeIcon   string           `json:"badgeIcon,omitempty"`
	VideoURL    string           `json:"videoUrl,omitempty"`
	Exercises   []CourseExercise `json:"exercises"`
	Games       []CourseGame     `json:"games"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CourseExercise is one interactive exercise inside a course. Content is an
// exercise-type-specific document; it may carry a rewardBadgeName field.
type CourseExercise struct {
	SectionID string          `json:"sectionId"`
	Title     string          `json:"title"`
	Type      string          `json:"type"` // quiz, matching, sorting, fill-blank
	Points    int64           `json:"points"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// CourseGame is one mini-game inside a course. GameData is game-specific
// and may carry a rewardBadgeName field.
type CourseGame struct {
	SectionID string          `json:"sectionId"`
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	Points    int64           `json:"points"`
	GameData  json.RawMessage `json:"gameData,omitempty"`
}

// rewardDoc extracts the optional content-defined badge from a section document
type rewardDoc struct {
	RewardBadgeName string `json:"rewardBadgeName"`
	RewardBadgeIcon string `json:"rewardBadgeIcon"`
}

// RewardBadge returns the content-defined badge name and icon for a section
// document, or empty strings when the document defines none.
func RewardBadge(doc json.RawMessage) (name, icon string) {
	if len(doc) == 0 {
		return "", ""
	}
	var r rewardDoc
	if err := json.Unmarshal(doc, &r); err != nil {
		return "", ""
	}
	return r.RewardBadgeName, r.RewardBadgeIcon
}

// FindExercise looks up an exercise by its section ID
func (c *Course) FindExercise(sectionID string) (*CourseExercise, bool) {
	for i := range c.Exercises {
		if c.Exercises[i].SectionID == sectionID {
			return &c.Exercises[i], true
		}
	}
	return nil, false
}

// FindGame looks up a game by its section ID
func (c *Course) FindGame(sectionID string) (*CourseGame, bool) {
	for i := range c.Games {
		if c.Games[i].SectionID == sectionID {
			return &c.Games[i], true
		}
	}
	return nil, false
}

// SectionCount returns the total number of completable sections:
// one video (when present) plus every exercise and game.
func (c *Course) SectionCount() int {
	n := len(c.Exercises) + len(c.Games)
	if c.VideoURL != "" {
		n++
	}
	return n
}
