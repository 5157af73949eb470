package models

import (
	"encoding/json"
	"time"
)

// Environmental categories shared by lessons, games and courses
const (
	CategoryRecycling = "recycling"
	CategoryWater     = "water"
	CategoryEnergy    = "energy"
	CategoryClimate   = "climate"
	CategoryGeneral   = "general"
)

// Lesson is a standalone learning activity outside any course.
type Lesson struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	VideoURL    string          `json:"videoUrl,omitempty"`
	Category    string          `json:"category"`
	Difficulty  string          `json:"difficulty"`
	Duration    int64           `json:"duration"` // minutes
	Points      int64           `json:"points"`
	SortOrder   int64           `json:"sortOrder"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Game is a standalone mini-game outside any course.
type Game struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Difficulty  string          `json:"difficulty"`
	GameData    json.RawMessage `json:"gameData,omitempty"`
	Points      int64           `json:"points"`
	TimeLimit   int64           `json:"timeLimit"` // seconds, 0 = none
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}
