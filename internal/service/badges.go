package service

import (
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

// Badge pairs a badge name with its display icon
type Badge struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Built-in badge catalog
var (
	BadgeFirstLesson  = Badge{Name: "First Steps", Icon: "👣"}
	BadgeFirstGame    = Badge{Name: "Game Starter", Icon: "🎮"}
	BadgePerfectScore = Badge{Name: "Perfect Score", Icon: "⭐"}

	BadgeRecycleMaster   = Badge{Name: "Recycle Master", Icon: "♻️"}
	BadgeWaterSaver      = Badge{Name: "Water Saver", Icon: "💧"}
	BadgeEnergyHero      = Badge{Name: "Energy Hero", Icon: "⚡"}
	BadgeClimateChampion = Badge{Name: "Climate Champion", Icon: "🌍"}

	BadgeRisingStar    = Badge{Name: "Rising Star", Icon: "🌟"}    // level 5
	BadgeEnviroExpert  = Badge{Name: "Environmental Expert", Icon: "🌳"} // level 10
	BadgeEcoWarrior    = Badge{Name: "Eco Warrior", Icon: "🛡️"}   // level 20
	BadgeCenturion     = Badge{Name: "Centurion", Icon: "💯"}      // 100 points
	BadgePointMaster   = Badge{Name: "Point Master", Icon: "🏆"}   // 500 points
	BadgeEliteLearner  = Badge{Name: "Elite Learner", Icon: "👑"}  // 1000 points
	BadgeKnowledgeSeeker = Badge{Name: "Knowledge Seeker", Icon: "📚"} // 10 lessons
	BadgeLessonMaster    = Badge{Name: "Lesson Master", Icon: "🎓"}    // 25 lessons
	BadgeGameEnthusiast  = Badge{Name: "Game Enthusiast", Icon: "🕹️"} // 10 games
	BadgeGameMaster      = Badge{Name: "Game Master", Icon: "🏅"}      // 25 games

	// Awarded once, on the first course a student fully completes
	BadgeUniversalCompletion = Badge{Name: "Planet Protector", Icon: "🌏"}
)

// CategoryMasteryThreshold is the completed-activity count per environmental
// category that unlocks the category badge.
const CategoryMasteryThreshold = 3

// categoryBadges maps environmental categories to their mastery badge
var categoryBadges = map[string]Badge{
	models.CategoryRecycling: BadgeRecycleMaster,
	models.CategoryWater:     BadgeWaterSaver,
	models.CategoryEnergy:    BadgeEnergyHero,
	models.CategoryClimate:   BadgeClimateChampion,
}

// BadgeIcon returns the catalog icon for a badge name, or a default
func BadgeIcon(name string) string {
	for _, b := range allBadges {
		if b.Name == name {
			return b.Icon
		}
	}
	return "🎖️"
}

var allBadges = []Badge{
	BadgeFirstLesson, BadgeFirstGame, BadgePerfectScore,
	BadgeRecycleMaster, BadgeWaterSaver, BadgeEnergyHero, BadgeClimateChampion,
	BadgeRisingStar, BadgeEnviroExpert, BadgeEcoWarrior,
	BadgeCenturion, BadgePointMaster, BadgeEliteLearner,
	BadgeKnowledgeSeeker, BadgeLessonMaster, BadgeGameEnthusiast, BadgeGameMaster,
	BadgeUniversalCompletion,
}

// BadgeContext is the snapshot a single rule evaluation runs against.
// Aggregates are re-derived from progress rows on every call so eligibility
// always reflects ground truth rather than a drifting counter.
type BadgeContext struct {
	Score    int64
	MaxScore int64
	Category string
	Points   int64
	Level    int64
	Stats    repository.ProgressStats
}

// EvaluateBadgeRules runs the rule table against the snapshot and returns
// the badges earned but not yet held. Pure function; persistence and
// notification are the caller's concern.
func EvaluateBadgeRules(held map[string]bool, ctx BadgeContext) []Badge {
	var earned []Badge
	add := func(b Badge) {
		if !held[b.Name] {
			earned = append(earned, b)
			held[b.Name] = true
		}
	}

	if ctx.Stats.CompletedLessons == 1 {
		add(BadgeFirstLesson)
	}
	if ctx.Stats.CompletedGames == 1 {
		add(BadgeFirstGame)
	}
	if ctx.MaxScore > 0 && ctx.Score == ctx.MaxScore {
		add(BadgePerfectScore)
	}

	if badge, ok := categoryBadges[ctx.Category]; ok {
		if ctx.Stats.CategoryCounts[ctx.Category] >= CategoryMasteryThreshold {
			add(badge)
		}
	}

	if ctx.Points >= 100 {
		add(BadgeCenturion)
	}
	if ctx.Points >= 500 {
		add(BadgePointMaster)
	}
	if ctx.Points >= 1000 {
		add(BadgeEliteLearner)
	}
	if ctx.Level >= 5 {
		add(BadgeRisingStar)
	}
	if ctx.Level >= 10 {
		add(BadgeEnviroExpert)
	}
	if ctx.Level >= 20 {
		add(BadgeEcoWarrior)
	}
	if ctx.Stats.CompletedLessons >= 10 {
		add(BadgeKnowledgeSeeker)
	}
	if ctx.Stats.CompletedLessons >= 25 {
		add(BadgeLessonMaster)
	}
	if ctx.Stats.CompletedGames >= 10 {
		add(BadgeGameEnthusiast)
	}
	if ctx.Stats.CompletedGames >= 25 {
		add(BadgeGameMaster)
	}

	return earned
}
