// Package content holds the built-in course templates. The course service
// seeds these when the database has no courses, so the API self-heals
// instead of returning 404s before the seed command has run.
package content

import (
	"encoding/json"
	"strings"

	"ecolearn/internal/models"
)

// Courses returns the built-in environmental course templates.
func Courses() []models.Course {
	return []models.Course{
		{
			CourseKey:   "recycling-basics-5",
			Title:       "Recycling Basics",
			Description: "Learn to sort waste, understand material lifecycles and build recycling habits.",
			Category:    models.CategoryRecycling,
			GradeLevel:  5,
			Icon:        "♻️",
			BadgeName:   "Recycle Master",
			BadgeIcon:   "♻️",
			VideoURL:    "/videos/recycling-basics.mp4",
			Exercises: []models.CourseExercise{
				{SectionID: "ex1", Title: "Sort the bins", Type: "sorting", Points: 25,
					Content: json.RawMessage(`{"rewardBadgeName":"Bin Sorter","rewardBadgeIcon":"🗑️","items":["plastic bottle","banana peel","newspaper","glass jar"],"bins":["recycling","compost","paper","glass"]}`)},
				{SectionID: "ex2", Title: "Material lifecycles", Type: "quiz", Points: 20,
					Content: json.RawMessage(`{"rewardBadgeName":"Lifecycle Expert","rewardBadgeIcon":"🔄","questions":4}`)},
				{SectionID: "ex3", Title: "Reduce, reuse, recycle", Type: "matching", Points: 20,
					Content: json.RawMessage(`{"pairs":[["old jar","pencil holder"],["worn shirt","cleaning rag"],["cardboard box","storage"]]}`)},
			},
			Games: []models.CourseGame{
				{SectionID: "g1", Title: "Recycling relay", Type: "dragdrop", Points: 35,
					GameData: json.RawMessage(`{"timeLimitSec":45,"items":8}`)},
				{SectionID: "g2", Title: "Landfill rescue", Type: "runner", Points: 30,
					GameData: json.RawMessage(`{"collectItems":["♻️","📦","🍾"],"hazardItems":["☣️"],"lives":3,"timeLimitSec":35}`)},
				{SectionID: "g3", Title: "Build a recycling center", Type: "construction", Points: 35,
					GameData: json.RawMessage(`{"rewardBadgeName":"Recycling Architect","rewardBadgeIcon":"🏗️","stations":["sorting","crushing","shipping"]}`)},
			},
			IsActive: true,
		},
		{
			CourseKey:   "water-cycle-5",
			Title:       "The Water Cycle",
			Description: "Follow a water drop through evaporation, condensation and rain, and learn to save every drop.",
			Category:    models.CategoryWater,
			GradeLevel:  5,
			Icon:        "💧",
			BadgeName:   "Water Saver",
			BadgeIcon:   "💧",
			VideoURL:    "/videos/water-cycle.mp4",
			Exercises: []models.CourseExercise{
				{SectionID: "ex1", Title: "Order the water cycle", Type: "sequencing", Points: 25,
					Content: json.RawMessage(`{"rewardBadgeName":"Cycle Navigator","rewardBadgeIcon":"🌀","stages":["evaporation","condensation","precipitation","collection"]}`)},
				{SectionID: "ex2", Title: "States of water", Type: "quiz", Points: 20,
					Content: json.RawMessage(`{"questions":5}`)},
				{SectionID: "ex3", Title: "Spot the water waste", Type: "scenario", Points: 20,
					Content: json.RawMessage(`{"rewardBadgeName":"Drop Defender","rewardBadgeIcon":"🛡️","scenes":["running tap","leaky hose","full bathtub"]}`)},
			},
			Games: []models.CourseGame{
				{SectionID: "g1", Title: "Magic droplet race", Type: "runner", Points: 35,
					GameData: json.RawMessage(`{"rewardBadgeName":"Cloud Rider","rewardBadgeIcon":"☁️","timeLimitSec":40}`)},
				{SectionID: "g2", Title: "Clean the river", Type: "dragdrop", Points: 30,
					GameData: json.RawMessage(`{"tools":["filter","net","settling tank"]}`)},
				{SectionID: "g3", Title: "Rain garden decisions", Type: "decision", Points: 35,
					GameData: json.RawMessage(`{"choices":6}`)},
			},
			IsActive: true,
		},
		{
			CourseKey:   "energy-heroes-6",
			Title:       "Energy Heroes",
			Description: "Discover where electricity comes from and how small habits save big energy.",
			Category:    models.CategoryEnergy,
			GradeLevel:  6,
			Icon:        "⚡",
			BadgeName:   "Energy Hero",
			BadgeIcon:   "⚡",
			VideoURL:    "/videos/energy-heroes.mp4",
			Exercises: []models.CourseExercise{
				{SectionID: "ex1", Title: "Renewable or not?", Type: "sorting", Points: 25,
					Content: json.RawMessage(`{"rewardBadgeName":"Power Sorter","rewardBadgeIcon":"🔌","sources":["solar","coal","wind","gas","hydro"]}`)},
				{SectionID: "ex2", Title: "Energy at home", Type: "quiz", Points: 20,
					Content: json.RawMessage(`{"questions":5}`)},
				{SectionID: "ex3", Title: "Fix the wasteful house", Type: "sticker", Points: 25,
					Content: json.RawMessage(`{"rewardBadgeName":"Home Energy Fixer","rewardBadgeIcon":"🏠","stickers":["LED bulb","thermostat","solar panel"]}`)},
			},
			Games: []models.CourseGame{
				{SectionID: "g1", Title: "Blackout dash", Type: "runner", Points: 40,
					GameData: json.RawMessage(`{"collectItems":["💡","🔋"],"hazardItems":["🕯️"],"lives":3,"timeLimitSec":35}`)},
				{SectionID: "g2", Title: "Power grid puzzle", Type: "flow", Points: 35,
					GameData: json.RawMessage(`{"nodes":7}`)},
				{SectionID: "g3", Title: "Build a clean city", Type: "construction", Points: 40,
					GameData: json.RawMessage(`{"rewardBadgeName":"Clean City Builder","rewardBadgeIcon":"🏙️","pieces":["wind turbine","bike lane","green roof"]}`)},
			},
			IsActive: true,
		},
		{
			CourseKey:   "climate-champions-6",
			Title:       "Climate Champions",
			Description: "Understand climate change causes and become a champion for a cooler planet.",
			Category:    models.CategoryClimate,
			GradeLevel:  6,
			Icon:        "🌍",
			BadgeName:   "Climate Champion",
			BadgeIcon:   "🌍",
			VideoURL:    "/videos/climate-champions.mp4",
			Exercises: []models.CourseExercise{
				{SectionID: "ex1", Title: "Rank the causes", Type: "sequencing", Points: 25,
					Content: json.RawMessage(`{"rewardBadgeName":"Cause Analyst","rewardBadgeIcon":"🧐","causes":["transport","deforestation","factories","food waste"]}`)},
				{SectionID: "ex2", Title: "Greenhouse effect quiz", Type: "quiz", Points: 20,
					Content: json.RawMessage(`{"questions":6}`)},
				{SectionID: "ex3", Title: "Plastic in the ocean", Type: "scenario", Points: 20,
					Content: json.RawMessage(`{"rewardBadgeName":"Ocean Voice","rewardBadgeIcon":"🌊","scenes":3}`)},
			},
			Games: []models.CourseGame{
				{SectionID: "g1", Title: "Carbon countdown", Type: "runner", Points: 35,
					GameData: json.RawMessage(`{"timeLimitSec":40}`)},
				{SectionID: "g2", Title: "Island rescue mission", Type: "runner", Points: 40,
					GameData: json.RawMessage(`{"tasks":["clean","extinguish","plant"],"timeLimitSec":50}`)},
				{SectionID: "g3", Title: "Solution map", Type: "matching", Points: 35,
					GameData: json.RawMessage(`{"rewardBadgeName":"Solution Engineer","rewardBadgeIcon":"🗺️","pairs":5}`)},
			},
			IsActive: true,
		},
	}
}

// NormalizeKey lowercases a course key and folds underscores to hyphens,
// so "Water_Cycle-5" and "water-cycle-5" address the same template.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

// FindCourseTemplate returns the built-in template matching the key,
// tolerating underscore and case differences.
func FindCourseTemplate(key string) (*models.Course, bool) {
	normalized := NormalizeKey(key)
	courses := Courses()
	for i := range courses {
		if courses[i].CourseKey == key || NormalizeKey(courses[i].CourseKey) == normalized {
			return &courses[i], true
		}
	}
	return nil, false
}
