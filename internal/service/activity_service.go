package service

import (
	"errors"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

// ActivityService handles standalone lesson and game catalog operations
type ActivityService struct {
	activities *repository.ActivityRepository
}

// NewActivityService creates a new activity service
func NewActivityService(activities *repository.ActivityRepository) *ActivityService {
	return &ActivityService{activities: activities}
}

// ListLessons returns active lessons, optionally by category
func (s *ActivityService) ListLessons(category string) ([]models.Lesson, error) {
	lessons, err := s.activities.ListLessons(category)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, nil
}

// GetLesson loads one lesson
func (s *ActivityService) GetLesson(lessonID int64) (*models.Lesson, error) {
	return s.activities.GetLessonByID(lessonID)
}

// CreateLesson stores a teacher-authored lesson
func (s *ActivityService) CreateLesson(lesson *models.Lesson) (*models.Lesson, error) {
	if lesson.Title == "" {
		return nil, errors.New("lesson title is required")
	}
	if lesson.Category == "" {
		lesson.Category = models.CategoryGeneral
	}
	if lesson.Difficulty == "" {
		lesson.Difficulty = "beginner"
	}
	if lesson.Points <= 0 {
		lesson.Points = DefaultLessonPoints
	}
	lesson.IsActive = true
	return s.activities.CreateLesson(lesson)
}

// ListGames returns active games, optionally by category
func (s *ActivityService) ListGames(category string) ([]models.Game, error) {
	games, err := s.activities.ListGames(category)
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []models.Game{}
	}
	return games, nil
}

// GetGame loads one game
func (s *ActivityService) GetGame(gameID int64) (*models.Game, error) {
	return s.activities.GetGameByID(gameID)
}

// CreateGame stores a teacher-authored game
func (s *ActivityService) CreateGame(game *models.Game) (*models.Game, error) {
	if game.Title == "" {
		return nil, errors.New("game title is required")
	}
	if game.Type == "" {
		return nil, errors.New("game type is required")
	}
	if game.Category == "" {
		game.Category = models.CategoryGeneral
	}
	if game.Difficulty == "" {
		game.Difficulty = "beginner"
	}
	if game.Points <= 0 {
		game.Points = DefaultGamePoints
	}
	game.IsActive = true
	return s.activities.CreateGame(game)
}
