package service

import (
	"encoding/json"
	"errors"
	"strings"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

// ErrInvalidGradeLevel is returned when a placement request names a grade
// the system doesn't run placement tests for
var ErrInvalidGradeLevel = errors.New("invalid grade level")

// PlacementService records grade placement tests. Each student keeps at most
// one result per grade; retaking the test replaces it.
type PlacementService struct {
	users *repository.UserRepository
	tests *repository.LevelTestRepository
}

// NewPlacementService creates a new placement service
func NewPlacementService(users *repository.UserRepository, tests *repository.LevelTestRepository) *PlacementService {
	return &PlacementService{users: users, tests: tests}
}

// NormalizeGradeLevel parses the grade identifiers clients send. Both the
// bare number and the "Xeme" form are accepted.
func NormalizeGradeLevel(level string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "5", "5eme":
		return 5, nil
	case "6", "6eme":
		return 6, nil
	default:
		return 0, ErrInvalidGradeLevel
	}
}

// Status returns the student's placement result for a grade. When the test
// has not been taken yet it returns an empty, not-completed record rather
// than an error, so clients always get a definite answer.
func (s *PlacementService) Status(userID int64, level string) (*models.LevelTest, error) {
	grade, err := NormalizeGradeLevel(level)
	if err != nil {
		return nil, err
	}
	test, err := s.tests.Get(userID, grade)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return &models.LevelTest{UserID: userID, GradeLevel: grade}, nil
	}
	return test, nil
}

// Submit records a completed placement test, replacing any earlier result
// for the same grade, and stamps the grade onto the student's profile.
func (s *PlacementService) Submit(userID int64, level string, score int64, category string, answers json.RawMessage) (*models.LevelTest, error) {
	grade, err := NormalizeGradeLevel(level)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsStudent() {
		return nil, ErrNotStudent
	}

	test, err := s.tests.Upsert(&models.LevelTest{
		UserID:     userID,
		GradeLevel: grade,
		Score:      score,
		Category:   category,
		Answers:    answers,
		Completed:  true,
	})
	if err != nil {
		return nil, err
	}
	if user.GradeLevel != grade {
		if err := s.users.UpdateGradeLevel(userID, int64(grade)); err != nil {
			return nil, err
		}
	}
	return test, nil
}
