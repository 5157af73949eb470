package service

import (
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
	"ecolearn/internal/validation"
)

// LeaderboardEntry is one row on the points leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Points   int64  `json:"points"`
	Level    int64  `json:"level"`
}

// UserService handles profile reads and the leaderboard
type UserService struct {
	users    *repository.UserRepository
	progress *repository.ProgressRepository
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, progress *repository.ProgressRepository) *UserService {
	return &UserService{users: users, progress: progress}
}

// GetProfile loads a user with badges
func (s *UserService) GetProfile(userID int64) (*models.User, error) {
	return s.users.GetUserByID(userID)
}

// UpdateProfile updates display fields
func (s *UserService) UpdateProfile(userID int64, firstName, lastName, avatar string) (*models.User, error) {
	if err := s.users.UpdateProfile(userID, firstName, lastName, avatar); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(userID)
}

// UpdateGradeLevel moves a student to a different grade
func (s *UserService) UpdateGradeLevel(userID int64, gradeLevel int) (*models.User, error) {
	if err := validation.ValidateGradeLevel(gradeLevel); err != nil {
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
	if err := s.users.UpdateGradeLevel(userID, int64(gradeLevel)); err != nil {
		return nil, err
	}
	user.GradeLevel = gradeLevel
	return user, nil
}

// Leaderboard returns the top students by points
func (s *UserService) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	students, err := s.users.Leaderboard(limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(students))
	for i, student := range students {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   student.ID,
			Username: student.Username,
			Avatar:   student.Avatar,
			Points:   student.Points,
			Level:    student.Level,
		})
	}
	return entries, nil
}

// Dashboard bundles a student's profile with aggregate stats
type Dashboard struct {
	User  *models.User             `json:"user"`
	Stats repository.ProgressStats `json:"stats"`
}

// GetDashboard returns the student home payload
func (s *UserService) GetDashboard(userID int64) (*Dashboard, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	stats, err := s.progress.Stats(userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{User: user, Stats: *stats}, nil
}
