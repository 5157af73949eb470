package service

import (
	"errors"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

var (
	// ErrNotYourChild is returned when a parent queries an unlinked student
	ErrNotYourChild = errors.New("student is not linked to this parent")
	// ErrNotAStudent is returned when a parent links a non-student account
	ErrNotAStudent = errors.New("only student accounts can be linked")
)

// ChildOverview is one child's summary on the parent dashboard
type ChildOverview struct {
	Child          models.User              `json:"child"`
	Stats          repository.ProgressStats `json:"stats"`
	RecentActivity []models.Progress        `json:"recentActivity"`
}

// ParentService handles guardian accounts: linking children and reading
// their progress.
type ParentService struct {
	users    *repository.UserRepository
	progress *repository.ProgressRepository
}

// NewParentService creates a new parent service
func NewParentService(users *repository.UserRepository, progress *repository.ProgressRepository) *ParentService {
	return &ParentService{users: users, progress: progress}
}

// LinkChild attaches a student to a parent by username or email
func (s *ParentService) LinkChild(parentID int64, identifier string) (*models.User, error) {
	child, err := s.users.GetUserByUsername(identifier)
	if err != nil {
		return nil, err
	}
	if child == nil {
		child, err = s.users.GetUserByEmail(identifier)
		if err != nil {
			return nil, err
		}
	}
	if child == nil {
		return nil, ErrStudentNotFound
	}
	if !child.IsStudent() {
		return nil, ErrNotAStudent
	}
	if err := s.users.LinkParentChild(parentID, child.ID); err != nil {
		return nil, err
	}
	return child, nil
}

// Children returns the parent's linked students with badges loaded
func (s *ParentService) Children(parentID int64) ([]models.User, error) {
	children, err := s.users.GetChildren(parentID)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []models.User{}
	}
	for i := range children {
		badges, err := s.users.GetBadges(children[i].ID)
		if err != nil {
			return nil, err
		}
		children[i].Badges = badges
	}
	return children, nil
}

// Dashboard returns every child with stats and recent activity
func (s *ParentService) Dashboard(parentID int64) ([]ChildOverview, error) {
	children, err := s.Children(parentID)
	if err != nil {
		return nil, err
	}

	overview := make([]ChildOverview, 0, len(children))
	for _, child := range children {
		stats, err := s.progress.Stats(child.ID)
		if err != nil {
			return nil, err
		}
		recent, err := s.progress.ListRecentProgress(child.ID, 5)
		if err != nil {
			return nil, err
		}
		if recent == nil {
			recent = []models.Progress{}
		}
		overview = append(overview, ChildOverview{
			Child:          child,
			Stats:          *stats,
			RecentActivity: recent,
		})
	}
	return overview, nil
}

// ChildProgress returns one child's full progress, link-gated
func (s *ParentService) ChildProgress(parentID, childID int64) ([]models.Progress, error) {
	linked, err := s.users.IsChildOfParent(parentID, childID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotYourChild
	}
	records, err := s.progress.ListUserProgress(childID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Progress{}
	}
	return records, nil
}
