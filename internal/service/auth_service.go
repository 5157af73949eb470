package service

import (
	"errors"
	"fmt"
	"strings"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
	"ecolearn/internal/security"
	"ecolearn/internal/validation"
)

var (
	// ErrInvalidCredentials is returned on a bad username/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateAccount is returned when username or email is taken
	ErrDuplicateAccount = errors.New("username or email already registered")
	// ErrUnknownClassCode is returned when a student joins a nonexistent class
	ErrUnknownClassCode = errors.New("class code not found")
)

// RegisterInput is the signup payload
type RegisterInput struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	GradeLevel int    `json:"gradeLevel"`
	ClassCode  string `json:"classCode"`
}

// AuthService handles registration, login and token issuance
type AuthService struct {
	users  *repository.UserRepository
	tokens *security.TokenIssuer
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates an account. Students with a class code join that class
// immediately.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateRole(in.Role); err != nil {
		return nil, "", err
	}
	if in.Role == models.RoleStudent {
		if err := validation.ValidateGradeLevel(in.GradeLevel); err != nil {
			return nil, "", err
		}
	}

	if existing, err := s.users.GetUserByUsername(in.Username); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", ErrDuplicateAccount
	}
	if existing, err := s.users.GetUserByEmail(in.Email); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", ErrDuplicateAccount
	}

	var teacher *models.User
	if in.Role == models.RoleStudent && in.ClassCode != "" {
		var err error
		teacher, err = s.users.GetTeacherByClassCode(strings.ToUpper(in.ClassCode))
		if err != nil {
			return nil, "", err
		}
		if teacher == nil {
			return nil, "", ErrUnknownClassCode
		}
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Points:       0,
		Level:        1,
		GradeLevel:   in.GradeLevel,
	}
	if teacher != nil {
		user.ClassCode = teacher.ClassCode
	}

	created, err := s.users.CreateUser(user)
	if err != nil {
		return nil, "", err
	}
	if teacher != nil {
		if err := s.users.AddStudentToTeacher(teacher.ID, created.ID); err != nil {
			return nil, "", err
		}
	}

	token, err := s.tokens.Issue(created.ID, created.Username, created.Role)
	if err != nil {
		return nil, "", err
	}
	return created, token, nil
}

// Login verifies credentials (username or email) and issues a token
func (s *AuthService) Login(identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.users.GetUserByUsername(identifier)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		user, err = s.users.GetUserByEmail(strings.ToLower(identifier))
		if err != nil {
			return nil, "", err
		}
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// OAuthLogin finds or creates the account for a verified OAuth identity
// and issues a token. New OAuth accounts default to the student role.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.User, string, error) {
	user, err := s.users.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, "", err
	}

	if user == nil && email != "" {
		// link by verified email when the account predates the OAuth login
		user, err = s.users.GetUserByEmail(strings.ToLower(email))
		if err != nil {
			return nil, "", err
		}
	}

	if user == nil {
		username := oauthUsername(provider, subject, email)
		user, err = s.users.CreateUser(&models.User{
			Username:      username,
			Email:         strings.ToLower(email),
			PasswordHash:  "-", // no password login for OAuth-only accounts
			Role:          models.RoleStudent,
			FirstName:     name,
			Points:        0,
			Level:         1,
			GradeLevel:    5,
			OAuthProvider: provider,
			OAuthSubject:  subject,
		})
		if err != nil {
			return nil, "", err
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Verify parses a bearer token and returns its claims
func (s *AuthService) Verify(token string) (*security.Claims, error) {
	return s.tokens.Verify(token)
}

// GetUser loads a user by ID
func (s *AuthService) GetUser(userID int64) (*models.User, error) {
	return s.users.GetUserByID(userID)
}

func oauthUsername(provider, subject, email string) string {
	if email != "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			local := email[:at]
			if validation.ValidateUsername(local) == nil {
				return local
			}
		}
	}
	suffix := subject
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s_%s", provider, suffix)
}
