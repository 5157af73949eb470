package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

// ValidateEmail checks that email is a plausible address.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	if !strings.Contains(strings.SplitN(email, "@", 2)[1], ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateUsername checks length and character set (letters, digits, _ . -).
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is required")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username must be 3-30 characters: letters, digits, _ . -")
	}
	return nil
}

// ValidateName checks a display name: at least 2 characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if len(strings.TrimSpace(name)) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	return nil
}

// ValidatePassword enforces a minimum length of 8 characters.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// ValidateGradeLevel checks a student grade is within K-6 range (1-6).
func ValidateGradeLevel(grade int) error {
	if grade < 1 || grade > 6 {
		return errors.New("grade level must be between 1 and 6")
	}
	return nil
}

// ValidateRole checks the role is one of the three account kinds.
func ValidateRole(role string) error {
	switch role {
	case "student", "teacher", "parent":
		return nil
	}
	return fmt.Errorf("invalid role %q", role)
}
