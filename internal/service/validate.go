package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"task_service/internal/apperr"
	"task_service/internal/models"
)

const (
	minNameLength     = 2
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxTitleLength   = 200
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) validateEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperr.BadRequest("invalid email format")
	}
	return nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		return apperr.BadRequest("name must be at least 2 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return apperr.BadRequest("password must be at most 72 bytes")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	switch {
	case !upper:
		return apperr.BadRequest("password must contain an uppercase letter")
	case !lower:
		return apperr.BadRequest("password must contain a lowercase letter")
	case !digit:
		return apperr.BadRequest("password must contain a number")
	}

	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 1 || n > maxTitleLength {
		return apperr.BadRequest("title must be between 1 and 200 characters")
	}
	return nil
}

func validateStatus(status models.Status) error {
	if !status.Valid() {
		return apperr.BadRequest("status must be one of pending, in_progress, completed")
	}
	return nil
}

func validatePriority(priority models.Priority) error {
	if !priority.Valid() {
		return apperr.BadRequest("priority must be one of low, medium, high")
	}
	return nil
}

func validateRole(role models.Role) error {
	if !role.Valid() {
		return apperr.BadRequest("role must be user or admin")
	}
	return nil
}

// validateTaskFilter checks the optional list filters; empty values mean "any".
func validateTaskFilter(filter models.TaskFilter) error {
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return err
		}
	}
	if filter.Priority != "" {
		if err := validatePriority(filter.Priority); err != nil {
			return err
		}
	}
	return nil
}
