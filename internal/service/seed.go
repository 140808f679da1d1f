package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"task_service/internal/auth"
	"task_service/internal/models"
	"task_service/internal/storage"
)

const generatedPasswordLength = 20

// EnsureAdmin creates the bootstrap admin account if no user with email
// exists. When password is empty a random one is generated and returned so
// the caller can report it once. An existing non-admin account with the
// same email is left untouched.
func (s *service) EnsureAdmin(ctx context.Context, name, email, password string) (string, error) {
	const op = "service.EnsureAdmin"

	log := s.log.With(slog.String("op", op))

	email = normalizeEmail(email)
	if email == "" {
		return "", nil
	}

	existing, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			log.Warn("bootstrap admin email belongs to a regular user, not promoting", slog.String("user_id", existing.ID.String()))
		}
		return "", nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	generated := ""
	if password == "" {
		password, err = auth.RandomString(generatedPasswordLength)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		generated = password
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("bootstrap admin created", slog.String("user_id", user.ID.String()))

	return generated, nil
}
