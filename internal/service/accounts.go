package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"task_service/internal/apperr"
	"task_service/internal/auth"
	"task_service/internal/models"
	"task_service/internal/storage"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular user. Accounts are never created as admin here.
func (s *service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	const op = "service.Register"

	log := s.log.With(slog.String("op", op))

	email := normalizeEmail(in.Email)
	if err := validateName(in.Name); err != nil {
		return models.User{}, err
	}
	if err := s.validateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return models.User{}, err
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	})
	if errors.Is(err, storage.ErrEmailTaken) {
		return models.User{}, apperr.BadRequest("email already registered")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))

	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	const op = "service.Login"

	log := s.log.With(slog.String("op", op))

	user, err := s.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return models.TokenPair{}, apperr.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if ok := auth.CheckPasswordHash(user.PasswordHash, password); !ok {
		log.Debug("wrong password", slog.String("user_id", user.ID.String()))

		return models.TokenPair{}, apperr.Unauthenticated("invalid email or password")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))

	return pair, nil
}

// RefreshTokens trades a valid refresh token for a new token pair. The
// presented token stays valid until it expires.
func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	const op = "service.RefreshTokens"

	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return models.TokenPair{}, apperr.Unauthenticated("invalid or expired refresh token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.TokenPair{}, apperr.Unauthenticated("invalid or expired refresh token")
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.TokenPair{}, apperr.Unauthenticated("invalid or expired refresh token")
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}
