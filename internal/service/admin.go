package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"task_service/internal/apperr"
	"task_service/internal/authz"
	"task_service/internal/models"
	"task_service/internal/storage"

	"github.com/gofrs/uuid"
)

var errUserNotFound = apperr.NotFound("user not found")

func (s *service) ListUsers(ctx context.Context, actor models.User) ([]models.User, error) {
	const op = "service.ListUsers"

	if err := authz.CanListUsers(actor); err != nil {
		return nil, err
	}

	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// lookupTarget resolves the user an admin action is aimed at. The admin
// check comes first so that non-admins cannot probe for user ids.
func (s *service) lookupTarget(ctx context.Context, op string, actor models.User, targetID uuid.UUID) (models.User, error) {
	if err := authz.CanManageUsers(actor); err != nil {
		return models.User{}, err
	}

	target, err := s.storage.GetUserByID(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, errUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return target, nil
}

func (s *service) ChangeRole(ctx context.Context, actor models.User, targetID uuid.UUID, role models.Role) (models.User, error) {
	const op = "service.ChangeRole"

	target, err := s.lookupTarget(ctx, op, actor, targetID)
	if err != nil {
		return models.User{}, err
	}

	if err := authz.CanChangeRole(actor, target.ID); err != nil {
		return models.User{}, err
	}

	if err := validateRole(role); err != nil {
		return models.User{}, err
	}

	user, err := s.storage.UpdateUserRole(ctx, target.ID, role)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, errUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user role changed",
		slog.String("op", op),
		slog.String("admin_id", actor.ID.String()),
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(role)),
	)

	return user, nil
}

// DeleteUser removes the target and, through storage, every task they
// created or were assigned.
func (s *service) DeleteUser(ctx context.Context, actor models.User, targetID uuid.UUID) error {
	const op = "service.DeleteUser"

	target, err := s.lookupTarget(ctx, op, actor, targetID)
	if err != nil {
		return err
	}

	if err := authz.CanDeleteUser(actor, target.ID); err != nil {
		return err
	}

	err = s.storage.DeleteUser(ctx, target.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return errUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted",
		slog.String("op", op),
		slog.String("admin_id", actor.ID.String()),
		slog.String("user_id", target.ID.String()),
	)

	return nil
}
