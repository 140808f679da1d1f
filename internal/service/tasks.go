package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"task_service/internal/apperr"
	"task_service/internal/authz"
	"task_service/internal/models"
	"task_service/internal/storage"

	"github.com/gofrs/uuid"
)

var errTaskNotFound = apperr.NotFound("task not found")

func (s *service) checkAssignee(ctx context.Context, assignee *uuid.UUID) error {
	if assignee == nil {
		return nil
	}

	_, err := s.storage.GetUserByID(ctx, *assignee)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.BadRequest("assigned user does not exist")
	}

	return err
}

func (s *service) CreateTask(ctx context.Context, actor models.User, in models.NewTask) (models.Task, error) {
	const op = "service.CreateTask"

	if err := authz.CanCreateTask(actor); err != nil {
		return models.Task{}, err
	}

	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	if err := validateTitle(in.Title); err != nil {
		return models.Task{}, err
	}
	if err := validateStatus(in.Status); err != nil {
		return models.Task{}, err
	}
	if err := validatePriority(in.Priority); err != nil {
		return models.Task{}, err
	}
	if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	task, err := s.storage.CreateTask(ctx, models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedBy:   actor.ID,
		AssignedTo:  in.AssignedTo,
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("task created",
		slog.String("op", op),
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", actor.ID.String()),
	)

	return task, nil
}

func (s *service) ListTasks(ctx context.Context, actor models.User, filter models.TaskFilter) ([]models.Task, error) {
	const op = "service.ListTasks"

	if err := validateTaskFilter(filter); err != nil {
		return nil, err
	}

	tasks, err := s.storage.ListTasks(ctx, authz.ScopeTaskFilter(actor, filter))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tasks, nil
}

func (s *service) TaskStatistics(ctx context.Context, actor models.User) (models.TaskStatistics, error) {
	const op = "service.TaskStatistics"

	stats, err := s.storage.TaskStatistics(ctx, authz.ScopeTaskFilter(actor, models.TaskFilter{}))
	if err != nil {
		return models.TaskStatistics{}, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (s *service) getTask(ctx context.Context, op string, taskID uuid.UUID) (models.Task, error) {
	task, err := s.storage.GetTaskByID(ctx, taskID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Task{}, errTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

func (s *service) GetTask(ctx context.Context, actor models.User, taskID uuid.UUID) (models.Task, error) {
	const op = "service.GetTask"

	task, err := s.getTask(ctx, op, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := authz.CanReadTask(actor, task); err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (s *service) validateTaskUpdate(ctx context.Context, upd models.TaskUpdate) error {
	if upd.Title.Set {
		if upd.Title.Value == nil {
			return apperr.BadRequest("title cannot be null")
		}
		if err := validateTitle(*upd.Title.Value); err != nil {
			return err
		}
	}
	if upd.Status.Set {
		if upd.Status.Value == nil {
			return apperr.BadRequest("status cannot be null")
		}
		if err := validateStatus(*upd.Status.Value); err != nil {
			return err
		}
	}
	if upd.Priority.Set {
		if upd.Priority.Value == nil {
			return apperr.BadRequest("priority cannot be null")
		}
		if err := validatePriority(*upd.Priority.Value); err != nil {
			return err
		}
	}
	if upd.AssignedTo.Set {
		return s.checkAssignee(ctx, upd.AssignedTo.Value)
	}
	return nil
}

// UpdateTask applies upd after the not-found, permission and validation
// checks, in that order. Permission is checked again against the locked
// row so a concurrent reassignment cannot widen the actor's rights.
func (s *service) UpdateTask(ctx context.Context, actor models.User, taskID uuid.UUID, upd models.TaskUpdate) (models.Task, error) {
	const op = "service.UpdateTask"

	current, err := s.getTask(ctx, op, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := authz.CanUpdateTask(actor, current, upd); err != nil {
		return models.Task{}, err
	}

	if err := s.validateTaskUpdate(ctx, upd); err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Title.Set {
		trimmed := strings.TrimSpace(*upd.Title.Value)
		upd.Title.Value = &trimmed
	}

	task, err := s.storage.UpdateTask(ctx, taskID, func(locked *models.Task) error {
		if err := authz.CanUpdateTask(actor, *locked, upd); err != nil {
			return err
		}
		upd.Apply(locked)
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return models.Task{}, errTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("task updated",
		slog.String("op", op),
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", actor.ID.String()),
		slog.Any("fields", upd.Fields()),
	)

	return task, nil
}

func (s *service) DeleteTask(ctx context.Context, actor models.User, taskID uuid.UUID) error {
	const op = "service.DeleteTask"

	task, err := s.getTask(ctx, op, taskID)
	if err != nil {
		return err
	}

	if err := authz.CanDeleteTask(actor, task); err != nil {
		return err
	}

	err = s.storage.DeleteTask(ctx, taskID)
	if errors.Is(err, storage.ErrNotFound) {
		return errTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("task deleted",
		slog.String("op", op),
		slog.String("task_id", taskID.String()),
		slog.String("user_id", actor.ID.String()),
	)

	return nil
}
