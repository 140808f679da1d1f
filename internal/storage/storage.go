package storage

import (
	"context"
	"errors"

	"task_service/internal/models"

	"github.com/gofrs/uuid"
)

const (
	usersTable = "users"
	tasksTable = "tasks"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already taken")
)

// TaskMutator is run inside the update transaction with the locked row.
// Returning an error aborts the update.
type TaskMutator func(task *models.Task) error

type Storage interface {

	// Users
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Tasks
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, mutate TaskMutator) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	TaskStatistics(ctx context.Context, filter models.TaskFilter) (models.TaskStatistics, error)

	Close()
}
