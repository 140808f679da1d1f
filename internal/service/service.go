package service

import (
	"context"
	"log/slog"

	"task_service/internal/auth"
	"task_service/internal/models"
	"task_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

type Service interface {
	// Accounts
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Authenticate(ctx context.Context, credential string) (models.User, error)

	// Tasks
	CreateTask(ctx context.Context, actor models.User, in models.NewTask) (models.Task, error)
	ListTasks(ctx context.Context, actor models.User, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, actor models.User, taskID uuid.UUID) (models.Task, error)
	UpdateTask(ctx context.Context, actor models.User, taskID uuid.UUID, upd models.TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, actor models.User, taskID uuid.UUID) error
	TaskStatistics(ctx context.Context, actor models.User) (models.TaskStatistics, error)

	// User administration
	ListUsers(ctx context.Context, actor models.User) ([]models.User, error)
	ChangeRole(ctx context.Context, actor models.User, targetID uuid.UUID, role models.Role) (models.User, error)
	DeleteUser(ctx context.Context, actor models.User, targetID uuid.UUID) error
}

type service struct {
	storage  storage.Storage
	tokens   *auth.TokenService
	gate     *auth.Authenticator
	validate *validator.Validate
	log      *slog.Logger
}

func NewService(st storage.Storage, tokens *auth.TokenService, lgr *slog.Logger) *service {
	return &service{
		storage:  st,
		tokens:   tokens,
		gate:     auth.NewAuthenticator(tokens, st),
		validate: validator.New(),
		log:      lgr,
	}
}

func (s *service) Authenticate(ctx context.Context, credential string) (models.User, error) {
	return s.gate.Authenticate(ctx, credential)
}
