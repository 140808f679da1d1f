package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"task_service/internal/models"

	"github.com/gofrs/uuid"
)

// MemoryStorage keeps everything in process memory. It follows the same
// contract as PostgresStorage, including the cascade on user deletion, and
// is meant for tests and local runs without a database.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
	tasks map[uuid.UUID]models.Task
	now   func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[uuid.UUID]models.User),
		tasks: make(map[uuid.UUID]models.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStorage) CreateUser(_ context.Context, user models.User) (models.User, error) {
	const op = "storage.CreateUser"

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user.ID = id
	user.CreatedAt = m.now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	m.users[id] = user

	return user, nil
}

func (m *MemoryStorage) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	const op = "storage.GetUserByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return user, nil
}

func (m *MemoryStorage) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	const op = "storage.GetUserByEmail"

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}

	return models.User{}, fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (m *MemoryStorage) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

func (m *MemoryStorage) UpdateUserRole(_ context.Context, userID uuid.UUID, role models.Role) (models.User, error) {
	const op = "storage.UpdateUserRole"

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	user.Role = role
	m.users[userID] = user

	return user, nil
}

func (m *MemoryStorage) DeleteUser(_ context.Context, userID uuid.UUID) error {
	const op = "storage.DeleteUser"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	delete(m.users, userID)
	for id, t := range m.tasks {
		if t.CreatedBy == userID || (t.AssignedTo != nil && *t.AssignedTo == userID) {
			delete(m.tasks, id)
		}
	}

	return nil
}

func (m *MemoryStorage) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	const op = "storage.CreateTask"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[task.CreatedBy]; !ok {
		return models.Task{}, fmt.Errorf("%s: creator %s: %w", op, task.CreatedBy, ErrNotFound)
	}
	if task.AssignedTo != nil {
		if _, ok := m.users[*task.AssignedTo]; !ok {
			return models.Task{}, fmt.Errorf("%s: assignee %s: %w", op, *task.AssignedTo, ErrNotFound)
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	now := m.now()
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	m.tasks[id] = task

	return task, nil
}

func (m *MemoryStorage) GetTaskByID(_ context.Context, taskID uuid.UUID) (models.Task, error) {
	const op = "storage.GetTaskByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return task, nil
}

func matchTask(t models.Task, filter models.TaskFilter) bool {
	if filter.VisibleTo != nil {
		id := *filter.VisibleTo
		if t.CreatedBy != id && (t.AssignedTo == nil || *t.AssignedTo != id) {
			return false
		}
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && t.Priority != filter.Priority {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

func (m *MemoryStorage) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := []models.Task{}
	for _, t := range m.tasks {
		if matchTask(t, filter) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (m *MemoryStorage) UpdateTask(_ context.Context, taskID uuid.UUID, mutate TaskMutator) (models.Task, error) {
	const op = "storage.UpdateTask"

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := mutate(&task); err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	task.ID = taskID
	task.UpdatedAt = m.now()
	m.tasks[taskID] = task

	return task, nil
}

func (m *MemoryStorage) DeleteTask(_ context.Context, taskID uuid.UUID) error {
	const op = "storage.DeleteTask"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[taskID]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	delete(m.tasks, taskID)

	return nil
}

func (m *MemoryStorage) TaskStatistics(ctx context.Context, filter models.TaskFilter) (models.TaskStatistics, error) {
	tasks, err := m.ListTasks(ctx, filter)
	if err != nil {
		return models.TaskStatistics{}, err
	}

	stats := models.TaskStatistics{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			stats.CompletedTasks++
		case models.StatusPending:
			stats.PendingTasks++
		case models.StatusInProgress:
			stats.InProgressTasks++
		}
		switch t.Priority {
		case models.PriorityHigh:
			stats.HighPriority++
		case models.PriorityMedium:
			stats.MediumPriority++
		case models.PriorityLow:
			stats.LowPriority++
		}
	}

	return stats, nil
}

func (m *MemoryStorage) Close() {}
