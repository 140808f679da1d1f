package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task_service/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

const (
	userColumns = "id, name, email, password_hash, role, created_at"
	taskColumns = "id, title, description, status, priority, due_date, created_by, assigned_to, created_at, updated_at"
)

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, DbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(ctx, DbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{
		db: conn,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	return user, err
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task     models.Task
		assignee uuid.NullUUID
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.CreatedBy,
		&assignee,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return task, err
	}

	if assignee.Valid {
		id := assignee.UUID
		task.AssignedTo = &id
	}

	return task, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.CreateUser"

	query := fmt.Sprintf(`INSERT INTO %s(name, email, password_hash, role)
	VALUES ($1, $2, $3, $4) RETURNING %s;`, usersTable, userColumns)

	created, err := scanUser(p.db.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "storage.GetUserByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1;", userColumns, usersTable)

	user, err := scanUser(p.db.QueryRow(ctx, query, userID))
	if err != nil {
		return user, fmt.Errorf("%s: %w", op, notFound(err))
	}

	return user, nil
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.GetUserByEmail"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE email=$1;", userColumns, usersTable)

	user, err := scanUser(p.db.QueryRow(ctx, query, email))
	if err != nil {
		return user, fmt.Errorf("%s: %w", op, notFound(err))
	}

	return user, nil
}

func (p *PostgresStorage) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListUsers"

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at;", userColumns, usersTable)

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return users, nil
}

func (p *PostgresStorage) UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error) {
	const op = "storage.UpdateUserRole"

	query := fmt.Sprintf("UPDATE %s SET role=$1 WHERE id=$2 RETURNING %s;", usersTable, userColumns)

	user, err := scanUser(p.db.QueryRow(ctx, query, role, userID))
	if err != nil {
		return user, fmt.Errorf("%s: %w", op, notFound(err))
	}

	return user, nil
}

// DeleteUser removes the user; the schema cascades to their tasks.
func (p *PostgresStorage) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.DeleteUser"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1;", usersTable)

	tag, err := p.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func (p *PostgresStorage) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const op = "storage.CreateTask"

	query := fmt.Sprintf(`INSERT INTO %s(title, description, status, priority, due_date, created_by, assigned_to)
	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s;`, tasksTable, taskColumns)

	created, err := scanTask(p.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CreatedBy,
		nullableUUID(task.AssignedTo),
	))
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (p *PostgresStorage) GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	const op = "storage.GetTaskByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1;", taskColumns, tasksTable)

	task, err := scanTask(p.db.QueryRow(ctx, query, taskID))
	if err != nil {
		return task, fmt.Errorf("%s: %w", op, notFound(err))
	}

	return task, nil
}

// taskWhere renders filter as a WHERE clause and its positional arguments.
func taskWhere(filter models.TaskFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.VisibleTo != nil {
		n := arg(*filter.VisibleTo)
		conds = append(conds, fmt.Sprintf("(created_by=%s OR assigned_to=%s)", n, n))
	}
	if filter.Status != "" {
		conds = append(conds, "status="+arg(filter.Status))
	}
	if filter.Priority != "" {
		conds = append(conds, "priority="+arg(filter.Priority))
	}
	if filter.Search != "" {
		conds = append(conds, "title ILIKE "+arg("%"+escapeLike(filter.Search)+"%"))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (p *PostgresStorage) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	const op = "storage.ListTasks"

	where, args := taskWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at DESC;", taskColumns, tasksTable, where)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return tasks, nil
}

// UpdateTask locks the row, hands it to mutate and writes the result back
// in one transaction.
func (p *PostgresStorage) UpdateTask(ctx context.Context, taskID uuid.UUID, mutate TaskMutator) (models.Task, error) {
	const op = "storage.UpdateTask"

	var updated models.Task
	err := p.db.BeginFunc(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1 FOR UPDATE;", taskColumns, tasksTable)

		task, err := scanTask(tx.QueryRow(ctx, query, taskID))
		if err != nil {
			return notFound(err)
		}

		if err := mutate(&task); err != nil {
			return err
		}

		query = fmt.Sprintf(`UPDATE %s
		   SET title=$1, description=$2, status=$3, priority=$4, due_date=$5, assigned_to=$6, updated_at=now()
		 WHERE id=$7
		RETURNING %s;`, tasksTable, taskColumns)

		updated, err = scanTask(tx.QueryRow(ctx, query,
			task.Title,
			task.Description,
			task.Status,
			task.Priority,
			task.DueDate,
			nullableUUID(task.AssignedTo),
			taskID,
		))
		return err
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (p *PostgresStorage) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	const op = "storage.DeleteTask"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1;", tasksTable)

	tag, err := p.db.Exec(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func (p *PostgresStorage) TaskStatistics(ctx context.Context, filter models.TaskFilter) (models.TaskStatistics, error) {
	const op = "storage.TaskStatistics"

	where, args := taskWhere(filter)
	query := fmt.Sprintf(`SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status='completed'),
		COUNT(*) FILTER (WHERE status='pending'),
		COUNT(*) FILTER (WHERE status='in_progress'),
		COUNT(*) FILTER (WHERE priority='high'),
		COUNT(*) FILTER (WHERE priority='medium'),
		COUNT(*) FILTER (WHERE priority='low')
	FROM %s%s;`, tasksTable, where)

	var stats models.TaskStatistics
	err := p.db.QueryRow(ctx, query, args...).Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.PendingTasks,
		&stats.InProgressTasks,
		&stats.HighPriority,
		&stats.MediumPriority,
		&stats.LowPriority,
	)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}
