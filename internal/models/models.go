package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask is the client-supplied part of a task. The creator is always
// taken from the authenticated actor.
type NewTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
}

// Optional is a JSON field that remembers whether it was present in the
// request body. A present null leaves Value nil with Set true.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v

	return nil
}

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldDueDate     = "due_date"
	FieldAssignedTo  = "assigned_to"
)

// TaskUpdate lists every mutable task field. created_by is deliberately absent.
type TaskUpdate struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Status      Optional[Status]    `json:"status"`
	Priority    Optional[Priority]  `json:"priority"`
	DueDate     Optional[time.Time] `json:"due_date"`
	AssignedTo  Optional[uuid.UUID] `json:"assigned_to"`
}

// Fields returns the names of the fields present in the update.
func (u TaskUpdate) Fields() []string {
	var fields []string
	if u.Title.Set {
		fields = append(fields, FieldTitle)
	}
	if u.Description.Set {
		fields = append(fields, FieldDescription)
	}
	if u.Status.Set {
		fields = append(fields, FieldStatus)
	}
	if u.Priority.Set {
		fields = append(fields, FieldPriority)
	}
	if u.DueDate.Set {
		fields = append(fields, FieldDueDate)
	}
	if u.AssignedTo.Set {
		fields = append(fields, FieldAssignedTo)
	}
	return fields
}

// Apply copies the present fields onto t. Values are expected to be
// validated already.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title.Set && u.Title.Value != nil {
		t.Title = *u.Title.Value
	}
	if u.Description.Set {
		t.Description = u.Description.Value
	}
	if u.Status.Set && u.Status.Value != nil {
		t.Status = *u.Status.Value
	}
	if u.Priority.Set && u.Priority.Value != nil {
		t.Priority = *u.Priority.Value
	}
	if u.DueDate.Set {
		t.DueDate = u.DueDate.Value
	}
	if u.AssignedTo.Set {
		t.AssignedTo = u.AssignedTo.Value
	}
}

type TaskFilter struct {
	Status   Status
	Priority Priority
	Search   string

	// VisibleTo restricts results to tasks the user created or is assigned to.
	// Nil means no restriction.
	VisibleTo *uuid.UUID
}

type TaskStatistics struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	HighPriority    int `json:"high_priority"`
	MediumPriority  int `json:"medium_priority"`
	LowPriority     int `json:"low_priority"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}
