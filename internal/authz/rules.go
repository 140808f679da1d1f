// Package authz holds every allow/deny decision of the service.
//
// Each rule is a pure function of the actor and the resource. A nil result
// allows the action; otherwise the returned *apperr.Error carries the
// reason and is surfaced to the caller as is. Existence of the resource is
// checked by the caller before any task rule runs.
package authz

import (
	"task_service/internal/apperr"
	"task_service/internal/models"

	"github.com/gofrs/uuid"
)

// UpdateTier is how much of a task an actor may change.
type UpdateTier int

const (
	TierNone UpdateTier = iota
	TierStatusOnly
	TierFull
)

func isCreator(actor models.User, task models.Task) bool {
	return task.CreatedBy == actor.ID
}

func isAssignee(actor models.User, task models.Task) bool {
	return task.AssignedTo != nil && *task.AssignedTo == actor.ID
}

// CanCreateTask allows any authenticated user. The creator of the new task
// is always the actor.
func CanCreateTask(actor models.User) error {
	return nil
}

// ScopeTaskFilter limits a listing to what actor may see: everything for
// admins, own and assigned tasks otherwise.
func ScopeTaskFilter(actor models.User, filter models.TaskFilter) models.TaskFilter {
	if actor.IsAdmin() {
		filter.VisibleTo = nil
		return filter
	}

	id := actor.ID
	filter.VisibleTo = &id
	return filter
}

func CanReadTask(actor models.User, task models.Task) error {
	if actor.IsAdmin() || isCreator(actor, task) || isAssignee(actor, task) {
		return nil
	}
	return apperr.Forbidden("not authorized to access this task")
}

func UpdateTierFor(actor models.User, task models.Task) UpdateTier {
	switch {
	case actor.IsAdmin() || isCreator(actor, task):
		return TierFull
	case isAssignee(actor, task):
		return TierStatusOnly
	default:
		return TierNone
	}
}

// CanUpdateTask checks the fields present in upd against the actor's tier.
// An assignee who is neither creator nor admin must send status and nothing else.
func CanUpdateTask(actor models.User, task models.Task, upd models.TaskUpdate) error {
	switch UpdateTierFor(actor, task) {
	case TierFull:
		return nil
	case TierStatusOnly:
		if !upd.Status.Set {
			return apperr.Forbidden("assignee can only update status")
		}
		for _, f := range upd.Fields() {
			if f != models.FieldStatus {
				return apperr.Forbidden("assignee can only update status")
			}
		}
		return nil
	default:
		return apperr.Forbidden("not authorized to update this task")
	}
}

func CanDeleteTask(actor models.User, task models.Task) error {
	if actor.IsAdmin() || isCreator(actor, task) {
		return nil
	}
	return apperr.Forbidden("not authorized to delete this task")
}

func requireAdmin(actor models.User) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

func CanListUsers(actor models.User) error {
	return requireAdmin(actor)
}

// CanManageUsers guards the whole user administration surface and runs
// before the target user is looked up.
func CanManageUsers(actor models.User) error {
	return requireAdmin(actor)
}

func CanChangeRole(actor models.User, target uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if target == actor.ID {
		return apperr.BadRequest("cannot change own role")
	}
	return nil
}

func CanDeleteUser(actor models.User, target uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if target == actor.ID {
		return apperr.BadRequest("cannot delete self")
	}
	return nil
}
