// Package policy decides whether an authenticated user may act on a task.
//
// Decisions are pure functions of the actor's role, id and organization and the
// task's organization, creator and assignee. Missing organization ids on either
// side are read as organization 1 and missing creator/assignee ids as 0, which
// keeps legacy rows reachable inside the default tenant.
package policy

import (
	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/models"
)

type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// Actor is the authenticated caller.
type Actor struct {
	ID             uint64
	Role           models.UserRole
	OrganizationID *uint64
}

// TaskRef carries the fields of a task that take part in a decision.
type TaskRef struct {
	OrganizationID *uint64
	CreatedBy      *uint64
	AssignedTo     *uint64
}

// RefOf extracts the policy-relevant fields of a task.
func RefOf(task *models.Task) TaskRef {
	if task == nil {
		return TaskRef{}
	}
	return TaskRef{
		OrganizationID: task.OrganizationID,
		CreatedBy:      task.CreatedBy,
		AssignedTo:     task.AssignedTo,
	}
}

// Organization returns the actor's tenant with the default applied.
func (a *Actor) Organization() uint64 {
	return OrgOrDefault(a.OrganizationID)
}

// IsManager reports whether the actor holds an organization-wide role.
func (a *Actor) IsManager() bool {
	return a.Role == models.RoleOwner || a.Role == models.RoleAdmin
}

// IsViewer reports whether the actor holds the read-only role.
func (a *Actor) IsViewer() bool {
	return a.Role == models.RoleViewer
}

// OrgOrDefault applies the default-tenant rule to an optional organization id.
func OrgOrDefault(id *uint64) uint64 {
	if id == nil || *id == 0 {
		return constants.DefaultOrganizationID
	}
	return *id
}

func idOrZero(id *uint64) uint64 {
	if id == nil {
		return 0
	}
	return *id
}

// SameOrganization compares tenants after defaulting both sides.
func SameOrganization(actor *Actor, task TaskRef) bool {
	return actor.Organization() == OrgOrDefault(task.OrganizationID)
}

// IsCreator reports whether the actor created the task.
func IsCreator(actor *Actor, task TaskRef) bool {
	return actor.ID != 0 && idOrZero(task.CreatedBy) == actor.ID
}

// IsAssignee reports whether the task is assigned to the actor.
func IsAssignee(actor *Actor, task TaskRef) bool {
	return actor.ID != 0 && idOrZero(task.AssignedTo) == actor.ID
}

// Can decides whether actor may perform action on task. A nil actor is always denied.
func Can(actor *Actor, task TaskRef, action Action) bool {
	if actor == nil {
		return false
	}

	switch action {
	case ActionView:
		return CanView(actor, task)
	case ActionEdit:
		return CanEdit(actor, task)
	case ActionDelete:
		return CanDelete(actor, task)
	case ActionAssign:
		return CanAssign(actor, task)
	default:
		return false
	}
}

// CanView: managers see their organization; everyone else sees what they created or were assigned.
func CanView(actor *Actor, task TaskRef) bool {
	if actor == nil {
		return false
	}
	if actor.IsManager() {
		return SameOrganization(actor, task)
	}
	return IsCreator(actor, task) || IsAssignee(actor, task)
}

// CanEdit: managers in the same organization, never viewers, otherwise creator or assignee.
func CanEdit(actor *Actor, task TaskRef) bool {
	if actor == nil {
		return false
	}
	if actor.IsManager() && SameOrganization(actor, task) {
		return true
	}
	if actor.IsViewer() {
		return false
	}
	return IsCreator(actor, task) || IsAssignee(actor, task)
}

// CanDelete: managers in the same organization, never viewers, otherwise only the creator.
// Assignees may edit but not delete.
func CanDelete(actor *Actor, task TaskRef) bool {
	if actor == nil {
		return false
	}
	if actor.IsManager() && SameOrganization(actor, task) {
		return true
	}
	if actor.IsViewer() {
		return false
	}
	return IsCreator(actor, task)
}

// CanAssign follows the delete rule: reassigning is reserved for managers and the creator.
func CanAssign(actor *Actor, task TaskRef) bool {
	return CanDelete(actor, task)
}

// CanCreate reports whether the actor may create tasks at all.
func CanCreate(actor *Actor) bool {
	return actor != nil && !actor.IsViewer()
}

// Visibility describes the set of tasks an actor can view, for pushing the
// view rule down into a query.
type Visibility struct {
	// OrganizationID is set for managers; tasks without an organization match
	// when it equals the default tenant.
	OrganizationID *uint64
	// ParticipantID is set for everyone else: creator or assignee.
	ParticipantID *uint64
}

// VisibilityFor returns the query form of CanView. A nil actor yields nil.
func VisibilityFor(actor *Actor) *Visibility {
	if actor == nil {
		return nil
	}
	if actor.IsManager() {
		org := actor.Organization()
		return &Visibility{OrganizationID: &org}
	}
	id := actor.ID
	return &Visibility{ParticipantID: &id}
}

// Filter keeps the tasks the actor can view, preserving order.
func Filter(actor *Actor, tasks []models.Task) []models.Task {
	visible := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if CanView(actor, RefOf(&tasks[i])) {
			visible = append(visible, tasks[i])
		}
	}
	return visible
}
