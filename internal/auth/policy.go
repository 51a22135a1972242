package auth

import (
	"fmt"

	"github.com/frahmantamala/taktplan/internal"
)

type Operation string

const (
	OpListTasks      Operation = "tasks:list"
	OpListOwnTasks   Operation = "tasks:list_own"
	OpReadTask       Operation = "tasks:read"
	OpCreateTask     Operation = "tasks:create"
	OpUpdateTask     Operation = "tasks:update"
	OpDeleteTask     Operation = "tasks:delete"
	OpReadSelf       Operation = "users:read_self"
	OpListUsers      Operation = "users:list"
	OpAdminListUsers Operation = "admin:users:list"
	OpChangeUserRole Operation = "admin:users:change_role"
)

// Relation names which ownership link between a task and the caller a predicate requires.
type Relation int

const (
	RelationAssignee Relation = iota + 1
	RelationCreator
	// RelationCreatorOrAssignee is satisfied by either link.
	RelationCreatorOrAssignee
)

func (r Relation) String() string {
	switch r {
	case RelationAssignee:
		return "assignee"
	case RelationCreator:
		return "creator"
	case RelationCreatorOrAssignee:
		return "creator_or_assignee"
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// Predicate is the row filter a scoped decision hands to the task repository.
type Predicate struct {
	Relation Relation
	UserID   int64
}

// Matches reports whether a task with the given creator and assignee satisfies the predicate.
func (p Predicate) Matches(creatorID int64, assigneeID *int64) bool {
	isAssignee := assigneeID != nil && *assigneeID == p.UserID
	isCreator := creatorID == p.UserID
	switch p.Relation {
	case RelationAssignee:
		return isAssignee
	case RelationCreator:
		return isCreator
	case RelationCreatorOrAssignee:
		return isCreator || isAssignee
	}
	return false
}

type Effect int

const (
	Denied Effect = iota
	AllowedUnscoped
	AllowedScoped
)

func (e Effect) String() string {
	switch e {
	case AllowedUnscoped:
		return "allowed_unscoped"
	case AllowedScoped:
		return "allowed_scoped"
	}
	return "denied"
}

type Decision struct {
	Effect    Effect
	Predicate Predicate
}

func (d Decision) Allowed() bool { return d.Effect != Denied }

// Scope returns the predicate to apply, or nil when the decision is unscoped.
func (d Decision) Scope() *Predicate {
	if d.Effect != AllowedScoped {
		return nil
	}
	p := d.Predicate
	return &p
}

func deny() Decision { return Decision{Effect: Denied} }
func unscoped() Decision { return Decision{Effect: AllowedUnscoped} }
func scoped(rel Relation, userID int64) Decision {
	return Decision{Effect: AllowedScoped, Predicate: Predicate{Relation: rel, UserID: userID}}
}

// AccessPolicy decides, once per request, whether a caller may perform an operation and on which rows.
type AccessPolicy struct{}

func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

func (p *AccessPolicy) Decide(caller internal.Caller, op Operation) Decision {
	if caller.ID == 0 {
		return deny()
	}

	// my-tasks and self reads never widen with role.
	switch op {
	case OpListOwnTasks:
		return scoped(RelationAssignee, caller.ID)
	case OpReadSelf:
		return unscoped()
	}

	switch caller.Role {
	case internal.RoleManager, internal.RoleAdmin:
		return p.decideElevated(caller, op)
	case internal.RoleEmployee:
		return p.decideEmployee(caller, op)
	default:
		return p.decideUnknown(caller, op)
	}
}

func (p *AccessPolicy) decideElevated(caller internal.Caller, op Operation) Decision {
	switch op {
	case OpListTasks, OpReadTask, OpCreateTask, OpUpdateTask, OpDeleteTask, OpListUsers:
		return unscoped()
	case OpAdminListUsers, OpChangeUserRole:
		if caller.Role == internal.RoleAdmin {
			return unscoped()
		}
	}
	return deny()
}

func (p *AccessPolicy) decideEmployee(caller internal.Caller, op Operation) Decision {
	switch op {
	case OpListTasks:
		return scoped(RelationAssignee, caller.ID)
	case OpReadTask, OpUpdateTask:
		return scoped(RelationCreatorOrAssignee, caller.ID)
	case OpDeleteTask:
		return scoped(RelationCreator, caller.ID)
	case OpCreateTask:
		return unscoped()
	}
	return deny()
}

// decideUnknown keeps callers with an unrecognised role to reads of their own rows.
func (p *AccessPolicy) decideUnknown(caller internal.Caller, op Operation) Decision {
	switch op {
	case OpListTasks:
		return scoped(RelationAssignee, caller.ID)
	case OpReadTask:
		return scoped(RelationCreatorOrAssignee, caller.ID)
	}
	return deny()
}
