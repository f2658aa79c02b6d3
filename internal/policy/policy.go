// Package policy decides which tasks a caller may see and what they may do with them.
//
// Every task endpoint goes through the same evaluator: Scope for list queries and
// Authorize for a single task. For any caller c and task t,
//
//	Authorize(c, t, ActionRead) == nil  <=>  Scope(c).Contains(t)
//
// so a task that appears in a caller's list can always be retrieved by that caller and
// vice versa.
package policy

import (
	"errors"

	"taskTracker/models"
)

// Caller is the authenticated identity making a request.
type Caller struct {
	UserID   int64
	Username string
	Role     models.Role
}

// Action is an operation on a single task.
type Action int

const (
	ActionRead Action = iota
	ActionUpdate
	ActionDelete
	ActionReport
	ActionComplete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionReport:
		return "report"
	case ActionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

var (
	// ErrPermissionDenied means the caller has no rights on a specific task.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrForbidden means the caller's role is excluded from an operation altogether.
	ErrForbidden = errors.New("forbidden")
)

// Denial carries the message shown to the client alongside ErrPermissionDenied or ErrForbidden.
type Denial struct {
	Kind    error
	Message string
}

func (d *Denial) Error() string { return d.Message }

func (d *Denial) Unwrap() error { return d.Kind }

func deny(msg string) error { return &Denial{Kind: ErrPermissionDenied, Message: msg} }

func forbid(msg string) error { return &Denial{Kind: ErrForbidden, Message: msg} }

// Messages returned to clients.
const (
	MsgCannotAccess      = "You cannot access this task"
	MsgStaffOnlyMutation = "Only admins can modify or delete tasks"
	MsgNotAssignee       = "Only the assignee can complete this task"
	MsgCannotCreate      = "You do not have permission to create tasks"
	MsgSuperadminOnly    = "Only superadmin can create users"
	MsgReportsForbidden  = "Only superadmin can access all reports"
	MsgStaffOnlyUsers    = "Only admins can list users"
)

// Options are the configurable parts of the policy.
type Options struct {
	// AllowUserCreateTasks lets plain users create tasks. Off by default.
	AllowUserCreateTasks bool
}

// Policy is the single evaluator for task visibility and authorization.
type Policy struct {
	opts Options
}

// New returns a Policy with the given options.
func New(opts Options) *Policy {
	return &Policy{opts: opts}
}

// ListScope restricts a task listing. A nil field means no restriction on that column.
type ListScope struct {
	AssignedTo *int64
	CreatedBy  *int64
}

// Contains reports whether t falls inside the scope.
func (s ListScope) Contains(t *models.Task) bool {
	if s.AssignedTo != nil && t.AssignedTo != *s.AssignedTo {
		return false
	}
	if s.CreatedBy != nil && !t.WasCreatedBy(*s.CreatedBy) {
		return false
	}
	return true
}

// Scope returns the set of tasks visible to c. An unknown role sees nothing.
func (p *Policy) Scope(c Caller) (ListScope, error) {
	id := c.UserID
	switch c.Role {
	case models.RoleSuperAdmin:
		return ListScope{}, nil
	case models.RoleAdmin:
		return ListScope{CreatedBy: &id}, nil
	case models.RoleUser:
		return ListScope{AssignedTo: &id}, nil
	default:
		return ListScope{}, deny(MsgCannotAccess)
	}
}

// Authorize decides whether c may perform action on t.
// The assignee may always complete their own task, whatever their role. For every
// other action a task outside the caller's scope is reported as inaccessible.
func (p *Policy) Authorize(c Caller, t *models.Task, action Action) error {
	if t == nil {
		return deny(MsgCannotAccess)
	}
	if action == ActionComplete && t.AssignedTo == c.UserID && c.Role.Valid() {
		return nil
	}
	if !p.canSee(c, t) {
		return deny(MsgCannotAccess)
	}
	switch action {
	case ActionRead, ActionReport:
		return nil
	case ActionUpdate, ActionDelete:
		if !c.Role.IsStaff() {
			return deny(MsgStaffOnlyMutation)
		}
		return nil
	case ActionComplete:
		return deny(MsgNotAssignee)
	default:
		return deny(MsgCannotAccess)
	}
}

func (p *Policy) canSee(c Caller, t *models.Task) bool {
	switch c.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return t.WasCreatedBy(c.UserID)
	case models.RoleUser:
		return t.AssignedTo == c.UserID
	default:
		return false
	}
}

// CanCreateTask reports whether c may create tasks.
func (p *Policy) CanCreateTask(c Caller) error {
	if c.Role.IsStaff() {
		return nil
	}
	if c.Role == models.RoleUser && p.opts.AllowUserCreateTasks {
		return nil
	}
	return deny(MsgCannotCreate)
}

// CanRegisterUsers reports whether c may create new users.
func (p *Policy) CanRegisterUsers(c Caller) error {
	if c.Role == models.RoleSuperAdmin {
		return nil
	}
	return deny(MsgSuperadminOnly)
}

// CanListUsers reports whether c may browse user accounts, e.g. to pick an assignee.
func (p *Policy) CanListUsers(c Caller) error {
	if c.Role.IsStaff() {
		return nil
	}
	return deny(MsgStaffOnlyUsers)
}

// CanViewCompletedReports reports whether c may list completed reports across all users.
func (p *Policy) CanViewCompletedReports(c Caller) error {
	if c.Role == models.RoleSuperAdmin {
		return nil
	}
	return forbid(MsgReportsForbidden)
}
