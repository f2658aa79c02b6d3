package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaskStatus represents the progress of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusCompleted TaskStatus = "Completed"
)

// ParseTaskStatus accepts the canonical spelling and any case variant of it.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return TaskStatusPending, true
	case "completed":
		return TaskStatusCompleted, true
	default:
		return "", false
	}
}

// DueDateLayout is the calendar-date format used for due dates.
const DueDateLayout = "2006-01-02"

// Task is a unit of work assigned to a user.
// CompletionReport and WorkedHours are set only while Status is Completed.
// CreatedBy is nullable for rows that predate creator tracking.
type Task struct {
	ID               int64            `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	AssignedTo       int64            `db:"assigned_to" json:"assigned_to"`
	DueDate          string           `db:"due_date" json:"due_date"`
	Status           TaskStatus       `db:"status" json:"status"`
	CompletionReport *string          `db:"completion_report" json:"completion_report"`
	WorkedHours      *decimal.Decimal `db:"worked_hours" json:"worked_hours"`
	CreatedBy        *int64           `db:"created_by" json:"created_by"`
	Version          int64            `db:"version" json:"version"`
	CreatedAt        string           `db:"created_at" json:"created_at"`
	UpdatedAt        string           `db:"updated_at" json:"updated_at"`

	// Joined from users for response shaping; not stored on the tasks row.
	AssignedToUsername string `db:"-" json:"-"`
	CreatedByUsername  string `db:"-" json:"-"`
}

// IsCompleted reports whether the task is in the Completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// WasCreatedBy reports whether userID created the task.
func (t *Task) WasCreatedBy(userID int64) bool {
	return t.CreatedBy != nil && *t.CreatedBy == userID
}

// TaskReport is the projection of a completed task returned by report views.
type TaskReport struct {
	ID               int64  `json:"id,omitempty"`
	Title            string `json:"title"`
	AssignedTo       string `json:"assigned_to"`
	CompletionReport string `json:"completion_report"`
	WorkedHours      string `json:"worked_hours"`
}

// ReportOf projects a completed task. The caller is responsible for checking completion.
func ReportOf(t *Task) TaskReport {
	r := TaskReport{
		Title:      t.Title,
		AssignedTo: t.AssignedToUsername,
	}
	if t.CompletionReport != nil {
		r.CompletionReport = *t.CompletionReport
	}
	if t.WorkedHours != nil {
		r.WorkedHours = t.WorkedHours.StringFixed(2)
	}
	return r
}
