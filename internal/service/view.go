package service

import (
	"taskTracker/models"
)

// TaskView is the response shape of a task. The creator is exposed by username and
// worked hours as a fixed two-decimal string.
type TaskView struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	AssignedTo         int64   `json:"assigned_to"`
	AssignedToUsername string  `json:"assigned_to_username"`
	DueDate            string  `json:"due_date"`
	Status             string  `json:"status"`
	CompletionReport   *string `json:"completion_report"`
	WorkedHours        *string `json:"worked_hours"`
	CreatedBy          *string `json:"created_by"`
	Version            int64   `json:"version"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks         []TaskView `json:"results"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

// UserView is the response shape of a user. The password hash is never part of it.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toTaskView(t *models.Task) TaskView {
	v := TaskView{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		AssignedTo:         t.AssignedTo,
		AssignedToUsername: t.AssignedToUsername,
		DueDate:            t.DueDate,
		Status:             string(t.Status),
		CompletionReport:   t.CompletionReport,
		Version:            t.Version,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.WorkedHours != nil {
		h := t.WorkedHours.StringFixed(2)
		v.WorkedHours = &h
	}
	if t.CreatedBy != nil {
		name := t.CreatedByUsername
		v.CreatedBy = &name
	}
	return v
}

func toUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Role: string(u.Role)}
}
