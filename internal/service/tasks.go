package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"taskTracker/internal/policy"
	"taskTracker/models"
	"taskTracker/repository"
)

const (
	maxPageSize     = 100 // Maximum allowed page size for list operations.
	defaultPageSize = 20  // Default page size for list operations.
	cursorPrefix    = "t:"
)

// UserLookup is the subset of the user repository the task service needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// TaskService implements every task operation on behalf of an authenticated caller.
// All authorization goes through Policy.
type TaskService struct {
	Tasks     repository.TaskRepositoryI
	Users     UserLookup
	Policy    *policy.Policy
	Validator *Validator
	Logger    *slog.Logger
}

// NewTaskService wires a TaskService.
func NewTaskService(tasks repository.TaskRepositoryI, users UserLookup, p *policy.Policy, v *Validator, logger *slog.Logger) *TaskService {
	return &TaskService{Tasks: tasks, Users: users, Policy: p, Validator: v, Logger: logger}
}

func (s *TaskService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// ListTasksInput holds optional filters and pagination for List.
type ListTasksInput struct {
	Status    string `json:"status" query:"status" validate:"omitempty,oneof=Pending Completed"`
	PageSize  int    `json:"page_size" query:"page_size" validate:"gte=0"`
	PageToken string `json:"page_token" query:"page_token"`
}

// CreateTaskInput is the body of a task creation request. created_by is never accepted
// from the client.
type CreateTaskInput struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description"`
	AssignedTo  int64  `json:"assigned_to" form:"assigned_to" validate:"required,gt=0"`
	DueDate     string `json:"due_date" form:"due_date" validate:"required,datetime=2006-01-02"`
}

// UpdateTaskInput is the body of a PUT or PATCH. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title            *string  `json:"title" form:"title" validate:"omitnil,min=1,max=255"`
	Description      *string  `json:"description" form:"description"`
	AssignedTo       *int64   `json:"assigned_to" form:"assigned_to" validate:"omitnil,gt=0"`
	DueDate          *string  `json:"due_date" form:"due_date" validate:"omitnil,datetime=2006-01-02"`
	Status           *string  `json:"status" form:"status" validate:"omitnil,oneof=Pending Completed"`
	CompletionReport *string  `json:"completion_report" form:"completion_report"`
	WorkedHours      RawHours `json:"worked_hours" form:"worked_hours"`
}

// List returns the page of tasks visible to c.
func (s *TaskService) List(ctx context.Context, c policy.Caller, in ListTasksInput) (*TaskPage, error) {
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	scope, err := s.Policy.Scope(c)
	if err != nil {
		return nil, fromPolicy(err)
	}
	size := in.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	var afterID int64
	if strings.TrimSpace(in.PageToken) != "" {
		if afterID, err = decodeCursor(in.PageToken); err != nil {
			return nil, validationError("invalid page_token")
		}
	}
	params := repository.ListTasksParams{
		AssignedTo: scope.AssignedTo,
		CreatedBy:  scope.CreatedBy,
		PageSize:   size,
		AfterID:    afterID,
	}
	if in.Status != "" {
		st, _ := models.ParseTaskStatus(in.Status)
		params.Status = &st
	}
	list, err := s.Tasks.List(ctx, params)
	if err != nil {
		return nil, internal("list tasks", err)
	}
	page := &TaskPage{Tasks: make([]TaskView, 0, len(list))}
	for i := range list {
		page.Tasks = append(page.Tasks, toTaskView(&list[i]))
	}
	if len(list) == size {
		page.NextPageToken = encodeCursor(list[len(list)-1].ID)
	}
	return page, nil
}

// Get returns a single task if c may read it.
func (s *TaskService) Get(ctx context.Context, c policy.Caller, id int64) (*TaskView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Policy.Authorize(c, t, policy.ActionRead); err != nil {
		return nil, fromPolicy(err)
	}
	v := toTaskView(t)
	return &v, nil
}

// Create stores a new Pending task with c as its creator.
func (s *TaskService) Create(ctx context.Context, c policy.Caller, in CreateTaskInput) (*TaskView, error) {
	if err := s.Policy.CanCreateTask(c); err != nil {
		return nil, fromPolicy(err)
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, in.AssignedTo); err != nil {
		return nil, err
	}
	creator := c.UserID
	t, err := s.Tasks.Create(ctx, &models.Task{
		Title:       in.Title,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		DueDate:     in.DueDate,
		Status:      models.TaskStatusPending,
		CreatedBy:   &creator,
	})
	if err != nil {
		return nil, internal("create task", err)
	}
	s.log().Info("task created", slog.Int64("task_id", t.ID), slog.Int64("created_by", c.UserID), slog.Int64("assigned_to", t.AssignedTo))
	v := toTaskView(t)
	return &v, nil
}

// Update changes a task. With partial=false (PUT) title, assigned_to and due_date are
// required. Moving to Completed runs the completion validation; moving to Pending
// clears the completion fields.
func (s *TaskService) Update(ctx context.Context, c policy.Caller, id int64, in UpdateTaskInput, partial bool) (*TaskView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Policy.Authorize(c, t, policy.ActionUpdate); err != nil {
		return nil, fromPolicy(err)
	}
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	if !partial && (in.Title == nil || in.AssignedTo == nil || in.DueDate == nil) {
		return nil, validationError("title, assigned_to and due_date are required")
	}

	next := *t
	if in.Title != nil {
		next.Title = *in.Title
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.AssignedTo != nil && *in.AssignedTo != t.AssignedTo {
		if err := s.requireUser(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
		next.AssignedTo = *in.AssignedTo
	}
	if in.DueDate != nil {
		next.DueDate = *in.DueDate
	}
	if in.Status != nil {
		next.Status, _ = models.ParseTaskStatus(*in.Status)
	}

	if next.IsCompleted() {
		report := in.CompletionReport
		if report == nil {
			report = t.CompletionReport
		}
		hours := in.WorkedHours
		if !hours.Set && t.WorkedHours != nil {
			hours = HoursText(t.WorkedHours.String())
		}
		r, h, err := checkCompletion(report, hours)
		if err != nil {
			return nil, err
		}
		markCompleted(&next, r, h)
	} else {
		if (in.CompletionReport != nil && *in.CompletionReport != "") || in.WorkedHours.Set {
			return nil, validationError("completion_report and worked_hours can only be set when status is Completed")
		}
		next.CompletionReport = nil
		next.WorkedHours = nil
	}

	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	s.log().Info("task updated", slog.Int64("task_id", next.ID), slog.Int64("user_id", c.UserID), slog.String("status", string(next.Status)))
	return s.view(ctx, next.ID)
}

// Delete permanently removes a task.
func (s *TaskService) Delete(ctx context.Context, c policy.Caller, id int64) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Policy.Authorize(c, t, policy.ActionDelete); err != nil {
		return fromPolicy(err)
	}
	if err := s.Tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(MsgTaskNotFound)
		}
		return internal("delete task", err)
	}
	s.log().Info("task deleted", slog.Int64("task_id", id), slog.Int64("user_id", c.UserID))
	return nil
}

// Report returns the completion report of a single task.
func (s *TaskService) Report(ctx context.Context, c policy.Caller, id int64) (*models.TaskReport, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Policy.Authorize(c, t, policy.ActionReport); err != nil {
		return nil, fromPolicy(err)
	}
	if !t.IsCompleted() {
		return nil, &Error{Kind: KindTaskNotCompleted, Message: MsgNotCompleted}
	}
	r := models.ReportOf(t)
	return &r, nil
}

// CompletedReports lists the reports of every completed task. Superadmin only.
func (s *TaskService) CompletedReports(ctx context.Context, c policy.Caller) ([]models.TaskReport, error) {
	if err := s.Policy.CanViewCompletedReports(c); err != nil {
		return nil, fromPolicy(err)
	}
	list, err := s.Tasks.ListCompleted(ctx)
	if err != nil {
		return nil, internal("list completed tasks", err)
	}
	out := make([]models.TaskReport, 0, len(list))
	for i := range list {
		r := models.ReportOf(&list[i])
		r.ID = list[i].ID
		out = append(out, r)
	}
	return out, nil
}

// load fetches a task or returns KindNotFound.
func (s *TaskService) load(ctx context.Context, id int64) (*models.Task, error) {
	if id <= 0 {
		return nil, notFound(MsgTaskNotFound)
	}
	t, err := s.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get task", err)
	}
	if t == nil {
		return nil, notFound(MsgTaskNotFound)
	}
	return t, nil
}

// view re-reads a task after a write so the response carries the stored state.
func (s *TaskService) view(ctx context.Context, id int64) (*TaskView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := toTaskView(t)
	return &v, nil
}

func (s *TaskService) requireUser(ctx context.Context, id int64) error {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return internal("get user", err)
	}
	if u == nil {
		return validationError("assigned_to: user does not exist")
	}
	return nil
}

// encodeCursor builds an opaque next_page_token from the last task id of a page.
func encodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(id, 10)))
}

// decodeCursor parses an opaque page_token back into a task id.
func decodeCursor(token string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return 0, fmt.Errorf("base64: %w", err)
	}
	raw, ok := strings.CutPrefix(string(b), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor format")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("parse id: %q", raw)
	}
	return id, nil
}
