package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"taskTracker/internal/policy"
	"taskTracker/models"
	"taskTracker/repository"
)

// maxWorkedHours is the exclusive upper bound of a 5-digit, 2-decimal value.
var maxWorkedHours = decimal.NewFromInt(1000)

// RawHours is worked_hours exactly as the client sent it, before validation.
// It accepts a JSON number, a JSON string or a form value.
type RawHours struct {
	Set  bool
	Text string
}

// HoursText returns a RawHours holding s.
func HoursText(s string) RawHours { return RawHours{Set: true, Text: s} }

func (h *RawHours) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*h = RawHours{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*h = HoursText(s)
		return nil
	}
	*h = HoursText(string(b))
	return nil
}

func (h *RawHours) UnmarshalText(b []byte) error {
	*h = HoursText(string(b))
	return nil
}

// CompleteTaskInput is the assignee's completion submission.
type CompleteTaskInput struct {
	CompletionReport *string  `json:"completion_report" form:"completion_report"`
	WorkedHours      RawHours `json:"worked_hours" form:"worked_hours"`
}

// checkCompletion validates the completion fields. The same rules apply to every
// entry point that can move a task to Completed.
func checkCompletion(report *string, hours RawHours) (string, decimal.Decimal, error) {
	if report == nil || strings.TrimSpace(*report) == "" {
		return "", decimal.Decimal{}, validationError(MsgReportRequired)
	}
	text := strings.TrimSpace(hours.Text)
	if !hours.Set || text == "" {
		return "", decimal.Decimal{}, validationError(MsgHoursRequired)
	}
	h, err := parseHours(text)
	if err != nil {
		return "", decimal.Decimal{}, err
	}
	return *report, h, nil
}

func parseHours(text string) (decimal.Decimal, error) {
	h, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, validationError(MsgHoursInvalid)
	}
	if h.IsNegative() || h.GreaterThanOrEqual(maxWorkedHours) || !h.Equal(h.Truncate(2)) {
		return decimal.Decimal{}, validationError(MsgHoursInvalid)
	}
	return h, nil
}

// markCompleted applies validated completion fields to t.
func markCompleted(t *models.Task, report string, hours decimal.Decimal) {
	t.Status = models.TaskStatusCompleted
	t.CompletionReport = &report
	t.WorkedHours = &hours
}

// Complete moves a task to Completed on behalf of its assignee. A failed validation
// leaves the stored task untouched; a concurrent write to the same task yields KindConflict.
func (s *TaskService) Complete(ctx context.Context, c policy.Caller, id int64, in CompleteTaskInput) (*TaskView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Policy.Authorize(c, t, policy.ActionComplete); err != nil {
		return nil, fromPolicy(err)
	}
	report, hours, err := checkCompletion(in.CompletionReport, in.WorkedHours)
	if err != nil {
		return nil, err
	}
	markCompleted(t, report, hours)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.log().Info("task completed", slog.Int64("task_id", t.ID), slog.Int64("user_id", c.UserID), slog.String("worked_hours", hours.StringFixed(2)))
	return s.view(ctx, t.ID)
}

// save persists t with its version guard.
func (s *TaskService) save(ctx context.Context, t *models.Task) error {
	err := s.Tasks.Update(ctx, t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound(MsgTaskNotFound)
	case errors.Is(err, repository.ErrVersionConflict):
		return &Error{Kind: KindConflict, Message: MsgConcurrentUpdate, Err: err}
	default:
		return internal("update task", err)
	}
}
