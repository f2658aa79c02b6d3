package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"taskTracker/models"
)

// TaskRepository is the core repository for Task entities.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `t.id, t.title, t.description, t.assigned_to, t.due_date, t.status, t.completion_report, t.worked_hours, t.created_by, t.version, t.created_at, t.updated_at, ua.username, COALESCE(uc.username, '')`

const taskFrom = `FROM tasks t
JOIN users ua ON ua.id = t.assigned_to
LEFT JOIN users uc ON uc.id = t.created_by`

// Create inserts a new task. Status defaults to Pending if empty.
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	if t == nil {
		return nil, errors.New("task is nil")
	}
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO tasks (title, description, assigned_to, due_date, status, completion_report, worked_hours, created_by) VALUES (?,?,?,?,?,?,?,?)`,
		t.Title, t.Description, t.AssignedTo, t.DueDate, string(t.Status), t.CompletionReport, hoursArg(t.WorkedHours), t.CreatedBy)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	t2, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t2 == nil {
		return nil, fmt.Errorf("created task not found: id=%d", id)
	}
	return t2, nil
}

// GetByID fetches a task by its ID, or (nil, nil) when absent.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` `+taskFrom+` WHERE t.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Update writes every mutable column of t, guarded by t.Version.
// On success t.Version is advanced. Returns sql.ErrNoRows when the task is gone
// and ErrVersionConflict when another write got there first.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	if t == nil {
		return errors.New("task is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks SET title = ?, description = ?, assigned_to = ?, due_date = ?, status = ?,
  completion_report = ?, worked_hours = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND version = ?`,
		t.Title, t.Description, t.AssignedTo, t.DueDate, string(t.Status), t.CompletionReport, hoursArg(t.WorkedHours), t.ID, t.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, t.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		} else if err != nil {
			return err
		}
		return ErrVersionConflict
	}
	t.Version++
	return nil
}

// Delete removes a task by ID. Returns sql.ErrNoRows when nothing was deleted.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func hoursArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var status string
	var report sql.NullString
	var hours decimal.NullDecimal
	var createdBy sql.NullInt64
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.AssignedTo, &t.DueDate, &status, &report, &hours,
		&createdBy, &t.Version, &t.CreatedAt, &t.UpdatedAt, &t.AssignedToUsername, &t.CreatedByUsername); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	if report.Valid {
		v := report.String
		t.CompletionReport = &v
	}
	if hours.Valid {
		v := hours.Decimal
		t.WorkedHours = &v
	}
	if createdBy.Valid {
		v := createdBy.Int64
		t.CreatedBy = &v
	}
	return &t, nil
}
