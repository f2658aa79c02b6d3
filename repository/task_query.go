package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"taskTracker/models"
)

// ListTasksParams represents filters and keyset pagination for List.
// A nil AssignedTo/CreatedBy means no restriction on that column.
type ListTasksParams struct {
	AssignedTo *int64
	CreatedBy  *int64
	Status     *models.TaskStatus
	PageSize   int
	AfterID    int64 // keyset cursor: return tasks with id > AfterID
}

// List returns tasks matching the filters ordered by id ascending.
func (r *TaskRepository) List(ctx context.Context, p ListTasksParams) ([]models.Task, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if p.AssignedTo != nil {
		where = append(where, "t.assigned_to = ?")
		args = append(args, *p.AssignedTo)
	}
	if p.CreatedBy != nil {
		where = append(where, "t.created_by = ?")
		args = append(args, *p.CreatedBy)
	}
	if p.Status != nil {
		where = append(where, "t.status = ?")
		args = append(args, string(*p.Status))
	}
	if p.AfterID > 0 {
		where = append(where, "t.id > ?")
		args = append(args, p.AfterID)
	}

	query := `SELECT ` + taskColumns + ` ` + taskFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.id ASC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// ListCompleted returns every completed task across all users, ordered by id.
func (r *TaskRepository) ListCompleted(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` `+taskFrom+` WHERE t.status = ? ORDER BY t.id ASC`, string(models.TaskStatusCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// scanTaskRows is a helper to scan rows into Task objects.
func scanTaskRows(rows *sql.Rows) ([]models.Task, error) {
	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
