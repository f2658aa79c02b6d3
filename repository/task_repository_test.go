package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"taskTracker/internal/db"
	"taskTracker/models"
)

func openTaskRepos(t *testing.T, name string) (*sql.DB, *UserRepository, *TaskRepository) {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, NewUserRepository(d), NewTaskRepository(d)
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	_, users, tasks := openTaskRepos(t, "taskcreate")
	ctx := context.Background()

	alice, _ := users.Create(ctx, "alice", "h", models.RoleAdmin)
	bob, _ := users.Create(ctx, "bob", "h", models.RoleUser)

	created, err := tasks.Create(ctx, &models.Task{
		Title:       "X",
		Description: "write the thing",
		AssignedTo:  bob.ID,
		DueDate:     "2024-01-01",
		CreatedBy:   &alice.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.Status != models.TaskStatusPending || created.Version != 1 {
		t.Fatalf("unexpected created task: %+v", created)
	}
	if created.AssignedToUsername != "bob" || created.CreatedByUsername != "alice" {
		t.Fatalf("joined usernames missing: %+v", created)
	}
	if created.CompletionReport != nil || created.WorkedHours != nil {
		t.Fatalf("pending task must not carry completion fields: %+v", created)
	}

	missing, err := tasks.GetByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing task, got %+v err=%v", missing, err)
	}

	// Assignee must exist.
	if _, err := tasks.Create(ctx, &models.Task{Title: "Y", AssignedTo: 4242, DueDate: "2024-01-01"}); err == nil {
		t.Fatalf("expected foreign key failure for unknown assignee")
	}
}

func TestTaskRepository_UpdateVersionGuard(t *testing.T) {
	_, users, tasks := openTaskRepos(t, "taskversion")
	ctx := context.Background()

	bob, _ := users.Create(ctx, "bob", "h", models.RoleUser)
	task, err := tasks.Create(ctx, &models.Task{Title: "X", AssignedTo: bob.ID, DueDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stale := *task

	report := "done"
	hours := decimal.RequireFromString("3.5")
	task.Status = models.TaskStatusCompleted
	task.CompletionReport = &report
	task.WorkedHours = &hours
	if err := tasks.Update(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}
	if task.Version != 2 {
		t.Fatalf("version not advanced: %d", task.Version)
	}

	got, _ := tasks.GetByID(ctx, task.ID)
	if got.Status != models.TaskStatusCompleted || *got.CompletionReport != "done" || got.WorkedHours.StringFixed(2) != "3.50" {
		t.Fatalf("unexpected stored task: %+v", got)
	}

	// A second writer holding the old version loses.
	stale.Title = "renamed"
	if err := tasks.Update(ctx, &stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	missing := &models.Task{ID: 9999, Title: "x", AssignedTo: bob.ID, DueDate: "2024-01-01", Status: models.TaskStatusPending, Version: 1}
	if err := tasks.Update(ctx, missing); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestTaskRepository_ListFiltersAndPaging(t *testing.T) {
	d, users, tasks := openTaskRepos(t, "tasklist")
	ctx := context.Background()

	alice, _ := users.Create(ctx, "alice", "h", models.RoleAdmin)
	carol, _ := users.Create(ctx, "carol", "h", models.RoleAdmin)
	bob, _ := users.Create(ctx, "bob", "h", models.RoleUser)
	dave, _ := users.Create(ctx, "dave", "h", models.RoleUser)

	for i, spec := range []struct {
		assignee int64
		creator  *int64
	}{
		{bob.ID, &alice.ID},
		{dave.ID, &alice.ID},
		{bob.ID, &carol.ID},
		{dave.ID, nil},
	} {
		if _, err := tasks.Create(ctx, &models.Task{Title: "t", AssignedTo: spec.assignee, DueDate: "2024-01-01", CreatedBy: spec.creator}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	all, err := tasks.List(ctx, ListTasksParams{})
	if err != nil || len(all) != 4 {
		t.Fatalf("list all: len=%d err=%v", len(all), err)
	}
	byAlice, _ := tasks.List(ctx, ListTasksParams{CreatedBy: &alice.ID})
	if len(byAlice) != 2 {
		t.Fatalf("created_by filter: got %d", len(byAlice))
	}
	forBob, _ := tasks.List(ctx, ListTasksParams{AssignedTo: &bob.ID})
	if len(forBob) != 2 {
		t.Fatalf("assigned_to filter: got %d", len(forBob))
	}

	// Page through with size 3.
	page1, _ := tasks.List(ctx, ListTasksParams{PageSize: 3})
	if len(page1) != 3 {
		t.Fatalf("page1 len=%d", len(page1))
	}
	page2, _ := tasks.List(ctx, ListTasksParams{PageSize: 3, AfterID: page1[2].ID})
	if len(page2) != 1 || page2[0].ID <= page1[2].ID {
		t.Fatalf("page2 unexpected: %+v", page2)
	}

	// Deleting the creator keeps the task with a NULL created_by.
	if _, err := d.ExecContext(ctx, "DELETE FROM users WHERE id = ?", carol.ID); err != nil {
		t.Fatalf("delete carol: %v", err)
	}
	orphan, _ := tasks.List(ctx, ListTasksParams{AssignedTo: &bob.ID})
	if len(orphan) != 2 || orphan[1].CreatedBy != nil {
		t.Fatalf("expected created_by set null: %+v", orphan)
	}
}

func TestTaskRepository_ListCompletedAndDelete(t *testing.T) {
	_, users, tasks := openTaskRepos(t, "taskcompleted")
	ctx := context.Background()

	bob, _ := users.Create(ctx, "bob", "h", models.RoleUser)
	a, _ := tasks.Create(ctx, &models.Task{Title: "a", AssignedTo: bob.ID, DueDate: "2024-01-01"})
	b, _ := tasks.Create(ctx, &models.Task{Title: "b", AssignedTo: bob.ID, DueDate: "2024-01-01"})

	report := "done"
	hours := decimal.RequireFromString("1")
	b.Status = models.TaskStatusCompleted
	b.CompletionReport = &report
	b.WorkedHours = &hours
	if err := tasks.Update(ctx, b); err != nil {
		t.Fatalf("complete b: %v", err)
	}

	done, err := tasks.ListCompleted(ctx)
	if err != nil || len(done) != 1 || done[0].ID != b.ID {
		t.Fatalf("list completed: %+v err=%v", done, err)
	}

	if err := tasks.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tasks.Delete(ctx, a.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second delete: expected sql.ErrNoRows, got %v", err)
	}
}

func TestTokenRepository_RevokeAndPurge(t *testing.T) {
	d, err := db.Open("file:tokenrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	users := NewUserRepository(d)
	tokens := NewTokenRepository(d)
	ctx := context.Background()

	u, _ := users.Create(ctx, "alice", "h", models.RoleUser)
	now := time.Now()
	if err := tokens.Revoke(ctx, "jti-1", u.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := tokens.Revoke(ctx, "jti-1", u.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke twice: %v", err)
	}
	if err := tokens.Revoke(ctx, "jti-2", u.ID, now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if ok, err := tokens.IsRevoked(ctx, "jti-1"); err != nil || !ok {
		t.Fatalf("jti-1 should be revoked: ok=%v err=%v", ok, err)
	}
	if ok, _ := tokens.IsRevoked(ctx, "unknown"); ok {
		t.Fatalf("unknown jti should not be revoked")
	}
	n, err := tokens.PurgeExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
}
