package repository

import (
	"context"
	"errors"
	"testing"

	"taskTracker/internal/db"
	"taskTracker/models"
)

func TestUserRepository_CRUDAndQueries(t *testing.T) {
	d, err := db.Open("file:userrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := NewUserRepository(d)
	ctx := context.Background()

	// Create
	u, err := repo.Create(ctx, "alice", "hash", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || u.Role != models.RoleAdmin {
		t.Fatalf("unexpected created user: %+v", u)
	}

	// Duplicate username
	if _, err := repo.Create(ctx, "alice", "hash", models.RoleUser); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	// Invalid role never reaches the database
	if _, err := repo.Create(ctx, "mallory", "hash", models.Role("owner")); err == nil {
		t.Fatalf("expected invalid role error")
	}

	// GetByID
	g, err := repo.GetByID(ctx, u.ID)
	if err != nil || g == nil || g.Username != "alice" || g.PasswordHash != "hash" {
		t.Fatalf("get by id: %v %+v", err, g)
	}

	// GetByUsername
	g2, err := repo.GetByUsername(ctx, "alice")
	if err != nil || g2 == nil || g2.ID != u.ID {
		t.Fatalf("get by username: %v %+v", err, g2)
	}
	missing, err := repo.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing user, got %+v err=%v", missing, err)
	}

	// List
	list, err := repo.List(ctx, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
}
