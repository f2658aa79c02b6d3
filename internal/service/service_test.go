package service

import (
	"context"
	"testing"
	"time"

	"taskTracker/internal/auth"
	"taskTracker/internal/policy"
	"taskTracker/internal/testutil"
	"taskTracker/models"
	"taskTracker/repository"
)

type fixture struct {
	users    *repository.UserRepository
	tasks    *repository.TaskRepository
	svc      *TaskService
	accounts *AccountService

	root, alice, bob, carol *models.User
}

func newFixture(t *testing.T, name string, opts policy.Options) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	f := &fixture{
		users: repository.NewUserRepository(d),
		tasks: repository.NewTaskRepository(d),
	}
	p := policy.New(opts)
	v := NewValidator()
	f.svc = NewTaskService(f.tasks, f.users, p, v, nil)
	f.accounts = &AccountService{
		Users:      f.users,
		Tokens:     repository.NewTokenRepository(d),
		Issuer:     auth.NewIssuer("test-secret", time.Hour),
		Policy:     p,
		Validator:  v,
		BcryptCost: 4,
	}
	f.root = testutil.CreateUser(t, f.users, "root", "rootpass1", models.RoleSuperAdmin)
	f.alice = testutil.CreateUser(t, f.users, "alice", "alicepass", models.RoleAdmin)
	f.bob = testutil.CreateUser(t, f.users, "bob", "bobpass12", models.RoleUser)
	f.carol = testutil.CreateUser(t, f.users, "carol", "carolpass", models.RoleUser)
	return f
}

func callerOf(u *models.User) policy.Caller {
	return policy.Caller{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func strPtr(s string) *string { return &s }

func wantKind(t *testing.T, err error, k Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", k)
	}
	if got := KindOf(err); got != k {
		t.Fatalf("expected kind %s, got %s (%v)", k, got, err)
	}
}

// createFor has alice create a task assigned to u.
func (f *fixture) createFor(t *testing.T, u *models.User, title string) *TaskView {
	t.Helper()
	v, err := f.svc.Create(context.Background(), callerOf(f.alice), CreateTaskInput{
		Title:      title,
		AssignedTo: u.ID,
		DueDate:    "2030-01-01",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return v
}

func authenticate(t *testing.T, tokens *repository.TokenRepository, token string) (*auth.Principal, error) {
	t.Helper()
	return auth.NewAuthenticator("test-secret", tokens).Authenticate(context.Background(), token)
}

// racingTasks bumps the stored version of a task right before every update,
// standing in for a concurrent writer.
type racingTasks struct {
	*repository.TaskRepository
}

func (r racingTasks) Update(ctx context.Context, t *models.Task) error {
	other, err := r.TaskRepository.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	other.Title = "concurrent"
	if err := r.TaskRepository.Update(ctx, other); err != nil {
		return err
	}
	return r.TaskRepository.Update(ctx, t)
}
