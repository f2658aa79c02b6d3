package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/metadata"

	"taskTracker/internal/db"
	"taskTracker/models"
	"taskTracker/repository"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The name must be unique per test so that shared-cache databases do not collide.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// CreateUser inserts a user with a low-cost bcrypt hash of password.
func CreateUser(t *testing.T, users *repository.UserRepository, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	u, err := users.Create(ctx, username, string(hash), role)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateTask inserts a pending task assigned to assignee and created by creator (may be nil).
func CreateTask(t *testing.T, tasks *repository.TaskRepository, title string, assignee int64, creator *int64) *models.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	task, err := tasks.Create(ctx, &models.Task{
		Title:      title,
		AssignedTo: assignee,
		DueDate:    "2024-01-01",
		CreatedBy:  creator,
	})
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

// GenerateJWTHS256 returns a signed JWT string with the claims used by the app.
func GenerateJWTHS256(t *testing.T, secret string, userID int64, name, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":  userID,
		"name": name,
		"role": role,
		"jti":  "test-" + name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// OutgoingBearer returns a client context that sends the token as gRPC Authorization metadata.
func OutgoingBearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}
