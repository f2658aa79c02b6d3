package repository

import (
	"context"
	"errors"
	"time"

	"taskTracker/models"
)

// ErrVersionConflict is returned when a guarded update finds the row at a different version.
var ErrVersionConflict = errors.New("version conflict")

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// TaskRepositoryI defines operations on Task entities.
type TaskRepositoryI interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, p ListTasksParams) ([]models.Task, error)
	ListCompleted(ctx context.Context) ([]models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id int64) error
}

// TokenRepositoryI tracks revoked access tokens.
type TokenRepositoryI interface {
	Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ UserRepositoryI  = (*UserRepository)(nil)
	_ TaskRepositoryI  = (*TaskRepository)(nil)
	_ TokenRepositoryI = (*TokenRepository)(nil)
)
