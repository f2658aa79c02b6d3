package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const tokenTimeFormat = "2006-01-02 15:04:05"

// TokenRepository records access tokens revoked by logout.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Revoke marks jti as revoked until expiresAt. Revoking twice is not an error.
func (r *TokenRepository) Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("empty jti")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO revoked_tokens (jti, user_id, expires_at) VALUES (?, ?, ?)`,
		jti, userID, expiresAt.UTC().Format(tokenTimeFormat))
	return err
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM revoked_tokens WHERE jti = ?`, jti).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes revocations whose tokens have expired anyway.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= ?`, now.UTC().Format(tokenTimeFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
