package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRevoked is returned for a token that was invalidated by logout.
	ErrRevoked = errors.New("token has been revoked")
	// ErrUnavailable wraps failures of the revocation store, as opposed to bad credentials.
	ErrUnavailable = errors.New("authentication backend unavailable")
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator turns a raw bearer token into a Principal.
type Authenticator struct {
	secret  string
	revoked RevocationChecker
}

// NewAuthenticator returns an Authenticator. revoked may be nil to skip revocation checks.
func NewAuthenticator(secret string, revoked RevocationChecker) *Authenticator {
	return &Authenticator{secret: secret, revoked: revoked}
}

// Authenticate validates the token signature, expiry, claims and revocation state.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	p, err := parseJWT(token, a.secret)
	if err != nil {
		return nil, err
	}
	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, p.TokenID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}
	return p, nil
}
