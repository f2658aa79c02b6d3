package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"taskTracker/internal/policy"
	"taskTracker/models"
)

// Principal represents the authenticated caller from JWT.
type Principal struct {
	UserID    int64
	Name      string
	Role      models.Role
	TokenID   string // jti, used for revocation
	ExpiresAt time.Time
}

// Caller converts the principal into the identity the access policy evaluates.
func (p *Principal) Caller() policy.Caller {
	return policy.Caller{UserID: p.UserID, Username: p.Name, Role: p.Role}
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

type claims struct {
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer signing HS256 tokens valid for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for u and the principal it encodes.
func (i *Issuer) Issue(u *models.User) (string, *Principal, error) {
	if len(i.secret) == 0 {
		return "", nil, errors.New("jwt secret is empty")
	}
	if u == nil || u.ID == 0 || !u.Role.Valid() {
		return "", nil, errors.New("cannot issue token for invalid user")
	}
	now := i.now()
	p := &Principal{
		UserID:    u.ID,
		Name:      u.Username,
		Role:      u.Role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(i.ttl).Truncate(time.Second),
	}
	c := claims{
		UserID: p.UserID,
		Name:   p.Name,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.TokenID,
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return s, p, nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" header value.
func ParseBearer(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}

// TokenFromMD extracts the Bearer token from gRPC metadata.
func TokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return "", errors.New("missing authorization")
	}
	return ParseBearer(vals[0])
}

// parseJWT validates and extracts claims from a JWT token.
func parseJWT(tokenStr string, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.UserID == 0 || c.Name == "" || c.ID == "" {
		return nil, errors.New("invalid claims")
	}
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return nil, errors.New("invalid claims")
	}
	p := &Principal{UserID: c.UserID, Name: c.Name, Role: role, TokenID: c.ID}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}
