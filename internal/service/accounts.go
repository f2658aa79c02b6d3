package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskTracker/internal/auth"
	"taskTracker/internal/policy"
	"taskTracker/models"
	"taskTracker/repository"
)

// AccountStore is the subset of the user repository the account service needs.
type AccountStore interface {
	Create(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// AccountService registers users and manages login sessions.
type AccountService struct {
	Users      AccountStore
	Tokens     repository.TokenRepositoryI
	Issuer     *auth.Issuer
	Policy     *policy.Policy
	Validator  *Validator
	BcryptCost int
	Logger     *slog.Logger
}

func (s *AccountService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// RegisterInput is the body of a user registration request.
type RegisterInput struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" form:"role" validate:"required,oneof=superadmin admin user"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Access    string    `json:"access"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}

// Register creates a user with the requested role. Only a superadmin may call it.
func (s *AccountService) Register(ctx context.Context, c policy.Caller, in RegisterInput) (*UserView, error) {
	if err := s.Policy.CanRegisterUsers(c); err != nil {
		return nil, fromPolicy(err)
	}
	u, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log().Info("user registered", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)), slog.Int64("by", c.UserID))
	v := toUserView(u)
	return &v, nil
}

// ListUsersInput pages through user accounts.
type ListUsersInput struct {
	Limit  int `query:"limit" validate:"gte=0,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}

// ListUsers returns user accounts ordered by id. Staff only.
func (s *AccountService) ListUsers(ctx context.Context, c policy.Caller, in ListUsersInput) ([]UserView, error) {
	if err := s.Policy.CanListUsers(c); err != nil {
		return nil, fromPolicy(err)
	}
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	list, err := s.Users.List(ctx, limit, in.Offset)
	if err != nil {
		return nil, internal("list users", err)
	}
	out := make([]UserView, 0, len(list))
	for i := range list {
		out = append(out, toUserView(&list[i]))
	}
	return out, nil
}

// BootstrapSuperadmin creates a superadmin without a caller. It exists for the
// command line, since no API caller can exist before the first superadmin.
func (s *AccountService) BootstrapSuperadmin(ctx context.Context, username, password string) (*UserView, error) {
	u, err := s.createUser(ctx, RegisterInput{Username: username, Password: password, Role: string(models.RoleSuperAdmin)})
	if err != nil {
		return nil, err
	}
	s.log().Info("superadmin created", slog.Int64("user_id", u.ID), slog.String("username", u.Username))
	v := toUserView(u)
	return &v, nil
}

func (s *AccountService) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, validationError(err.Error())
	}
	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, internal("hash password", err)
	}
	u, err := s.Users.Create(ctx, in.Username, hash, role)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		return nil, validationError("A user with that username already exists.")
	}
	if err != nil {
		return nil, internal("create user", err)
	}
	return u, nil
}

// Login checks credentials and issues an access token.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, internal("get user", err)
	}
	if u == nil {
		_, _ = auth.CheckPassword(auth.DummyHash(s.BcryptCost), in.Password)
		return nil, &Error{Kind: KindAuthentication, Message: MsgInvalidCreds}
	}
	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil || !ok {
		return nil, &Error{Kind: KindAuthentication, Message: MsgInvalidCreds, Err: err}
	}
	tok, p, err := s.Issuer.Issue(u)
	if err != nil {
		return nil, internal("issue token", err)
	}
	s.log().Info("login", slog.Int64("user_id", u.ID))
	return &LoginResult{Access: tok, TokenType: "Bearer", ExpiresAt: p.ExpiresAt, User: toUserView(u)}, nil
}

// Logout revokes the token the principal authenticated with.
func (s *AccountService) Logout(ctx context.Context, p *auth.Principal) error {
	if p == nil || p.TokenID == "" {
		return &Error{Kind: KindAuthentication, Message: "Authentication credentials were not provided."}
	}
	if err := s.Tokens.Revoke(ctx, p.TokenID, p.UserID, p.ExpiresAt); err != nil {
		return internal("revoke token", err)
	}
	s.log().Info("logout", slog.Int64("user_id", p.UserID))
	return nil
}
