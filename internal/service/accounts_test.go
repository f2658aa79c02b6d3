package service

import (
	"context"
	"testing"

	"taskTracker/internal/policy"
	"taskTracker/models"
	"taskTracker/repository"
)

func TestRegisterSuperadminOnly(t *testing.T) {
	f := newFixture(t, "svc_register", policy.Options{})
	ctx := context.Background()
	in := RegisterInput{Username: "dave", Password: "davepass1", Role: "user"}

	for _, u := range []*models.User{f.alice, f.bob} {
		_, err := f.accounts.Register(ctx, callerOf(u), in)
		wantKind(t, err, KindPermissionDenied)
	}

	v, err := f.accounts.Register(ctx, callerOf(f.root), in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if v.Username != "dave" || v.Role != "user" || v.ID == 0 {
		t.Fatalf("unexpected user view: %+v", v)
	}

	_, err = f.accounts.Register(ctx, callerOf(f.root), in)
	wantKind(t, err, KindValidation)

	_, err = f.accounts.Register(ctx, callerOf(f.root), RegisterInput{Username: "eve", Password: "short", Role: "user"})
	wantKind(t, err, KindValidation)

	_, err = f.accounts.Register(ctx, callerOf(f.root), RegisterInput{Username: "eve", Password: "evepass12", Role: "owner"})
	wantKind(t, err, KindValidation)
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t, "svc_login", policy.Options{})
	ctx := context.Background()

	_, err := f.accounts.Login(ctx, LoginInput{Username: "bob", Password: "wrong-pass"})
	wantKind(t, err, KindAuthentication)
	if MessageOf(err) != MsgInvalidCreds {
		t.Fatalf("unexpected message: %q", MessageOf(err))
	}
	_, err = f.accounts.Login(ctx, LoginInput{Username: "nobody", Password: "whatever1"})
	wantKind(t, err, KindAuthentication)
	if MessageOf(err) != MsgInvalidCreds {
		t.Fatalf("unknown user message: %q", MessageOf(err))
	}

	res, err := f.accounts.Login(ctx, LoginInput{Username: "bob", Password: "bobpass12"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Access == "" || res.TokenType != "Bearer" || res.User.Role != "user" {
		t.Fatalf("unexpected login result: %+v", res)
	}

	tokens := f.accounts.Tokens.(*repository.TokenRepository)
	p, err := authenticate(t, tokens, res.Access)
	if err != nil {
		t.Fatalf("authenticate fresh token: %v", err)
	}
	if err := f.accounts.Logout(ctx, p); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := authenticate(t, tokens, res.Access); err == nil {
		t.Fatalf("expected revoked token to be rejected")
	}

	wantKind(t, f.accounts.Logout(ctx, nil), KindAuthentication)
}

func TestBootstrapSuperadmin(t *testing.T) {
	f := newFixture(t, "svc_bootstrap", policy.Options{})
	v, err := f.accounts.BootstrapSuperadmin(context.Background(), "boss", "bosspass1")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if v.Role != string(models.RoleSuperAdmin) {
		t.Fatalf("expected superadmin, got %s", v.Role)
	}
	if _, err := f.accounts.Login(context.Background(), LoginInput{Username: "boss", Password: "bosspass1"}); err != nil {
		t.Fatalf("login as bootstrapped superadmin: %v", err)
	}
}

func TestListUsers(t *testing.T) {
	f := newFixture(t, "svc_list_users", policy.Options{})
	ctx := context.Background()

	_, err := f.accounts.ListUsers(ctx, callerOf(f.bob), ListUsersInput{})
	wantKind(t, err, KindPermissionDenied)

	users, err := f.accounts.ListUsers(ctx, callerOf(f.alice), ListUsersInput{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
		t.Fatalf("unexpected users: %+v", users)
	}

	_, err = f.accounts.ListUsers(ctx, callerOf(f.root), ListUsersInput{Limit: 500})
	wantKind(t, err, KindValidation)
}
