package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskTracker/internal/testutil"
	"taskTracker/models"
)

const testSecret = "test-secret"

func TestIssueAndAuthenticate_RoundTrip(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	tok, issued, err := iss.Issue(&models.User{ID: 7, Username: "alice", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.TokenID == "" || issued.ExpiresAt.IsZero() {
		t.Fatalf("issued principal missing jti/exp: %+v", issued)
	}
	p, err := NewAuthenticator(testSecret, nil).Authenticate(context.Background(), tok)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != 7 || p.Name != "alice" || p.Role != models.RoleAdmin || p.TokenID != issued.TokenID {
		t.Fatalf("principal mismatch: %+v", p)
	}
	if c := p.Caller(); c.UserID != 7 || c.Role != models.RoleAdmin {
		t.Fatalf("caller mismatch: %+v", c)
	}
}

func TestIssue_RejectsInvalidUser(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	if _, _, err := iss.Issue(&models.User{ID: 1, Username: "x", Role: models.Role("owner")}); err == nil {
		t.Fatalf("expected error for invalid role")
	}
	if _, _, err := NewIssuer("", time.Hour).Issue(&models.User{ID: 1, Username: "x", Role: models.RoleUser}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestParseJWT_WrongSecretAndExpiry(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, 3, "bob", "user")
	if _, err := parseJWT(tok, "wrong"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}

	iss := NewIssuer(testSecret, time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := iss.Issue(&models.User{ID: 3, Username: "bob", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := parseJWT(expired, testSecret); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestParseJWT_ClaimsValidation(t *testing.T) {
	// Missing name -> invalid
	tok := testutil.GenerateJWTHS256(t, testSecret, 3, "", "user")
	if _, err := parseJWT(tok, testSecret); err == nil {
		t.Fatalf("expected invalid claims error")
	}
	// Role outside the closed set -> invalid
	tok = testutil.GenerateJWTHS256(t, testSecret, 3, "bob", "owner")
	if _, err := parseJWT(tok, testSecret); err == nil {
		t.Fatalf("expected invalid role error")
	}
}

func TestParseBearer(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc":  true,
		"bearer abc":  true,
		"Token abc":   false,
		"Bearer ":     false,
		"":            false,
		"Bearerabc":   false,
		"Bearer  abc": true,
	}
	for header, ok := range cases {
		tok, err := ParseBearer(header)
		if ok && (err != nil || tok != "abc") {
			t.Fatalf("%q: expected abc, got %q err=%v", header, tok, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected error", header)
		}
	}
}

type fakeRevocations map[string]bool

func (f fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f[jti], nil
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	tok, p, err := iss.Issue(&models.User{ID: 2, Username: "bob", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	authn := NewAuthenticator(testSecret, fakeRevocations{p.TokenID: true})
	if _, err := authn.Authenticate(context.Background(), tok); err != ErrRevoked {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, err := CheckPassword(hash, "s3cret-pass"); err != nil || !ok {
		t.Fatalf("check good password: ok=%v err=%v", ok, err)
	}
	if ok, err := CheckPassword(hash, "nope"); err != nil || ok {
		t.Fatalf("check bad password: ok=%v err=%v", ok, err)
	}
}

func TestDummyHash(t *testing.T) {
	h := DummyHash(5)
	if cost, err := bcrypt.Cost([]byte(h)); err != nil || cost != 5 {
		t.Fatalf("expected cost 5, got %d err=%v", cost, err)
	}
	if again := DummyHash(5); again != h {
		t.Fatalf("dummy hash not reused")
	}
	if ok, err := CheckPassword(h, "anything"); err != nil || ok {
		t.Fatalf("dummy hash matched: ok=%v err=%v", ok, err)
	}
}
