package auth

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskTracker/internal/testutil"
)

func TestUnaryAuthInterceptor(t *testing.T) {
	// allowlisted method should bypass auth
	interceptor := NewUnaryAuthInterceptor(NewAuthenticator(testSecret, nil), "/health")

	// 1) Allowlisted path: no header -> handler executes, no principal
	hCalled := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/health"}, func(ctx context.Context, req any) (any, error) {
		hCalled = true
		if p, ok := FromContext(ctx); ok && p != nil {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return 123, nil
	})
	if err != nil || !hCalled {
		t.Fatalf("allowlisted handler err=%v called=%v", err, hCalled)
	}

	// 2) Authenticated path: with token -> principal injected
	tok := testutil.GenerateJWTHS256(t, testSecret, 4, "bob", "user")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, func(ctx context.Context, req any) (any, error) {
		p, ok := FromContext(ctx)
		if !ok || p.UserID != 4 || p.Name != "bob" || p.Role != "user" {
			t.Fatalf("principal not injected: %+v ok=%v", p, ok)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor auth path: %v", err)
	}

	// 3) Missing token on a protected method
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, func(ctx context.Context, req any) (any, error) {
		t.Fatalf("handler must not run without credentials")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

type failingRevocations struct{}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("disk I/O error")
}

func TestUnaryAuthInterceptor_StoreFailureIsInternal(t *testing.T) {
	interceptor := NewUnaryAuthInterceptor(NewAuthenticator(testSecret, failingRevocations{}))
	tok := testutil.GenerateJWTHS256(t, testSecret, 4, "bob", "user")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, func(ctx context.Context, req any) (any, error) {
		return nil, nil
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestFiberMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", Middleware(NewAuthenticator(testSecret, nil)), func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		if ctxP, ok := FromContext(c.UserContext()); !ok || ctxP != p {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(p.Name)
	})

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request without token: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+testutil.GenerateJWTHS256(t, testSecret, 2, "alice", "admin"))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request with token: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != "alice" {
		t.Fatalf("expected 200 alice, got %d %q", resp.StatusCode, body)
	}
}
