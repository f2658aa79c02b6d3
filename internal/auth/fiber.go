package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

const localsPrincipal = "principal"

// Middleware authenticates the Authorization header of every request it guards.
// The principal is stored both in fiber locals and in the request's user context.
func Middleware(authn *Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, err := ParseBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication credentials were not provided."})
		}
		p, err := authn.Authenticate(c.UserContext(), tok)
		if errors.Is(err, ErrUnavailable) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		c.Locals(localsPrincipal, p)
		c.SetUserContext(WithPrincipal(c.UserContext(), p))
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by Middleware.
func PrincipalFrom(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(localsPrincipal).(*Principal)
	return p, ok && p != nil
}
