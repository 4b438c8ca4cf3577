package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/eatnear/internal/pkg/auth"
)

const claimsKey = "claims"

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenHandler exchanges admin credentials for a bearer token.
func TokenHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tokenRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Username == "" || req.Password == "" {
			return errBadRequest(c, "username and password are required")
		}

		token, exp, err := deps.Auth.Login(req.Username, req.Password)
		if errors.Is(err, auth.ErrBadCredentials) {
			return errUnauthorized(c, "invalid username or password")
		}
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "no-store")
		return c.JSON(tokenResponse{Token: token, ExpiresAt: exp})
	}
}

// RequireAdmin rejects requests without a valid admin bearer token. The
// verified claims are stored in Locals under "claims".
func RequireAdmin(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return errUnauthorized(c, "missing bearer token")
		}

		claims, err := deps.Auth.Validate(raw)
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return errUnauthorized(c, "token has expired")
		case err != nil:
			return errUnauthorized(c, "invalid token")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}
