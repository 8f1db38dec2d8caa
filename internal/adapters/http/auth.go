package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const userIDLocal = "user_id"

// AuthMiddleware maps a bearer credential to a user ID via the configured
// policy and stores it in request locals. Requests without a credential
// proceed anonymously; the policy decides whether that is acceptable.
func AuthMiddleware(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Auth == nil {
			return c.Next()
		}

		credential := c.Get(fiber.HeaderAuthorization)
		credential = strings.TrimPrefix(credential, "Bearer ")

		userID, err := deps.Auth.Authorize(c.Context(), credential)
		if err != nil {
			return errUnauthorized(c, "invalid or missing credential")
		}
		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

// userID returns the authenticated user, or "" for anonymous requests.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}
