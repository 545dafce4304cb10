package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/utils/auth"
	"github.com/examvault/api/utils/response"
)

// RequireAdmin validates the bearer token and loads the admin user into the
// request context
func RequireAdmin(jwtManager *auth.JWTManager, store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return response.Unauthorized(c, "Authentication required")
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return response.Unauthorized(c, "Invalid authorization header")
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		// The token may outlive the account; re-check the user exists
		admin, err := store.GetAdminUserByEmail(claims.Email)
		if err != nil {
			return response.Unauthorized(c, "Admin user not found")
		}

		c.Locals("adminID", admin.ID)
		c.Locals("adminEmail", admin.Email)

		return c.Next()
	}
}
