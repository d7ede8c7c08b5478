package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"bankcards/internal/core/domain"
	"bankcards/internal/core/services"
	"bankcards/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves the caller from an access token
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*services.Principal, error)
}

// AuthMiddleware requires a valid Bearer access token whose user is still enabled
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Read the Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Printf("⚠️ Unauthorized access attempt: %s %s", c.Method(), c.Path())
			return response.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Authentication required")
		}
		accessToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		// 2. Validate token and reload the user
		principal, err := auth.Authenticate(c.Context(), accessToken)
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) && de.Kind == domain.ErrAuthenticationFailed {
				return response.Unauthorized(c, de.Message)
			}
			log.Printf("❌ Authentication error on %s %s: %v", c.Method(), c.Path(), err)
			return response.InternalServerError(c, "An internal error occurred. Please try again later")
		}

		// 3. Set user info in context
		c.Locals("userID", principal.UserID)
		c.Locals("username", principal.Username)
		c.Locals("roles", principal.Roles)

		return c.Next()
	}
}

// RoleMiddleware allows the request if the caller holds any of allowedRoles
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, ok := c.Locals("roles").([]string)
		if !ok {
			return response.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Authentication required")
		}

		for _, role := range roles {
			for _, allowed := range allowedRoles {
				if role == allowed {
					return c.Next()
				}
			}
		}

		username, _ := c.Locals("username").(string)
		log.Printf("⚠️ Access denied for %s: %s %s", username, c.Method(), c.Path())
		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// UserOrAdmin middleware allows USER or ADMIN roles
func UserOrAdmin() fiber.Handler {
	return RoleMiddleware(domain.RoleUser, domain.RoleAdmin)
}
