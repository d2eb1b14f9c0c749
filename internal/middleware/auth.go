package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
)

// Authorize validates the bearer access token and, when roles are given,
// requires the caller's role to be one of them. With no roles any
// authenticated caller passes.
func Authorize(secret string, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := utils.ParseAccessToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}

		c.Locals(userContextKey, claims.UserID)
		c.Locals(roleContextKey, claims.Role)
		return c.Next()
	}
}

func hasRole(role models.Role, allowed []models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(userContextKey).(uint)
	return id, ok
}

// CurrentActor returns the authenticated caller set by Authorize.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	id, ok := GetCurrentUserID(c)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := c.Locals(roleContextKey).(models.Role)
	return services.Actor{ID: id, Role: role}, true
}
