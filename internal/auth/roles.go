package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/access"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// RequireAuthenticated ensures a user was loaded by AuthMiddleware.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequirePermission ensures the caller holds perm, directly or via a role.
func RequirePermission(evaluator *access.Evaluator, perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !evaluator.HasPermission(user, perm) {
			return apperrors.NewForbidden("missing permission " + perm)
		}
		return c.Next()
	}
}
