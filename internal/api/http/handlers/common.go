package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/api/dto"
	"github.com/sellerdesk/support-portal/internal/auth"
	"github.com/sellerdesk/support-portal/internal/domain"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func userResponse(user *domain.User, permissions []string) dto.UserResponse {
	return dto.UserResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		Role:              user.Role,
		AdditionalRoles:   user.AdditionalRoles,
		CustomPermissions: user.CustomPermissions,
		Permissions:       permissions,
		Department:        user.Department,
		SubDepartment:     user.SubDepartment,
		ManagerID:         user.ManagerID,
		SlackUserID:       user.SlackUserID,
		Active:            user.Active,
		CreatedAt:         user.CreatedAt,
	}
}
