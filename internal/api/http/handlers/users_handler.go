package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/api/dto"
	"github.com/sellerdesk/support-portal/internal/repository"
	"github.com/sellerdesk/support-portal/internal/service"
)

// UsersHandler exposes user administration endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	users, err := h.users.List(c.UserContext(), repository.UserFilter{
		Department: c.Query("department"),
		ActiveOnly: c.QueryBool("active_only", false),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return err
	}
	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userResponse(&users[i], nil))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), service.UserCreateInput{
		Email:         req.Email,
		Name:          req.Name,
		Password:      req.Password,
		Role:          req.Role,
		Department:    req.Department,
		SubDepartment: req.SubDepartment,
		ManagerID:     req.ManagerID,
		SlackUserID:   req.SlackUserID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user, h.users.Permissions(user))})
}

// SetManager handles PATCH /admin/users/:id/manager.
func (h *UsersHandler) SetManager(c *fiber.Ctx) error {
	var req dto.SetManagerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetManager(c.UserContext(), c.Params("id"), req.ManagerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user, nil)})
}

// SetPermissions handles PATCH /admin/users/:id/permissions.
func (h *UsersHandler) SetPermissions(c *fiber.Ctx) error {
	var req dto.SetPermissionsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetPermissions(c.UserContext(), c.Params("id"), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user, h.users.Permissions(user))})
}

// Deactivate handles POST /admin/users/:id/deactivate.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Deactivate(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deactivated"}})
}
