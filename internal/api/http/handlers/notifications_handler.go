package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/api/dto"
	"github.com/sellerdesk/support-portal/internal/service"
)

// NotificationsHandler serves the caller's in-app feed.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications?unread=true&limit=50.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), 50)
	if limit > 200 {
		limit = 200
	}
	items, err := h.service.List(c.UserContext(), user, c.QueryBool("unread", false), limit)
	if err != nil {
		return err
	}
	resp := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Read:      n.Read,
			TicketID:  n.TicketID,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	count, err := h.service.MarkAllRead(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": count}})
}
