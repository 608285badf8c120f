package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/api/dto"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/service"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), user, service.TicketCreateInput{
		VendorHandle: req.VendorHandle,
		Department:   req.Department,
		OwnerTeam:    req.OwnerTeam,
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		AssigneeID:   req.AssigneeID,
		Tags:         req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), user, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), user, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Assign(c.UserContext(), user, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	ticket, err := h.service.Escalate(c.UserContext(), user, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Resnapshot POST /tickets/:id/resnapshot.
func (h *TicketsHandler) Resnapshot(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Resnapshot(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// RecalculateSLA POST /tickets/:id/sla/recalculate.
func (h *TicketsHandler) RecalculateSLA(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.RecalculateSLA(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Department:   optionalQuery(c, "department"),
		AssigneeID:   optionalQuery(c, "assignee_id"),
		VendorHandle: optionalQuery(c, "vendor_handle"),
		SearchTerm:   optionalQuery(c, "q"),
		CreatedFrom:  parseTime(c.Query("created_from")),
		CreatedTo:    parseTime(c.Query("created_to")),
	}
	for _, s := range parseList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(s))
	}
	for _, t := range parseList(c.Query("priority")) {
		filter.Tiers = append(filter.Tiers, domain.PriorityTier(t))
	}
	if raw := c.Query("escalated"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.Escalated = &v
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > 200 {
		pageSize = 200
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketSummary{
		ID:            ticket.ID,
		TicketNumber:  ticket.TicketNumber,
		Kind:          ticket.Kind(),
		VendorHandle:  ticket.VendorHandle,
		Department:    ticket.Department,
		OwnerTeam:     ticket.OwnerTeam,
		CategoryID:    ticket.CategoryID,
		Title:         ticket.Title,
		Status:        ticket.Status,
		IsEscalated:   ticket.IsEscalated,
		PriorityScore: ticket.PriorityScore,
		PriorityTier:  ticket.PriorityTier,
		PriorityBadge: ticket.PriorityBadge,
		SLAStatus:     ticket.SLAStatus,
		ResponseDue:   ticket.SLAResponseTarget,
		ResolveDue:    ticket.SLAResolveTarget,
		AssigneeID:    ticket.AssigneeID,
		CreatedByID:   ticket.CreatedByID,
		Tags:          tags,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		SolvedAt:      ticket.SolvedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		Description:   ticket.Description,
	}
	if ticket.HasSnapshot() {
		tags := ticket.TagsSnapshot
		if tags == nil {
			tags = []domain.TagSnapshot{}
		}
		resp.Snapshot = &dto.SnapshotBundle{
			Version:    ticket.SnapshotVersion,
			CapturedAt: ticket.SnapshotCapturedAt,
			Category:   ticket.CategorySnapshot,
			SLA:        ticket.SLASnapshot,
			Priority:   ticket.PrioritySnapshot,
			Tags:       tags,
		}
	}
	return resp
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}
