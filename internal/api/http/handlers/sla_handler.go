package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/api/dto"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/service"
)

// SLAHandler exposes SLA configuration endpoints.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// ListConfigs GET /sla/configs.
func (h *SLAHandler) ListConfigs(c *fiber.Ctx) error {
	configs, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.SLAConfigResponse, 0, len(configs))
	for i := range configs {
		resp = append(resp, slaConfigResponse(&configs[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateConfig POST /sla/configs.
func (h *SLAHandler) CreateConfig(c *fiber.Ctx) error {
	var req dto.CreateSLAConfigRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	cfg, err := h.service.Create(c.UserContext(), service.SLAConfigInput{
		CategoryID:       req.CategoryID,
		Department:       req.Department,
		ResponseHours:    req.ResponseHours,
		ResolutionHours:  req.ResolutionHours,
		UseBusinessHours: req.UseBusinessHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": slaConfigResponse(cfg)})
}

// Preview POST /sla/preview.
func (h *SLAHandler) Preview(c *fiber.Ctx) error {
	var req dto.SLAPreviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var createdAt time.Time
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}
	preview, err := h.service.Preview(c.UserContext(), req.CategoryID, req.Department, createdAt)
	if err != nil {
		return err
	}
	resp := dto.SLAPreviewResponse{
		ResponseTarget:    preview.Targets.ResponseTarget,
		ResolveTarget:     preview.Targets.ResolveTarget,
		UsedBusinessHours: preview.Targets.UsedBusinessHours,
		Fallback:          preview.Targets.Fallback(),
		Status:            preview.Status,
	}
	if preview.Targets.Config != nil {
		id := preview.Targets.Config.ID
		resp.ConfigID = &id
	}
	return c.JSON(fiber.Map{"data": resp})
}

func slaConfigResponse(cfg *domain.SLAConfig) dto.SLAConfigResponse {
	return dto.SLAConfigResponse{
		ID:               cfg.ID,
		CategoryID:       cfg.CategoryID,
		Department:       cfg.Department,
		ResponseHours:    cfg.ResponseHours,
		ResolutionHours:  cfg.ResolutionHours,
		UseBusinessHours: cfg.UseBusinessHours,
		IsActive:         cfg.IsActive,
		CreatedAt:        cfg.CreatedAt,
	}
}
