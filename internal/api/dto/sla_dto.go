package dto

import (
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// CreateSLAConfigRequest payload.
type CreateSLAConfigRequest struct {
	CategoryID       string `json:"category_id"`
	Department       string `json:"department"`
	ResponseHours    int    `json:"response_hours"`
	ResolutionHours  int    `json:"resolution_hours"`
	UseBusinessHours bool   `json:"use_business_hours"`
}

// SLAConfigResponse is a stored configuration row.
type SLAConfigResponse struct {
	ID               string    `json:"id"`
	CategoryID       string    `json:"category_id"`
	Department       string    `json:"department"`
	ResponseHours    int       `json:"response_hours"`
	ResolutionHours  int       `json:"resolution_hours"`
	UseBusinessHours bool      `json:"use_business_hours"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// SLAPreviewRequest payload. A missing created_at means now.
type SLAPreviewRequest struct {
	CategoryID string     `json:"category_id"`
	Department string     `json:"department"`
	CreatedAt  *time.Time `json:"created_at"`
}

// SLAPreviewResponse is a dry-run target computation.
type SLAPreviewResponse struct {
	ResponseTarget    *time.Time       `json:"response_target"`
	ResolveTarget     time.Time        `json:"resolve_target"`
	UsedBusinessHours bool             `json:"used_business_hours"`
	Fallback          bool             `json:"fallback"`
	ConfigID          *string          `json:"config_id"`
	Status            domain.SLAStatus `json:"status"`
}
