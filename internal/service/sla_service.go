package service

import (
	"context"
	"strings"
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/repository"
	"github.com/sellerdesk/support-portal/internal/sla"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// SLAService manages SLA configuration and previews targets.
type SLAService struct {
	configs    repository.SLAConfigRepository
	calculator *sla.Calculator
	now        func() time.Time
}

// SLAConfigInput describes a new SLA configuration row.
type SLAConfigInput struct {
	CategoryID       string
	Department       string
	ResponseHours    int
	ResolutionHours  int
	UseBusinessHours bool
}

// SLAPreview is the outcome of a dry-run target computation.
type SLAPreview struct {
	Targets sla.Targets
	Status  domain.SLAStatus
}

// NewSLAService constructs the service.
func NewSLAService(configs repository.SLAConfigRepository, calculator *sla.Calculator, clock func() time.Time) *SLAService {
	if clock == nil {
		clock = time.Now
	}
	return &SLAService{configs: configs, calculator: calculator, now: clock}
}

// List returns every SLA configuration.
func (s *SLAService) List(ctx context.Context) ([]domain.SLAConfig, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if configs == nil {
		configs = []domain.SLAConfig{}
	}
	return configs, nil
}

// Create validates and stores a configuration. Department defaults to All.
func (s *SLAService) Create(ctx context.Context, input SLAConfigInput) (*domain.SLAConfig, error) {
	cfg := &domain.SLAConfig{
		CategoryID:       strings.TrimSpace(input.CategoryID),
		Department:       strings.TrimSpace(input.Department),
		ResponseHours:    input.ResponseHours,
		ResolutionHours:  input.ResolutionHours,
		UseBusinessHours: input.UseBusinessHours,
		IsActive:         true,
	}
	if cfg.Department == "" {
		cfg.Department = domain.DepartmentAll
	}
	switch {
	case cfg.CategoryID == "":
		return nil, apperrors.NewValidationError("category_id is required", map[string]any{"field": "category_id"})
	case cfg.ResolutionHours <= 0:
		return nil, apperrors.NewValidationError("resolution_hours must be positive", map[string]any{"field": "resolution_hours"})
	case cfg.ResponseHours < 0:
		return nil, apperrors.NewValidationError("response_hours must not be negative", map[string]any{"field": "response_hours"})
	case cfg.ResponseHours > cfg.ResolutionHours:
		return nil, apperrors.NewValidationError("response_hours must not exceed resolution_hours", nil)
	}
	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, apperrors.MapError(err)
	}
	return cfg, nil
}

// Preview computes targets for a hypothetical ticket. A zero createdAt
// means now.
func (s *SLAService) Preview(ctx context.Context, categoryID, department string, createdAt time.Time) (*SLAPreview, error) {
	now := s.now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	var configs []domain.SLAConfig
	if categoryID = strings.TrimSpace(categoryID); categoryID != "" {
		var err error
		configs, err = s.configs.ListByCategory(ctx, categoryID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	targets, err := s.calculator.ComputeTargets(createdAt, categoryID, strings.TrimSpace(department), configs)
	if err != nil {
		return nil, apperrors.WrapValidation(err, map[string]any{"field": "created_at"})
	}
	return &SLAPreview{Targets: targets, Status: s.calculator.Status(targets, now)}, nil
}
