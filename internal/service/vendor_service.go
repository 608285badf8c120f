package service

import (
	"context"
	"strings"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/priority"
	"github.com/sellerdesk/support-portal/internal/repository"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// VendorService maintains vendor reference data.
type VendorService struct {
	vendors    repository.VendorRepository
	thresholds []priority.GMVThreshold
}

// VendorInput describes a vendor record from the upstream sync.
type VendorInput struct {
	Handle   string
	Name     string
	GMV90Day float64
	Region   string
	Zone     string
	Country  string
	KAMEmail string
}

// NewVendorService constructs the service.
func NewVendorService(vendors repository.VendorRepository, thresholds []priority.GMVThreshold) *VendorService {
	return &VendorService{vendors: vendors, thresholds: thresholds}
}

// Upsert stores a vendor with its GMV tier derived from the 90-day GMV.
func (s *VendorService) Upsert(ctx context.Context, input VendorInput) (*domain.Vendor, error) {
	handle := strings.TrimSpace(input.Handle)
	if handle == "" {
		return nil, apperrors.NewValidationError("handle is required", map[string]any{"field": "handle"})
	}
	if input.GMV90Day < 0 {
		return nil, apperrors.NewValidationError("gmv must not be negative", map[string]any{"field": "gmv_90_day"})
	}
	vendor := &domain.Vendor{
		Handle:   handle,
		Name:     strings.TrimSpace(input.Name),
		GMV90Day: input.GMV90Day,
		GMVTier:  priority.DeriveGMVTier(input.GMV90Day, s.thresholds),
		Region:   input.Region,
		Zone:     input.Zone,
		Country:  input.Country,
		KAMEmail: domain.NormalizeEmail(input.KAMEmail),
	}
	if vendor.Name == "" {
		vendor.Name = handle
	}
	if err := s.vendors.Upsert(ctx, vendor); err != nil {
		return nil, apperrors.MapError(err)
	}
	return vendor, nil
}
