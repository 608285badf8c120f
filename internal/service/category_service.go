package service

import (
	"context"
	"strings"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/repository"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// CategoryService maintains the category tree.
type CategoryService struct {
	categories repository.CategoryRepository
}

// CategoryInput describes one category node.
type CategoryInput struct {
	IssueType domain.IssueType
	L1        string
	L2        string
	L3        string
	L4        string
	Inactive  bool
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// Upsert stores a category node. The id is derived from the path and the
// parent is the node one level up, when that level is below the issue type.
func (s *CategoryService) Upsert(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	switch input.IssueType {
	case domain.IssueTypeComplaint, domain.IssueTypeRequest, domain.IssueTypeInformation:
	default:
		return nil, apperrors.NewValidationError("invalid issue type", map[string]any{"field": "issue_type", "value": input.IssueType})
	}
	levels := []string{
		strings.TrimSpace(input.L1),
		strings.TrimSpace(input.L2),
		strings.TrimSpace(input.L3),
		strings.TrimSpace(input.L4),
	}
	if levels[0] == "" {
		return nil, apperrors.NewValidationError("l1 is required", map[string]any{"field": "l1"})
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] != "" && levels[i-1] == "" {
			return nil, apperrors.NewValidationError("category levels must be contiguous", map[string]any{"missing_level": i})
		}
	}

	category := &domain.Category{
		IssueType: input.IssueType,
		L1:        levels[0],
		L2:        levels[1],
		L3:        levels[2],
		L4:        levels[3],
		IsActive:  !input.Inactive,
	}
	path := category.Path()
	category.ID = domain.CategoryID(path...)
	if len(path) > 2 {
		parent := domain.CategoryID(path[:len(path)-1]...)
		category.ParentID = &parent
	}
	if err := s.categories.Upsert(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}
