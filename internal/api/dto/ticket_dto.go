package dto

import (
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	VendorHandle *string  `json:"vendor_handle"`
	Department   string   `json:"department"`
	OwnerTeam    string   `json:"owner_team"`
	CategoryID   *string  `json:"category_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	AssigneeID   *string  `json:"assignee_id"`
	Tags         []string `json:"tags"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignRequest payload. A null assignee unassigns.
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string               `json:"id"`
	TicketNumber  string               `json:"ticket_number"`
	Kind          domain.TicketKind    `json:"kind"`
	VendorHandle  *string              `json:"vendor_handle"`
	Department    string               `json:"department"`
	OwnerTeam     string               `json:"owner_team,omitempty"`
	CategoryID    *string              `json:"category_id"`
	Title         string               `json:"title"`
	Status        domain.TicketStatus  `json:"status"`
	IsEscalated   bool                 `json:"is_escalated"`
	PriorityScore int                  `json:"priority_score"`
	PriorityTier  domain.PriorityTier  `json:"priority_tier"`
	PriorityBadge domain.PriorityBadge `json:"priority_badge"`
	SLAStatus     domain.SLAStatus     `json:"sla_status"`
	ResponseDue   *time.Time           `json:"sla_response_target"`
	ResolveDue    *time.Time           `json:"sla_resolve_target"`
	AssigneeID    *string              `json:"assignee_id"`
	CreatedByID   string               `json:"created_by_id"`
	Tags          []string             `json:"tags"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	SolvedAt      *time.Time           `json:"solved_at"`
}

// TicketDetailResponse adds the description and the frozen snapshot.
type TicketDetailResponse struct {
	TicketSummary
	Description string          `json:"description"`
	Snapshot    *SnapshotBundle `json:"snapshot"`
}

// SnapshotBundle is the frozen scoring context of a ticket.
type SnapshotBundle struct {
	Version    int                      `json:"version"`
	CapturedAt *time.Time               `json:"captured_at"`
	Category   *domain.CategorySnapshot `json:"category"`
	SLA        *domain.SLASnapshot      `json:"sla"`
	Priority   *domain.PrioritySnapshot `json:"priority"`
	Tags       []domain.TagSnapshot     `json:"tags"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID *string                 `json:"changed_by_id"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}

// CreateCommentRequest payload. Mentions use @[Name](user-id) markup.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse is one ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Mentions  []string  `json:"mentions"`
	CreatedAt time.Time `json:"created_at"`
}
