// Package snapshot freezes the catalog data a ticket was scored against.
package snapshot

import (
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/priority"
)

// Unknown replaces category fields when the category no longer exists.
const Unknown = "Unknown"

// Bundle holds the four independent snapshot parts.
type Bundle struct {
	Category   domain.CategorySnapshot
	SLA        domain.SLASnapshot
	Priority   domain.PrioritySnapshot
	Tags       []domain.TagSnapshot
	Version    int
	CapturedAt time.Time
}

// Builder is a pure transform. It performs no I/O.
type Builder struct {
	issuePoints func(domain.IssueType) int
	now         func() time.Time
}

// NewBuilder returns a Builder. issuePoints may be nil.
func NewBuilder(issuePoints func(domain.IssueType) int, now func() time.Time) *Builder {
	if issuePoints == nil {
		issuePoints = func(domain.IssueType) int { return 0 }
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{issuePoints: issuePoints, now: now}
}

// Build produces a bundle from records the caller has already fetched. It
// never mutates its arguments; persisting the result is the caller's job.
func (b *Builder) Build(ticket *domain.Ticket, category *domain.Category, slaConfig *domain.SLAConfig, result priority.Result, tags []domain.Tag) Bundle {
	bundle := Bundle{
		Category:   b.category(ticket, category),
		SLA:        slaSnapshot(ticket, slaConfig),
		Priority:   *result.Snapshot(),
		Tags:       make([]domain.TagSnapshot, 0, len(tags)),
		Version:    1,
		CapturedAt: b.now().UTC(),
	}
	if ticket != nil && ticket.SnapshotVersion > 0 {
		bundle.Version = ticket.SnapshotVersion + 1
	}
	for _, t := range tags {
		bundle.Tags = append(bundle.Tags, domain.TagSnapshot{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return bundle
}

func (b *Builder) category(ticket *domain.Ticket, c *domain.Category) domain.CategorySnapshot {
	if c == nil {
		snap := domain.CategorySnapshot{IssueType: Unknown, L1: Unknown, L2: Unknown, L3: Unknown}
		if ticket != nil && ticket.CategoryID != nil {
			snap.ID = *ticket.CategoryID
		}
		return snap
	}
	return domain.CategorySnapshot{
		ID:             c.ID,
		IssueType:      orUnknown(string(c.IssueType)),
		L1:             orUnknown(c.L1),
		L2:             orUnknown(c.L2),
		L3:             orUnknown(c.L3),
		L4:             c.L4,
		PriorityPoints: b.issuePoints(c.IssueType),
	}
}

func slaSnapshot(ticket *domain.Ticket, cfg *domain.SLAConfig) domain.SLASnapshot {
	snap := domain.SLASnapshot{Fallback: cfg == nil}
	if ticket != nil {
		snap.Department = ticket.Department
		if ticket.SLAResponseTarget != nil {
			resp := *ticket.SLAResponseTarget
			snap.ResponseTarget = &resp
		}
		if ticket.SLAResolveTarget != nil {
			snap.ResolveTarget = *ticket.SLAResolveTarget
		}
	}
	if cfg != nil {
		id := cfg.ID
		snap.ConfigID = &id
		snap.Department = cfg.Department
		snap.ResponseHours = cfg.ResponseHours
		snap.ResolutionHours = cfg.ResolutionHours
		snap.UseBusinessHours = cfg.UseBusinessHours
	}
	return snap
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
