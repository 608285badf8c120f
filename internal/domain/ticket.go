package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew     TicketStatus = "New"
	TicketStatusOpen    TicketStatus = "Open"
	TicketStatusPending TicketStatus = "Pending"
	TicketStatusSolved  TicketStatus = "Solved"
	TicketStatusClosed  TicketStatus = "Closed"

	// TicketStatusEscalated is accepted from legacy callers as an alias for
	// the escalation flag. It is never persisted.
	TicketStatusEscalated TicketStatus = "Escalated"
)

// Valid reports whether s is a persisted lifecycle state.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusPending, TicketStatusSolved, TicketStatusClosed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// PriorityTier is the human label derived from a priority score.
type PriorityTier string

const (
	PriorityTierCritical PriorityTier = "Critical"
	PriorityTierHigh     PriorityTier = "High"
	PriorityTierMedium   PriorityTier = "Medium"
	PriorityTierLow      PriorityTier = "Low"
)

// PriorityBadge is the short code paired one-to-one with a tier.
type PriorityBadge string

const (
	BadgeP0 PriorityBadge = "P0"
	BadgeP1 PriorityBadge = "P1"
	BadgeP2 PriorityBadge = "P2"
	BadgeP3 PriorityBadge = "P3"
)

// Badge returns the short code for the tier.
func (t PriorityTier) Badge() PriorityBadge {
	switch t {
	case PriorityTierCritical:
		return BadgeP0
	case PriorityTierHigh:
		return BadgeP1
	case PriorityTierMedium:
		return BadgeP2
	default:
		return BadgeP3
	}
}

// SLAStatus tracks the ticket against its resolve target.
type SLAStatus string

const (
	SLAStatusOnTrack  SLAStatus = "on_track"
	SLAStatusAtRisk   SLAStatus = "at_risk"
	SLAStatusBreached SLAStatus = "breached"
)

// TicketKind distinguishes seller support from customer support.
type TicketKind string

const (
	TicketKindSeller   TicketKind = "SS"
	TicketKindCustomer TicketKind = "CS"
)

// DepartmentCX is the customer experience department, whose tickets route
// by owner team.
const DepartmentCX = "CX"

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                string
	TicketNumber      string
	VendorHandle      *string
	Department        string
	OwnerTeam         string
	CategoryID        *string
	Title             string
	Description       string
	Status            TicketStatus
	IsEscalated       bool
	PriorityTier      PriorityTier
	PriorityBadge     PriorityBadge
	PriorityScore     int
	SLAResponseTarget *time.Time
	SLAResolveTarget  *time.Time
	SLAStatus         SLAStatus
	AssigneeID        *string
	CreatedByID       string
	Tags              []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	SolvedAt          *time.Time

	CategorySnapshot   *CategorySnapshot
	SLASnapshot        *SLASnapshot
	PrioritySnapshot   *PrioritySnapshot
	TagsSnapshot       []TagSnapshot
	SnapshotVersion    int
	SnapshotCapturedAt *time.Time
}

// Kind derives the ticket kind from vendor presence.
func (t *Ticket) Kind() TicketKind {
	if t.VendorHandle != nil && strings.TrimSpace(*t.VendorHandle) != "" {
		return TicketKindSeller
	}
	return TicketKindCustomer
}

// HasSnapshot reports whether the snapshot bundle has been captured.
func (t *Ticket) HasSnapshot() bool {
	return t.SnapshotCapturedAt != nil
}

// CategorySnapshot is the frozen category path.
type CategorySnapshot struct {
	ID             string `json:"id"`
	IssueType      string `json:"issueType"`
	L1             string `json:"l1"`
	L2             string `json:"l2"`
	L3             string `json:"l3"`
	L4             string `json:"l4,omitempty"`
	PriorityPoints int    `json:"priorityPoints"`
}

// SLASnapshot is the frozen SLA configuration and computed targets.
type SLASnapshot struct {
	ConfigID         *string    `json:"configId,omitempty"`
	Department       string     `json:"department"`
	ResponseHours    int        `json:"responseHours"`
	ResolutionHours  int        `json:"resolutionHours"`
	UseBusinessHours bool       `json:"useBusinessHours"`
	ResponseTarget   *time.Time `json:"responseTarget,omitempty"`
	ResolveTarget    time.Time  `json:"resolveTarget"`
	Fallback         bool       `json:"fallback"`
}

// PrioritySnapshot is the frozen priority result.
type PrioritySnapshot struct {
	Score     int            `json:"score"`
	Tier      PriorityTier   `json:"tier"`
	Badge     PriorityBadge  `json:"badge"`
	Breakdown map[string]int `json:"breakdown"`
}

// TagSnapshot is a frozen tag label.
type TagSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}
