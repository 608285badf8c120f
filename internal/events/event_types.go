package events

import (
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/routing"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated     EventType = routing.EventCaseCreated
	EventTicketAssigned  EventType = routing.EventTicketAssigned
	EventCommentAdded    EventType = routing.EventCommentAdded
	EventCommentMention  EventType = routing.EventCommentMention
	EventTicketSolved    EventType = routing.EventTicketSolved
	EventTicketEscalated EventType = routing.EventTicketEscalated
	EventSLABreached     EventType = routing.EventSLABreached
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	Department   string              `json:"department"`
	PriorityTier domain.PriorityTier `json:"priority_tier"`
	Title        string              `json:"title"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID         *string `json:"assignee_id,omitempty"`
}

// CommentPayload is shared by comment_added and comment_mention.
type CommentPayload struct {
	CommentID   string   `json:"comment_id"`
	AuthorID    string   `json:"author_id"`
	Mentions    []string `json:"mentions,omitempty"`
	BodyPreview string   `json:"body_preview"`
}

// TicketSolvedPayload payload.
type TicketSolvedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	SolvedAt  time.Time           `json:"solved_at"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	ResolveTarget time.Time `json:"resolve_target"`
	DetectedAt    time.Time `json:"detected_at"`
}
