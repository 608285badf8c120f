package domain

import "time"

// NotificationType enumerates in-app notification kinds.
type NotificationType string

const (
	NotificationCaseCreated    NotificationType = "case_created"
	NotificationCommentMention NotificationType = "comment_mention"
	NotificationCommentAdded   NotificationType = "comment_added"
	NotificationTicketAssigned NotificationType = "ticket_assigned"
	NotificationTicketSolved   NotificationType = "ticket_solved"
)

// Notification is an in-app feed entry for one recipient.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Read        bool
	TicketID    *string
	Metadata    map[string]any
	CreatedAt   time.Time
}
