package routing

import "github.com/sellerdesk/support-portal/internal/domain"

// Event names published by the ticket pipeline.
const (
	EventCaseCreated     = "case_created"
	EventTicketAssigned  = "ticket_assigned"
	EventCommentAdded    = "comment_added"
	EventCommentMention  = "comment_mention"
	EventTicketSolved    = "ticket_solved"
	EventTicketEscalated = "ticket_escalated"
	EventSLABreached     = "sla_breached"
)

var inAppTypes = map[string][]domain.NotificationType{
	EventCaseCreated:    {domain.NotificationCaseCreated},
	EventTicketAssigned: {domain.NotificationTicketAssigned},
	EventCommentAdded:   {domain.NotificationCommentAdded},
	EventCommentMention: {domain.NotificationCommentMention},
	EventTicketSolved:   {domain.NotificationTicketSolved},
}

// InAppTypes returns the in-app notification types raised by event. Events
// that only reach Slack return nil.
func InAppTypes(event string) []domain.NotificationType {
	types := inAppTypes[event]
	if len(types) == 0 {
		return nil
	}
	return append([]domain.NotificationType(nil), types...)
}
