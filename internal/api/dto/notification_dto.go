package dto

import (
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// NotificationResponse is one in-app feed entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Read      bool                    `json:"read"`
	TicketID  *string                 `json:"ticket_id"`
	Metadata  map[string]any          `json:"metadata"`
	CreatedAt time.Time               `json:"created_at"`
}
