package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/observability"
	"github.com/sellerdesk/support-portal/internal/repository"
	"github.com/sellerdesk/support-portal/internal/routing"
	"github.com/sellerdesk/support-portal/internal/slack"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// DeliveryGuard deduplicates Slack deliveries per event and channel.
type DeliveryGuard interface {
	Claim(ctx context.Context, eventID, channel string) (bool, error)
	Release(ctx context.Context, eventID, channel string) error
}

// slackEvents are the events announced in Slack. Comment events only reach
// the in-app feed.
var slackEvents = map[events.EventType]bool{
	events.EventCaseCreated:     true,
	events.EventTicketAssigned:  true,
	events.EventTicketSolved:    true,
	events.EventTicketEscalated: true,
	events.EventSLABreached:     true,
}

// NotificationService fans ticket events out to Slack and the in-app feed.
type NotificationService struct {
	dispatcher    events.Dispatcher
	tickets       repository.TicketRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	router        *routing.Router
	slack         slack.Sender
	guard         DeliveryGuard
	metrics       *observability.Metrics
	logger        *zap.Logger
	publicURL     string
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	TicketRepo       repository.TicketRepository
	UserRepo         repository.UserRepository
	NotificationRepo repository.NotificationRepository
	Router           *routing.Router
	Slack            slack.Sender
	Guard            DeliveryGuard
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	PublicURL        string
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		tickets:       deps.TicketRepo,
		users:         deps.UserRepo,
		notifications: deps.NotificationRepo,
		router:        deps.Router,
		slack:         deps.Slack,
		guard:         deps.Guard,
		metrics:       deps.Metrics,
		logger:        logger,
		publicURL:     strings.TrimRight(deps.PublicURL, "/"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventCaseCreated,
		events.EventTicketAssigned,
		events.EventCommentAdded,
		events.EventCommentMention,
		events.EventTicketSolved,
		events.EventTicketEscalated,
		events.EventSLABreached,
	} {
		n.dispatcher.Subscribe(t, n.Handle)
	}
}

// Handle delivers one event. Delivery failures are logged and counted; they
// never fail the mutation that raised the event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.logger.Warn("notification ticket lookup failed",
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	n.logger.Info("dispatching notifications",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_number", ticket.TicketNumber))

	if slackEvents[event.Type] {
		n.deliverSlack(ctx, event, ticket)
	}
	n.deliverInApp(ctx, event, ticket)
	return nil
}

func (n *NotificationService) deliverSlack(ctx context.Context, event events.Event, ticket *domain.Ticket) {
	if n.slack == nil || n.router == nil {
		return
	}
	channels := n.router.ChannelsFor(routing.ContextFor(ticket))
	if len(channels) == 0 {
		return
	}
	text := n.slackText(ctx, event, ticket)
	for _, channel := range channels {
		if n.guard != nil {
			first, err := n.guard.Claim(ctx, event.ID, channel)
			if err != nil {
				n.logger.Warn("delivery guard unavailable", zap.String("channel", channel), zap.Error(err))
			}
			if !first {
				n.metrics.RecordNotification("slack", "duplicate")
				continue
			}
		}
		if err := n.slack.Send(ctx, channel, text); err != nil {
			n.logger.Warn("slack delivery failed",
				zap.String("event_id", event.ID),
				zap.String("channel", channel),
				zap.Error(err))
			n.metrics.RecordNotification("slack", "failed")
			if n.guard != nil {
				_ = n.guard.Release(ctx, event.ID, channel)
			}
			continue
		}
		n.metrics.RecordNotification("slack", "sent")
	}
}

func (n *NotificationService) deliverInApp(ctx context.Context, event events.Event, ticket *domain.Ticket) {
	if n.notifications == nil {
		return
	}
	for _, kind := range routing.InAppTypes(string(event.Type)) {
		for _, recipient := range recipientsFor(kind, event, ticket) {
			notification := &domain.Notification{
				ID:          notificationID(event.ID, kind, recipient),
				RecipientID: recipient,
				Type:        kind,
				TicketID:    &ticket.ID,
				Metadata:    n.metadata(event, ticket),
			}
			if err := n.notifications.Create(ctx, notification); err != nil {
				n.logger.Warn("in-app notification failed",
					zap.String("event_id", event.ID),
					zap.String("recipient_id", recipient),
					zap.Error(err))
				n.metrics.RecordNotification("in_app", "failed")
				continue
			}
			n.metrics.RecordNotification("in_app", "sent")
		}
	}
}

// recipientsFor picks feed recipients for a notification kind. The actor
// never notifies themselves.
func recipientsFor(kind domain.NotificationType, event events.Event, ticket *domain.Ticket) []string {
	var candidates []string
	var exclude []string
	comment, _ := event.Payload.(events.CommentPayload)

	switch kind {
	case domain.NotificationCaseCreated, domain.NotificationTicketAssigned:
		if ticket.AssigneeID != nil {
			candidates = append(candidates, *ticket.AssigneeID)
		}
	case domain.NotificationTicketSolved:
		candidates = append(candidates, ticket.CreatedByID)
	case domain.NotificationCommentMention:
		candidates = append(candidates, comment.Mentions...)
	case domain.NotificationCommentAdded:
		candidates = append(candidates, ticket.CreatedByID)
		if ticket.AssigneeID != nil {
			candidates = append(candidates, *ticket.AssigneeID)
		}
		// Mentioned users get the more specific notification.
		exclude = append(exclude, comment.Mentions...)
	}
	if event.ActorID != nil {
		exclude = append(exclude, *event.ActorID)
	}
	if comment.AuthorID != "" {
		exclude = append(exclude, comment.AuthorID)
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if id == "" {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// notificationID is stable per event, kind and recipient so a redelivered
// event does not duplicate feed entries.
func notificationID(eventID string, kind domain.NotificationType, recipient string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(eventID+"/"+string(kind)+"/"+recipient)).String()
}

func (n *NotificationService) metadata(event events.Event, ticket *domain.Ticket) map[string]any {
	meta := map[string]any{
		"ticketNumber": ticket.TicketNumber,
		"title":        ticket.Title,
		"event":        string(event.Type),
		"eventId":      event.ID,
	}
	if comment, ok := event.Payload.(events.CommentPayload); ok {
		meta["commentId"] = comment.CommentID
		meta["preview"] = comment.BodyPreview
	}
	return meta
}

func (n *NotificationService) slackText(ctx context.Context, event events.Event, ticket *domain.Ticket) string {
	var headline string
	switch event.Type {
	case events.EventCaseCreated:
		headline = "New case"
	case events.EventTicketAssigned:
		headline = "Assigned"
		if who := n.slackMention(ctx, ticket.AssigneeID); who != "" {
			headline = "Assigned to " + who
		}
	case events.EventTicketSolved:
		headline = "Solved"
	case events.EventTicketEscalated:
		headline = "Escalated"
		if p, ok := event.Payload.(events.TicketEscalatedPayload); ok && p.Reason != "" {
			headline = "Escalated: " + p.Reason
		}
	case events.EventSLABreached:
		headline = "SLA breached"
		if ticket.SLAResolveTarget != nil {
			headline = fmt.Sprintf("SLA breached (target %s)", ticket.SLAResolveTarget.UTC().Format("2006-01-02 15:04 MST"))
		}
	default:
		headline = string(event.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", ticket.PriorityBadge, ticket.TicketNumber, headline, ticket.Title)
	if ticket.Department != "" {
		fmt.Fprintf(&b, " | %s", ticket.Department)
	}
	if n.publicURL != "" {
		fmt.Fprintf(&b, "\n<%s/tickets/%s|Open ticket>", n.publicURL, ticket.ID)
	}
	return b.String()
}

func (n *NotificationService) slackMention(ctx context.Context, userID *string) string {
	if userID == nil || n.users == nil {
		return ""
	}
	user, err := n.users.GetByID(ctx, *userID)
	if err != nil {
		return ""
	}
	if user.SlackUserID != "" {
		return "<@" + user.SlackUserID + ">"
	}
	return user.Name
}

// List returns the caller's feed, newest first.
func (n *NotificationService) List(ctx context.Context, user *domain.User, unreadOnly bool, limit int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByRecipient(ctx, user.ID, unreadOnly, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, nil
}

// MarkRead marks one of the caller's notifications read.
func (n *NotificationService) MarkRead(ctx context.Context, user *domain.User, id string) error {
	if err := n.notifications.MarkRead(ctx, user.ID, id); err != nil {
		return apperrors.NotFoundOr(err, "notification", map[string]any{"notification_id": id})
	}
	return nil
}

// MarkAllRead marks the caller's whole feed read and returns how many
// entries changed.
func (n *NotificationService) MarkAllRead(ctx context.Context, user *domain.User) (int64, error) {
	count, err := n.notifications.MarkAllRead(ctx, user.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}
