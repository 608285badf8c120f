package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/access"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/repository"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

const maxCommentLength = 10000

// TicketReader loads a ticket on behalf of an actor, enforcing visibility.
type TicketReader interface {
	Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error)
}

// CommentService posts and lists ticket comments.
type CommentService struct {
	tickets    TicketReader
	comments   repository.CommentRepository
	users      repository.UserRepository
	evaluator  *access.Evaluator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	Tickets     TicketReader
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Evaluator   *access.Evaluator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		tickets:    deps.Tickets,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		evaluator:  deps.Evaluator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Add posts a comment. Mentions of unknown or inactive users are dropped.
func (s *CommentService) Add(ctx context.Context, actor *domain.User, ticketID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", map[string]any{"field": "body"})
	}
	if len(body) > maxCommentLength {
		return nil, apperrors.NewValidationError("comment body too long", map[string]any{"max": maxCommentLength})
	}
	if !s.evaluator.HasPermission(actor, access.PermCommentTickets) {
		return nil, apperrors.NewForbidden("missing permission " + access.PermCommentTickets)
	}
	ticket, err := s.tickets.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	mentions, err := s.resolveMentions(ctx, actor, ParseMentions(body))
	if err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
		Mentions: mentions,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	payload := events.CommentPayload{
		CommentID:   comment.ID,
		AuthorID:    actor.ID,
		Mentions:    mentions,
		BodyPreview: stringPreview(PlainMentions(body), 140),
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actorRef(actor),
		Payload:  payload,
	})
	if len(mentions) > 0 {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:     events.EventCommentMention,
			TicketID: ticket.ID,
			ActorID:  actorRef(actor),
			Payload:  payload,
		})
	}
	return comment, nil
}

// List returns the comments of a visible ticket, oldest first.
func (s *CommentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.tickets.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

func (s *CommentService) resolveMentions(ctx context.Context, actor *domain.User, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == actor.ID {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, apperrors.MapError(err)
		}
		if user.Active {
			out = append(out, user.ID)
		}
	}
	return out, nil
}
