package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/access"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/observability"
	"github.com/sellerdesk/support-portal/internal/org"
	"github.com/sellerdesk/support-portal/internal/priority"
	"github.com/sellerdesk/support-portal/internal/repository"
	"github.com/sellerdesk/support-portal/internal/sla"
	"github.com/sellerdesk/support-portal/internal/snapshot"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

// VendorHistoryProvider returns a vendor's recent ticket history.
type VendorHistoryProvider interface {
	Get(ctx context.Context, vendorHandle, categoryID string, now time.Time) (domain.VendorTicketHistory, error)
	Invalidate(ctx context.Context, vendorHandle string) error
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets       repository.TicketRepository
	vendors       repository.VendorRepository
	categories    repository.CategoryRepository
	tags          repository.TagRepository
	slaConfigs    repository.SLAConfigRepository
	counters      repository.CounterRepository
	history       repository.TicketHistoryRepository
	users         repository.UserRepository
	vendorHistory VendorHistoryProvider
	evaluator     *access.Evaluator
	scorer        *priority.Scorer
	calculator    *sla.Calculator
	snapshots     *snapshot.Builder
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	VendorRepo    repository.VendorRepository
	CategoryRepo  repository.CategoryRepository
	TagRepo       repository.TagRepository
	SLAConfigRepo repository.SLAConfigRepository
	CounterRepo   repository.CounterRepository
	HistoryRepo   repository.TicketHistoryRepository
	UserRepo      repository.UserRepository
	VendorHistory VendorHistoryProvider
	Evaluator     *access.Evaluator
	Scorer        *priority.Scorer
	Calculator    *sla.Calculator
	Snapshots     *snapshot.Builder
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	VendorHandle *string
	Department   string
	OwnerTeam    string
	CategoryID   *string
	Title        string
	Description  string
	AssigneeID   *string
	Tags         []string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Department   *string
	AssigneeID   *string
	VendorHandle *string
	Statuses     []domain.TicketStatus
	Tiers        []domain.PriorityTier
	Escalated    *bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// BackfillResult summarizes a snapshot backfill run.
type BackfillResult struct {
	Captured int
	Skipped  int
	Failed   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		vendors:       deps.VendorRepo,
		categories:    deps.CategoryRepo,
		tags:          deps.TagRepo,
		slaConfigs:    deps.SLAConfigRepo,
		counters:      deps.CounterRepo,
		history:       deps.HistoryRepo,
		users:         deps.UserRepo,
		vendorHistory: deps.VendorHistory,
		evaluator:     deps.Evaluator,
		scorer:        deps.Scorer,
		calculator:    deps.Calculator,
		snapshots:     deps.Snapshots,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		now:           now,
	}
}

// Create scores, schedules and snapshots a new ticket.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket := &domain.Ticket{
		VendorHandle: trimmedOrNil(input.VendorHandle),
		Department:   strings.TrimSpace(input.Department),
		OwnerTeam:    strings.TrimSpace(input.OwnerTeam),
		CategoryID:   trimmedOrNil(input.CategoryID),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusNew,
		CreatedByID:  actor.ID,
		Tags:         input.Tags,
	}
	if ticket.Title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if ticket.Department == "" {
		return nil, apperrors.NewValidationError("department is required", map[string]any{"field": "department"})
	}
	if input.AssigneeID != nil && strings.TrimSpace(*input.AssigneeID) != "" {
		assignee, err := s.activeUser(ctx, strings.TrimSpace(*input.AssigneeID))
		if err != nil {
			return nil, err
		}
		ticket.AssigneeID = &assignee.ID
	}

	now := s.now().UTC()
	ticket.CreatedAt = now
	inputs, err := s.gather(ctx, ticket, now)
	if err != nil {
		return nil, err
	}
	s.applyScore(ticket, inputs.result)
	s.applyTargets(ticket, inputs.targets, now)

	seq, err := s.counters.Next(ctx, ticket.Kind())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.TicketNumber = repository.FormatTicketNumber(ticket.Kind(), seq)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	bundle := s.snapshots.Build(ticket, inputs.category, inputs.targets.Config, inputs.result, inputs.tags)
	if err := s.tickets.CaptureSnapshot(ctx, ticket.ID, bundle); err != nil {
		// The ticket row exists; `supportctl snapshot backfill` repairs it.
		s.logger.Error("capture snapshot failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("ticket_number", ticket.TicketNumber),
			zap.Error(err))
	} else {
		applyBundle(ticket, bundle)
	}

	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"status":        ticket.Status,
		"priority_tier": ticket.PriorityTier,
		"score":         ticket.PriorityScore,
	})
	if ticket.VendorHandle != nil && s.vendorHistory != nil {
		if err := s.vendorHistory.Invalidate(ctx, *ticket.VendorHandle); err != nil {
			s.logger.Warn("vendor history invalidation failed", zap.String("vendor", *ticket.VendorHandle), zap.Error(err))
		}
	}
	s.metrics.RecordTicketCreated(string(ticket.PriorityTier))

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventCaseCreated,
		TicketID: ticket.ID,
		ActorID:  actorRef(actor),
		Payload: events.CaseCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Department:   ticket.Department,
			PriorityTier: ticket.PriorityTier,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// Get returns a ticket the actor is allowed to see.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if err := s.ensureVisible(ctx, actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// List returns tickets visible to the actor.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor == nil || !actor.Active {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.TicketFilter{
		Department:   filter.Department,
		AssigneeID:   filter.AssigneeID,
		VendorHandle: filter.VendorHandle,
		Statuses:     filter.Statuses,
		Tiers:        filter.Tiers,
		Escalated:    filter.Escalated,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if !s.evaluator.HasPermission(actor, access.PermViewAllTickets) {
		reports, err := s.reportsOf(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		assignees := []string{actor.ID}
		for id := range reports {
			assignees = append(assignees, id)
		}
		repoFilter.Scope = &repository.TicketScope{
			UserID:      actor.ID,
			Department:  actor.Department,
			AssigneeIDs: assignees,
		}
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// UpdateStatus moves a ticket to a new lifecycle state. Only Closed is
// terminal; other transitions are not validated.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if status == domain.TicketStatusEscalated {
		return s.Escalate(ctx, actor, ticketID, "")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	ticket, err := s.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == status {
		return ticket, nil
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("closed tickets cannot change status", map[string]any{"ticket_id": ticketID})
	}

	old := ticket.Status
	now := s.now().UTC()
	switch status {
	case domain.TicketStatusSolved:
		ticket.SolvedAt = &now
	case domain.TicketStatusClosed:
		if ticket.SolvedAt == nil {
			ticket.SolvedAt = &now
		}
	default:
		ticket.SolvedAt = nil
	}
	ticket.Status = status
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status, ticket.SolvedAt); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"status": old}, map[string]any{"status": status})

	if status == domain.TicketStatusSolved {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:     events.EventTicketSolved,
			TicketID: ticket.ID,
			ActorID:  actorRef(actor),
			Payload:  events.TicketSolvedPayload{OldStatus: old, SolvedAt: now},
		})
	}
	return ticket, nil
}

// Assign sets or clears the ticket assignee.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("closed tickets cannot be reassigned", map[string]any{"ticket_id": ticketID})
	}
	next := trimmedOrNil(assigneeID)
	if next != nil {
		assignee, err := s.activeUser(ctx, *next)
		if err != nil {
			return nil, err
		}
		next = &assignee.ID
	}
	if sameID(ticket.AssigneeID, next) {
		return ticket, nil
	}

	previous := ticket.AssigneeID
	if err := s.tickets.Assign(ctx, ticket.ID, next); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	ticket.AssigneeID = next
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeAssignee,
		map[string]any{"assignee_id": previous}, map[string]any{"assignee_id": next})

	if next != nil {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			ActorID:  actorRef(actor),
			Payload:  events.TicketAssignedPayload{PreviousAssigneeID: previous, AssigneeID: next},
		})
	}
	return ticket, nil
}

// Escalate raises the escalation flag. Escalating twice is a no-op.
func (s *TicketService) Escalate(ctx context.Context, actor *domain.User, ticketID, reason string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsEscalated {
		return ticket, nil
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("closed tickets cannot be escalated", map[string]any{"ticket_id": ticketID})
	}
	if err := s.tickets.SetEscalated(ctx, ticket.ID, true); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	ticket.IsEscalated = true
	reason = strings.TrimSpace(reason)
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeEscalation,
		map[string]any{"is_escalated": false}, map[string]any{"is_escalated": true, "reason": reason})

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		ActorID:  actorRef(actor),
		Payload:  events.TicketEscalatedPayload{Reason: reason},
	})
	return ticket, nil
}

// Resnapshot rebuilds the snapshot from the current catalog. It also
// refreshes the live priority and SLA targets so they agree with the new
// snapshot. A nil actor is the CLI.
func (s *TicketService) Resnapshot(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	inputs, err := s.gather(ctx, ticket, ticket.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.applyScore(ticket, inputs.result)
	s.applyTargets(ticket, inputs.targets, s.now().UTC())

	oldVersion := ticket.SnapshotVersion
	bundle := s.snapshots.Build(ticket, inputs.category, inputs.targets.Config, inputs.result, inputs.tags)
	if ticket.HasSnapshot() {
		err = s.tickets.Resnapshot(ctx, ticket.ID, bundle)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.WrapConflict(err, map[string]any{"ticket_id": ticketID, "reason": "snapshot changed concurrently"})
		}
	} else {
		err = s.tickets.CaptureSnapshot(ctx, ticket.ID, bundle)
		if errors.Is(err, repository.ErrSnapshotAlreadyCaptured) {
			return nil, apperrors.WrapConflict(err, map[string]any{"ticket_id": ticketID})
		}
	}
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if err := s.tickets.UpdatePriority(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.tickets.UpdateSLA(ctx, ticket.ID, slaUpdate(ticket)); err != nil {
		return nil, apperrors.MapError(err)
	}
	applyBundle(ticket, bundle)

	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeSnapshot,
		map[string]any{"snapshot_version": oldVersion},
		map[string]any{"snapshot_version": bundle.Version, "priority_tier": ticket.PriorityTier})
	return ticket, nil
}

// RecalculateSLA recomputes the live SLA targets from the ticket's creation
// time and the current configuration. The frozen snapshot is untouched.
func (s *TicketService) RecalculateSLA(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	configs, err := s.configsFor(ctx, ticket.CategoryID)
	if err != nil {
		return nil, err
	}
	targets, err := s.calculator.ComputeTargets(ticket.CreatedAt, derefString(ticket.CategoryID), ticket.Department, configs)
	if err != nil {
		return nil, apperrors.WrapValidation(err, map[string]any{"ticket_id": ticketID})
	}
	old := map[string]any{"resolve_target": ticket.SLAResolveTarget, "sla_status": ticket.SLAStatus}
	s.applyTargets(ticket, targets, s.now().UTC())

	if err := s.tickets.UpdateSLA(ctx, ticket.ID, slaUpdate(ticket)); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeSLA, old,
		map[string]any{"resolve_target": ticket.SLAResolveTarget, "sla_status": ticket.SLAStatus})
	return ticket, nil
}

// Backfill captures snapshots for tickets that were persisted without one.
func (s *TicketService) Backfill(ctx context.Context, limit int) (BackfillResult, error) {
	var result BackfillResult
	pending, err := s.tickets.ListWithoutSnapshot(ctx, limit)
	if err != nil {
		return result, apperrors.MapError(err)
	}
	for i := range pending {
		ticket := &pending[i]
		inputs, err := s.gather(ctx, ticket, ticket.CreatedAt)
		if err != nil {
			result.Failed++
			s.logger.Warn("backfill gather failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		bundle := s.snapshots.Build(ticket, inputs.category, inputs.targets.Config, priorityOf(ticket, inputs.result), inputs.tags)
		switch err := s.tickets.CaptureSnapshot(ctx, ticket.ID, bundle); {
		case err == nil:
			result.Captured++
		case errors.Is(err, repository.ErrSnapshotAlreadyCaptured):
			result.Skipped++
		default:
			result.Failed++
			s.logger.Warn("backfill capture failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	return result, nil
}

// History returns the audit trail of a visible ticket.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.Get(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

type scoringInputs struct {
	category *domain.Category
	tags     []domain.Tag
	result   priority.Result
	targets  sla.Targets
}

// gather fetches catalog records and runs the scorer and calculator.
// Lookup misses degrade to nil inputs.
func (s *TicketService) gather(ctx context.Context, ticket *domain.Ticket, createdAt time.Time) (scoringInputs, error) {
	var in scoringInputs
	categoryID := derefString(ticket.CategoryID)

	if categoryID != "" {
		category, err := s.categories.GetByID(ctx, categoryID)
		switch {
		case err == nil:
			in.category = category
		case errors.Is(err, pgx.ErrNoRows):
			s.logger.Debug("category not found", zap.String("category_id", categoryID))
		default:
			return in, apperrors.MapError(err)
		}
	}

	var vendor *domain.Vendor
	var history *domain.VendorTicketHistory
	if ticket.VendorHandle != nil {
		v, err := s.vendors.GetByHandle(ctx, *ticket.VendorHandle)
		switch {
		case err == nil:
			vendor = v
		case errors.Is(err, pgx.ErrNoRows):
			s.logger.Debug("vendor not found", zap.String("vendor", *ticket.VendorHandle))
		default:
			return in, apperrors.MapError(err)
		}
		if s.vendorHistory != nil {
			h, err := s.vendorHistory.Get(ctx, *ticket.VendorHandle, categoryID, createdAt)
			if err != nil {
				s.logger.Warn("vendor history unavailable", zap.String("vendor", *ticket.VendorHandle), zap.Error(err))
			} else {
				history = &h
			}
		}
	}
	in.result = s.scorer.Score(ticket, vendor, in.category, history)

	configs, err := s.configsFor(ctx, ticket.CategoryID)
	if err != nil {
		return in, err
	}
	in.targets, err = s.calculator.ComputeTargets(createdAt, categoryID, ticket.Department, configs)
	if err != nil {
		return in, apperrors.WrapValidation(err, map[string]any{"field": "created_at"})
	}

	if len(ticket.Tags) > 0 && s.tags != nil {
		tags, err := s.tags.ListByIDs(ctx, ticket.Tags)
		if err != nil {
			s.logger.Warn("tag lookup failed", zap.Error(err))
		} else {
			in.tags = tags
		}
	}
	return in, nil
}

func (s *TicketService) configsFor(ctx context.Context, categoryID *string) ([]domain.SLAConfig, error) {
	if categoryID == nil || *categoryID == "" {
		return nil, nil
	}
	configs, err := s.slaConfigs.ListByCategory(ctx, *categoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return configs, nil
}

func (s *TicketService) applyScore(ticket *domain.Ticket, result priority.Result) {
	ticket.PriorityScore = result.Score
	ticket.PriorityTier = result.Tier
	ticket.PriorityBadge = result.Badge
}

func (s *TicketService) applyTargets(ticket *domain.Ticket, targets sla.Targets, now time.Time) {
	resolve := targets.ResolveTarget
	ticket.SLAResponseTarget = targets.ResponseTarget
	ticket.SLAResolveTarget = &resolve
	switch ticket.Status {
	case domain.TicketStatusSolved, domain.TicketStatusClosed:
		if ticket.SLAStatus == "" {
			ticket.SLAStatus = domain.SLAStatusOnTrack
		}
	default:
		ticket.SLAStatus = s.calculator.Status(targets, now)
	}
}

// load fetches a ticket for an administrative action. A nil actor skips the
// visibility check.
func (s *TicketService) load(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor != nil {
		return s.Get(ctx, actor, ticketID)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func (s *TicketService) ensureVisible(ctx context.Context, actor *domain.User, ticket *domain.Ticket) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if s.evaluator.CanViewTicket(actor, ticket, nil) {
		return nil
	}
	if ticket.AssigneeID != nil && s.evaluator.HasPermission(actor, access.PermViewTickets) {
		reports, err := s.reportsOf(ctx, actor.ID)
		if err != nil {
			return err
		}
		if s.evaluator.CanViewTicket(actor, ticket, reports) {
			return nil
		}
	}
	return apperrors.NewForbidden("access denied")
}

func (s *TicketService) reportsOf(ctx context.Context, userID string) (map[string]struct{}, error) {
	if s.users == nil {
		return nil, nil
	}
	pairs, err := s.users.ManagerPairs(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return org.NewTree(pairs).Reports(userID), nil
}

func (s *TicketService) activeUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee not found", map[string]any{"assignee_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewValidationError("assignee is inactive", map[string]any{"assignee_id": userID})
	}
	return user, nil
}

func (s *TicketService) recordHistory(ctx context.Context, actor *domain.User, ticketID string, change domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: actorRef(actor),
		ChangeType:  change,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("ticket history write failed",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func applyBundle(ticket *domain.Ticket, b snapshot.Bundle) {
	category := b.Category
	slaSnap := b.SLA
	prio := b.Priority
	captured := b.CapturedAt
	ticket.CategorySnapshot = &category
	ticket.SLASnapshot = &slaSnap
	ticket.PrioritySnapshot = &prio
	ticket.TagsSnapshot = b.Tags
	ticket.SnapshotVersion = b.Version
	ticket.SnapshotCapturedAt = &captured
}

// priorityOf keeps the persisted score for backfilled tickets so the
// snapshot records what the ticket was actually triaged with. The factors
// behind that score were never stored, so the breakdown stays empty.
func priorityOf(ticket *domain.Ticket, computed priority.Result) priority.Result {
	if ticket.PriorityTier == "" {
		return computed
	}
	return priority.Result{
		Score: ticket.PriorityScore,
		Tier:  ticket.PriorityTier,
		Badge: ticket.PriorityTier.Badge(),
	}
}

func slaUpdate(ticket *domain.Ticket) repository.SLAUpdate {
	return repository.SLAUpdate{
		ResponseTarget: ticket.SLAResponseTarget,
		ResolveTarget:  ticket.SLAResolveTarget,
		Status:         ticket.SLAStatus,
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
