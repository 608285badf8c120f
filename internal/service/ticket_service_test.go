package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/priority"
	"github.com/sellerdesk/support-portal/internal/snapshot"
	apperrors "github.com/sellerdesk/support-portal/pkg/util/errorutil"
)

func sellerInput() TicketCreateInput {
	return TicketCreateInput{
		VendorHandle: strPtr("acme-store"),
		Department:   "Operations",
		CategoryID:   strPtr("complaint__refund__late__partial"),
		Title:        "  Refund never arrived ",
		Description:  "Customer paid twice",
		Tags:         []string{"tag-1", "tag-missing"},
	}
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	return de.Code
}

func TestCreateScoresSchedulesAndSnapshots(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	assert.Equal(t, "SS00001", ticket.TicketNumber)
	assert.Equal(t, "Refund never arrived", ticket.Title)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, 90, ticket.PriorityScore)
	assert.Equal(t, domain.PriorityTierCritical, ticket.PriorityTier)
	assert.Equal(t, domain.BadgeP0, ticket.PriorityBadge)

	require.NotNil(t, ticket.SLAResolveTarget)
	assert.Equal(t, fixedNow.Add(8*time.Hour), *ticket.SLAResolveTarget)
	require.NotNil(t, ticket.SLAResponseTarget)
	assert.Equal(t, fixedNow.Add(time.Hour), *ticket.SLAResponseTarget)
	assert.Equal(t, domain.SLAStatusOnTrack, ticket.SLAStatus)

	stored := f.tickets.get(ticket.ID)
	require.NotNil(t, stored)
	require.True(t, stored.HasSnapshot())
	assert.Equal(t, 1, stored.SnapshotVersion)
	assert.Equal(t, "Refund", stored.CategorySnapshot.L1)
	assert.Equal(t, 30, stored.CategorySnapshot.PriorityPoints)
	require.NotNil(t, stored.SLASnapshot.ConfigID)
	assert.Equal(t, "sla-2", *stored.SLASnapshot.ConfigID)
	assert.Equal(t, domain.PriorityTierCritical, stored.PrioritySnapshot.Tier)
	assert.Equal(t, []domain.TagSnapshot{{ID: "tag-1", Name: "vip", Color: "#f00"}}, stored.TagsSnapshot)

	assert.Equal(t, []events.EventType{events.EventCaseCreated}, f.dispatcher.types())
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypeCreated}, f.history.types())
	assert.Equal(t, []string{"acme-store"}, f.vendorHist.invalidated)
}

func TestCreateDegradesOnCatalogMisses(t *testing.T) {
	f := newTicketFixture()
	input := TicketCreateInput{
		Department: "Finance",
		CategoryID: strPtr("gone__category"),
		Title:      "Where is my invoice",
	}

	ticket, err := f.svc.Create(context.Background(), f.agent, input)
	require.NoError(t, err)

	assert.Equal(t, "CS00001", ticket.TicketNumber)
	assert.Equal(t, 0, ticket.PriorityScore)
	assert.Equal(t, domain.PriorityTierLow, ticket.PriorityTier)
	assert.Nil(t, ticket.SLAResponseTarget)
	assert.Equal(t, fixedNow.Add(24*time.Hour), *ticket.SLAResolveTarget)

	stored := f.tickets.get(ticket.ID)
	assert.Equal(t, snapshot.Unknown, stored.CategorySnapshot.L1)
	assert.Equal(t, "gone__category", stored.CategorySnapshot.ID)
	assert.True(t, stored.SLASnapshot.Fallback)
}

func TestCreateValidation(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.agent, TicketCreateInput{Department: "Ops"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = f.svc.Create(ctx, f.agent, TicketCreateInput{Title: "x"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = f.svc.Create(ctx, f.agent, TicketCreateInput{Title: "x", Department: "Ops", AssigneeID: strPtr("a0000000-0000-0000-0000-00000000ffff")})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestGetEnforcesVisibility(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.viewer, ticket.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	got, err := f.svc.Get(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, err = f.svc.Get(ctx, f.admin, "missing")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestGetAllowsManagerOfAssignee(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.admin, TicketCreateInput{Title: "x", Department: "Operations", AssigneeID: strPtr(agentID)})
	require.NoError(t, err)

	require.NoError(t, f.users.SetManager(ctx, agentID, strPtr(viewerID)))
	got, err := f.svc.Get(ctx, f.viewer, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
}

func TestListScopesNonGlobalViewers(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	require.NoError(t, f.users.SetManager(ctx, agentID, strPtr(viewerID)))

	_, err := f.svc.List(ctx, f.admin, TicketListFilter{})
	require.NoError(t, err)
	_, err = f.svc.List(ctx, f.viewer, TicketListFilter{})
	require.NoError(t, err)

	require.Len(t, f.tickets.scopes, 2)
	assert.Nil(t, f.tickets.scopes[0])
	scope := f.tickets.scopes[1]
	require.NotNil(t, scope)
	assert.Equal(t, viewerID, scope.UserID)
	assert.Equal(t, "Finance", scope.Department)
	assert.ElementsMatch(t, []string{viewerID, agentID}, scope.AssigneeIDs)
}

func TestUpdateStatusSolvedThenClosedIsTerminal(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	solved, err := f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusSolved)
	require.NoError(t, err)
	require.NotNil(t, solved.SolvedAt)

	reopened, err := f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Nil(t, reopened.SolvedAt)

	_, err = f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusOpen)
	assert.Equal(t, "CONFLICT", errorCode(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatus("Archived"))
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	assert.Equal(t, []events.EventType{events.EventCaseCreated, events.EventTicketSolved}, f.dispatcher.types())
}

func TestEscalatedStatusAliasSetsFlag(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusEscalated)
	require.NoError(t, err)
	assert.True(t, got.IsEscalated)
	assert.Equal(t, domain.TicketStatusNew, got.Status)

	_, err = f.svc.Escalate(ctx, f.agent, ticket.ID, "again")
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.EventCaseCreated, events.EventTicketEscalated}, f.dispatcher.types())
}

func TestAssignPublishesOnlyOnChange(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.admin, sellerInput())
	require.NoError(t, err)

	got, err := f.svc.Assign(ctx, f.admin, ticket.ID, strPtr(agentID))
	require.NoError(t, err)
	assert.Equal(t, agentID, *got.AssigneeID)

	_, err = f.svc.Assign(ctx, f.admin, ticket.ID, strPtr(agentID))
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, f.admin, ticket.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventCaseCreated, events.EventTicketAssigned}, f.dispatcher.types())
	assert.Equal(t, []domain.TicketChangeType{domain.ChangeTypeCreated, domain.ChangeTypeAssignee, domain.ChangeTypeAssignee}, f.history.types())
}

func TestSnapshotSurvivesCatalogEditsUntilResnapshot(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	// Catalog edit after creation.
	f.slaConfigs.rows[1].ResolutionHours = 4
	stored := f.tickets.get(ticket.ID)
	assert.Equal(t, 8, stored.SLASnapshot.ResolutionHours)

	got, err := f.svc.Resnapshot(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SnapshotVersion)
	assert.Equal(t, 4, got.SLASnapshot.ResolutionHours)

	stored = f.tickets.get(ticket.ID)
	assert.Equal(t, 2, stored.SnapshotVersion)
	assert.Equal(t, stored.CreatedAt.Add(4*time.Hour), *stored.SLAResolveTarget)
	assert.Contains(t, f.history.types(), domain.ChangeTypeSnapshot)
}

func TestRecalculateSLALeavesSnapshot(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	f.slaConfigs.rows[1].ResolutionHours = 1
	got, err := f.svc.RecalculateSLA(ctx, nil, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour), *got.SLAResolveTarget)
	assert.Equal(t, domain.SLAStatusAtRisk, got.SLAStatus)

	stored := f.tickets.get(ticket.ID)
	assert.Equal(t, 1, stored.SnapshotVersion)
	assert.Equal(t, 8, stored.SLASnapshot.ResolutionHours)
}

func TestBackfillCapturesMissingSnapshots(t *testing.T) {
	f := newTicketFixture()
	resolve := fixedNow.Add(24 * time.Hour)
	f.tickets.put(domain.Ticket{
		ID:               "legacy-1",
		TicketNumber:     "CS00099",
		Department:       "Finance",
		Title:            "legacy",
		Status:           domain.TicketStatusOpen,
		PriorityTier:     domain.PriorityTierHigh,
		PriorityScore:    65,
		SLAResolveTarget: &resolve,
		CreatedByID:      agentID,
		CreatedAt:        fixedNow,
	})
	f.tickets.put(domain.Ticket{ID: "broken", Title: "no created_at", Status: domain.TicketStatusOpen})

	result, err := f.svc.Backfill(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Captured: 1, Failed: 1}, result)

	stored := f.tickets.get("legacy-1")
	require.True(t, stored.HasSnapshot())
	assert.Equal(t, domain.PriorityTierHigh, stored.PrioritySnapshot.Tier)
	assert.Equal(t, domain.BadgeP1, stored.PrioritySnapshot.Badge)
	assert.Equal(t, 65, stored.PrioritySnapshot.Score)
	assert.Empty(t, stored.PrioritySnapshot.Breakdown)
	assert.Equal(t, resolve, stored.SLASnapshot.ResolveTarget)
}

func TestPriorityOfKeepsComputedBreakdownForNewTickets(t *testing.T) {
	computed := priority.Result{
		Score:     40,
		Tier:      domain.PriorityTierMedium,
		Badge:     domain.BadgeP2,
		Breakdown: map[string]int{priority.FactorCategory: 30, priority.FactorVolume: 10},
	}
	assert.Equal(t, computed, priorityOf(&domain.Ticket{}, computed))

	legacy := priorityOf(&domain.Ticket{PriorityTier: domain.PriorityTierLow, PriorityScore: 12}, computed)
	assert.Equal(t, 12, legacy.Score)
	assert.Equal(t, domain.BadgeP3, legacy.Badge)
	assert.Empty(t, legacy.Breakdown)
}

func TestResnapshotConflictsOnStaleVersion(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	// The guarded update matched no row: another writer bumped the version.
	f.tickets.resnapshotErr = pgx.ErrNoRows
	_, err = f.svc.Resnapshot(ctx, f.admin, ticket.ID)
	assert.Equal(t, "CONFLICT", errorCode(t, err))
	assert.Equal(t, 1, f.tickets.get(ticket.ID).SnapshotVersion)
}

func TestHistoryRequiresVisibility(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	ticket, err := f.svc.Create(ctx, f.agent, sellerInput())
	require.NoError(t, err)

	entries, err := f.svc.History(ctx, f.agent, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeTypeCreated, entries[0].ChangeType)

	_, err = f.svc.History(ctx, f.viewer, ticket.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}
