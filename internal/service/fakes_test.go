package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellerdesk/support-portal/internal/access"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/priority"
	"github.com/sellerdesk/support-portal/internal/repository"
	"github.com/sellerdesk/support-portal/internal/sla"
	"github.com/sellerdesk/support-portal/internal/snapshot"
)

var fixedNow = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC) // Monday

func testEvaluator() *access.Evaluator {
	return access.NewEvaluator(map[domain.Role][]string{
		domain.RoleAdmin:  access.AllPermissions,
		domain.RoleAgent:  {access.PermViewTickets, access.PermCreateTickets, access.PermEditTickets, access.PermCommentTickets},
		domain.RoleViewer: {access.PermViewTickets},
	})
}

func testScorer() *priority.Scorer {
	gmv := make(map[domain.GMVTier]int, len(domain.GMVTiers))
	for i, tier := range domain.GMVTiers {
		gmv[tier] = (i + 1) * 5
	}
	return priority.NewScorer(priority.Tables{
		GMVTierPoints: gmv,
		IssueTypePoints: map[domain.IssueType]int{
			domain.IssueTypeComplaint:   30,
			domain.IssueTypeRequest:     20,
			domain.IssueTypeInformation: 10,
		},
		VolumeBuckets: []priority.Bucket{{Min: 5, Points: 5}, {Min: 10, Points: 10}, {Min: 20, Points: 15}},
		RepeatBuckets: []priority.Bucket{{Min: 2, Points: 5}, {Min: 4, Points: 10}},
		Thresholds:    priority.Thresholds{Critical: 80, High: 60, Medium: 40},
	})
}

// --- tickets ---

type fakeTickets struct {
	mu      sync.Mutex
	byID    map[string]*domain.Ticket
	seq     int
	scopes  []*repository.TicketScope
	slaMark map[string]domain.SLAStatus

	resnapshotErr error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{byID: map[string]*domain.Ticket{}, slaMark: map[string]domain.SLAStatus{}}
}

func (f *fakeTickets) put(t domain.Ticket) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := t
	f.byID[t.ID] = &cp
	return &cp
}

func (f *fakeTickets) get(id string) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", f.seq)
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.TicketNumber == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, filter.Scope)
	var out []domain.Ticket
	for _, t := range f.byID {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTickets) mutate(id string, fn func(*domain.Ticket)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(t)
	return nil
}

func (f *fakeTickets) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, solvedAt *time.Time) error {
	return f.mutate(id, func(t *domain.Ticket) { t.Status = status; t.SolvedAt = solvedAt })
}

func (f *fakeTickets) Assign(_ context.Context, id string, assigneeID *string) error {
	return f.mutate(id, func(t *domain.Ticket) { t.AssigneeID = assigneeID })
}

func (f *fakeTickets) SetEscalated(_ context.Context, id string, escalated bool) error {
	return f.mutate(id, func(t *domain.Ticket) { t.IsEscalated = escalated })
}

func (f *fakeTickets) UpdatePriority(_ context.Context, ticket *domain.Ticket) error {
	return f.mutate(ticket.ID, func(t *domain.Ticket) {
		t.PriorityScore, t.PriorityTier, t.PriorityBadge = ticket.PriorityScore, ticket.PriorityTier, ticket.PriorityBadge
	})
}

func (f *fakeTickets) UpdateSLA(_ context.Context, id string, u repository.SLAUpdate) error {
	return f.mutate(id, func(t *domain.Ticket) {
		t.SLAResponseTarget, t.SLAResolveTarget, t.SLAStatus = u.ResponseTarget, u.ResolveTarget, u.Status
	})
}

func (f *fakeTickets) CaptureSnapshot(_ context.Context, id string, b snapshot.Bundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if t.SnapshotCapturedAt != nil {
		return repository.ErrSnapshotAlreadyCaptured
	}
	applyBundle(t, b)
	return nil
}

func (f *fakeTickets) Resnapshot(_ context.Context, id string, b snapshot.Bundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resnapshotErr != nil {
		return f.resnapshotErr
	}
	t, ok := f.byID[id]
	if !ok || t.SnapshotVersion >= b.Version {
		return pgx.ErrNoRows
	}
	applyBundle(t, b)
	return nil
}

func (f *fakeTickets) ListWithoutSnapshot(_ context.Context, _ int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.byID {
		if t.SnapshotCapturedAt == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTickets) ListSLACandidates(_ context.Context, before time.Time, _ int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.byID {
		if t.Status.Terminal() || t.Status == domain.TicketStatusSolved || t.SLAStatus == domain.SLAStatusBreached {
			continue
		}
		if t.SLAResolveTarget != nil && !t.SLAResolveTarget.After(before) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTickets) MarkSLAStatus(_ context.Context, id string, status domain.SLAStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.SLAStatus == status {
		return false, nil
	}
	t.SLAStatus = status
	return true, nil
}

func (f *fakeTickets) VendorHistory(context.Context, string, string, time.Time) (domain.VendorTicketHistory, error) {
	return domain.VendorTicketHistory{}, nil
}

// --- catalog ---

type fakeVendors map[string]*domain.Vendor

func (f fakeVendors) GetByHandle(_ context.Context, handle string) (*domain.Vendor, error) {
	if v, ok := f[handle]; ok {
		return v, nil
	}
	return nil, pgx.ErrNoRows
}

func (f fakeVendors) Upsert(_ context.Context, v *domain.Vendor) error {
	f[v.Handle] = v
	return nil
}

type fakeCategories map[string]*domain.Category

func (f fakeCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	if c, ok := f[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f fakeCategories) Upsert(_ context.Context, c *domain.Category) error {
	f[c.ID] = c
	return nil
}

type fakeTags []domain.Tag

func (f fakeTags) ListByIDs(_ context.Context, ids []string) ([]domain.Tag, error) {
	var out []domain.Tag
	for _, id := range ids {
		for _, t := range f {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

type fakeSLAConfigs struct {
	rows []domain.SLAConfig
}

func (f *fakeSLAConfigs) ListByCategory(_ context.Context, categoryID string) ([]domain.SLAConfig, error) {
	var out []domain.SLAConfig
	for _, c := range f.rows {
		if c.CategoryID == categoryID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSLAConfigs) List(context.Context) ([]domain.SLAConfig, error) { return f.rows, nil }

func (f *fakeSLAConfigs) Create(_ context.Context, c *domain.SLAConfig) error {
	c.ID = fmt.Sprintf("sla-%d", len(f.rows)+1)
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeSLAConfigs) GetByID(_ context.Context, id string) (*domain.SLAConfig, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeCounter struct{ n map[domain.TicketKind]int64 }

func (f *fakeCounter) Next(_ context.Context, kind domain.TicketKind) (int64, error) {
	if f.n == nil {
		f.n = map[domain.TicketKind]int64{}
	}
	f.n[kind]++
	return f.n[kind], nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (f *fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHistory) types() []domain.TicketChangeType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TicketChangeType, 0, len(f.entries))
	for _, h := range f.entries {
		out = append(out, h.ChangeType)
	}
	return out
}

type fakeVendorHistory struct {
	history     domain.VendorTicketHistory
	invalidated []string
}

func (f *fakeVendorHistory) Get(context.Context, string, string, time.Time) (domain.VendorTicketHistory, error) {
	return f.history, nil
}

func (f *fakeVendorHistory) Invalidate(_ context.Context, handle string) error {
	f.invalidated = append(f.invalidated, handle)
	return nil
}

// --- users ---

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = fmt.Sprintf("10000000-0000-0000-0000-%012d", len(f.byID)+1)
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == domain.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(context.Context, repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) update(id string, fn func(*domain.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(u)
	return nil
}

func (f *fakeUsers) SetManager(_ context.Context, id string, managerID *string) error {
	return f.update(id, func(u *domain.User) { u.ManagerID = managerID })
}

func (f *fakeUsers) SetCustomPermissions(_ context.Context, id string, perms []string) error {
	return f.update(id, func(u *domain.User) { u.CustomPermissions = perms })
}

func (f *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	return f.update(id, func(u *domain.User) { u.Active = active })
}

func (f *fakeUsers) SetPasswordHash(_ context.Context, id, hash string) error {
	return f.update(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (f *fakeUsers) ManagerPairs(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairs := map[string]string{}
	for id, u := range f.byID {
		if u.ManagerID != nil {
			pairs[id] = *u.ManagerID
		} else {
			pairs[id] = ""
		}
	}
	return pairs, nil
}

// --- comments and notifications ---

type fakeComments struct{ rows []domain.Comment }

func (f *fakeComments) Create(_ context.Context, c *domain.Comment) error {
	c.ID = fmt.Sprintf("20000000-0000-0000-0000-%012d", len(f.rows)+1)
	c.CreatedAt = fixedNow
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range f.rows {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeNotifications struct {
	mu   sync.Mutex
	rows map[string]domain.Notification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{rows: map[string]domain.Notification{}}
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[n.ID]; !ok {
		f.rows[n.ID] = *n
	}
	return nil
}

func (f *fakeNotifications) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, _ int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, recipientID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.RecipientID != recipientID {
		return pgx.ErrNoRows
	}
	n.Read = true
	f.rows[id] = n
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id, n := range f.rows {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			f.rows[id] = n
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) byRecipient() map[string][]domain.NotificationType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string][]domain.NotificationType{}
	for _, n := range f.rows {
		out[n.RecipientID] = append(out[n.RecipientID], n.Type)
	}
	return out
}

// --- events ---

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// --- fixture ---

type ticketFixture struct {
	svc        *TicketService
	tickets    *fakeTickets
	users      *fakeUsers
	history    *fakeHistory
	slaConfigs *fakeSLAConfigs
	vendorHist *fakeVendorHistory
	dispatcher *recordingDispatcher
	admin      *domain.User
	agent      *domain.User
	viewer     *domain.User
}

const (
	adminID  = "a0000000-0000-0000-0000-000000000001"
	agentID  = "a0000000-0000-0000-0000-000000000002"
	viewerID = "a0000000-0000-0000-0000-000000000003"
)

func newTicketFixture() *ticketFixture {
	admin := &domain.User{ID: adminID, Email: "admin@example.com", Name: "Ada", Role: domain.RoleAdmin, Department: "Operations", Active: true}
	agent := &domain.User{ID: agentID, Email: "agent@example.com", Name: "Sam", Role: domain.RoleAgent, Department: "Operations", Active: true, SlackUserID: "U123"}
	viewer := &domain.User{ID: viewerID, Email: "viewer@example.com", Name: "Vic", Role: domain.RoleViewer, Department: "Finance", Active: true}

	f := &ticketFixture{
		tickets: newFakeTickets(),
		users:   newFakeUsers(admin, agent, viewer),
		history: &fakeHistory{},
		slaConfigs: &fakeSLAConfigs{rows: []domain.SLAConfig{
			{ID: "sla-1", CategoryID: "complaint__refund__late__partial", Department: domain.DepartmentAll, ResponseHours: 2, ResolutionHours: 24, IsActive: true},
			{ID: "sla-2", CategoryID: "complaint__refund__late__partial", Department: "Operations", ResponseHours: 1, ResolutionHours: 8, IsActive: true},
		}},
		vendorHist: &fakeVendorHistory{history: domain.VendorTicketHistory{TicketCount: 12, SameCategoryCount: 4, WindowDays: 90}},
		dispatcher: &recordingDispatcher{},
		admin:      admin,
		agent:      agent,
		viewer:     viewer,
	}
	scorer := testScorer()
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo: f.tickets,
		VendorRepo: fakeVendors{"acme-store": {Handle: "acme-store", GMVTier: domain.GMVTierPlatinum}},
		CategoryRepo: fakeCategories{"complaint__refund__late__partial": {
			ID: "complaint__refund__late__partial", IssueType: domain.IssueTypeComplaint, L1: "Refund", L2: "Late", L3: "Partial", IsActive: true,
		}},
		TagRepo:       fakeTags{{ID: "tag-1", Name: "vip", Color: "#f00"}},
		SLAConfigRepo: f.slaConfigs,
		CounterRepo:   &fakeCounter{},
		HistoryRepo:   f.history,
		UserRepo:      f.users,
		VendorHistory: f.vendorHist,
		Evaluator:     testEvaluator(),
		Scorer:        scorer,
		Calculator:    sla.NewCalculator(sla.DefaultCalendarOptions()),
		Snapshots:     snapshot.NewBuilder(scorer.IssuePoints, func() time.Time { return fixedNow }),
		Dispatcher:    f.dispatcher,
		Clock:         func() time.Time { return fixedNow },
	})
	return f
}

func strPtr(s string) *string { return &s }
