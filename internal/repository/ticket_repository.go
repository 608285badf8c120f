package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/snapshot"
)

// ErrSnapshotAlreadyCaptured is returned when a first-time snapshot write
// finds the ticket already snapshotted.
var ErrSnapshotAlreadyCaptured = errors.New("ticket snapshot already captured")

// TicketFilter captures search parameters.
type TicketFilter struct {
	Department   *string
	AssigneeID   *string
	CreatedByID  *string
	VendorHandle *string
	Statuses     []domain.TicketStatus
	Tiers        []domain.PriorityTier
	Escalated    *bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Scope        *TicketScope
	Limit        int
	Offset       int
}

// TicketScope restricts a listing to what a viewer without view:all_tickets
// may see: own tickets, tickets assigned to them or their reports, and
// their department's tickets.
type TicketScope struct {
	UserID      string
	Department  string
	AssigneeIDs []string
}

// SLAUpdate carries recalculated SLA fields.
type SLAUpdate struct {
	ResponseTarget *time.Time
	ResolveTarget  *time.Time
	Status         domain.SLAStatus
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, solvedAt *time.Time) error
	Assign(ctx context.Context, id string, assigneeID *string) error
	SetEscalated(ctx context.Context, id string, escalated bool) error
	UpdatePriority(ctx context.Context, ticket *domain.Ticket) error
	UpdateSLA(ctx context.Context, id string, update SLAUpdate) error
	CaptureSnapshot(ctx context.Context, id string, bundle snapshot.Bundle) error
	Resnapshot(ctx context.Context, id string, bundle snapshot.Bundle) error
	ListWithoutSnapshot(ctx context.Context, limit int) ([]domain.Ticket, error)
	ListSLACandidates(ctx context.Context, before time.Time, limit int) ([]domain.Ticket, error)
	MarkSLAStatus(ctx context.Context, id string, status domain.SLAStatus) (bool, error)
	VendorHistory(ctx context.Context, vendorHandle, categoryID string, since time.Time) (domain.VendorTicketHistory, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, ticket_number, vendor_handle, department, owner_team, category_id, title, description,
               status, is_escalated, priority_tier, priority_badge, priority_score,
               sla_response_target, sla_resolve_target, sla_status, assignee_id, created_by_id, tags,
               created_at, updated_at, solved_at,
               category_snapshot, sla_snapshot, priority_snapshot, tags_snapshot,
               snapshot_version, snapshot_captured_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, vendor_handle, department, owner_team, category_id, title, description,
                             status, is_escalated, priority_tier, priority_badge, priority_score,
                             sla_response_target, sla_resolve_target, sla_status, assignee_id, created_by_id, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.VendorHandle,
		ticket.Department,
		ticket.OwnerTeam,
		ticket.CategoryID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.IsEscalated,
		ticket.PriorityTier,
		ticket.PriorityBadge,
		ticket.PriorityScore,
		ticket.SLAResponseTarget,
		ticket.SLAResolveTarget,
		ticket.SLAStatus,
		ticket.AssigneeID,
		ticket.CreatedByID,
		nonNilStrings(ticket.Tags),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_number=$1`, strings.ToUpper(number)))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("LOWER(department)=LOWER($%d)", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.VendorHandle != nil {
		args = append(args, *filter.VendorHandle)
		clauses = append(clauses, fmt.Sprintf("vendor_handle=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Tiers) > 0 {
		placeholders := make([]string, len(filter.Tiers))
		for i, tier := range filter.Tiers {
			args = append(args, tier)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority_tier IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Escalated != nil {
		args = append(args, *filter.Escalated)
		clauses = append(clauses, fmt.Sprintf("is_escalated=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(ticket_number) LIKE %s)", placeholder, placeholder))
	}

	if scope := filter.Scope; scope != nil {
		args = append(args, scope.UserID, nonNilStrings(scope.AssigneeIDs), scope.Department)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(created_by_id=$%d OR assignee_id = ANY($%d::uuid[]) OR ($%d <> '' AND LOWER(department)=LOWER($%d)))",
			n-2, n-1, n, n))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)
	return r.list(ctx, query, args...)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, solvedAt *time.Time) error {
	const query = `UPDATE tickets SET status=$1, solved_at=$2, updated_at=NOW() WHERE id=$3`
	return r.execOne(ctx, query, status, solvedAt, id)
}

func (r *ticketRepository) Assign(ctx context.Context, id string, assigneeID *string) error {
	return r.execOne(ctx, `UPDATE tickets SET assignee_id=$1, updated_at=NOW() WHERE id=$2`, assigneeID, id)
}

func (r *ticketRepository) SetEscalated(ctx context.Context, id string, escalated bool) error {
	return r.execOne(ctx, `UPDATE tickets SET is_escalated=$1, updated_at=NOW() WHERE id=$2`, escalated, id)
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, ticket *domain.Ticket) error {
	const query = `UPDATE tickets SET priority_tier=$1, priority_badge=$2, priority_score=$3, updated_at=NOW() WHERE id=$4`
	return r.execOne(ctx, query, ticket.PriorityTier, ticket.PriorityBadge, ticket.PriorityScore, ticket.ID)
}

func (r *ticketRepository) UpdateSLA(ctx context.Context, id string, update SLAUpdate) error {
	const query = `
        UPDATE tickets SET sla_response_target=$1, sla_resolve_target=$2, sla_status=$3, updated_at=NOW()
        WHERE id=$4`
	return r.execOne(ctx, query, update.ResponseTarget, update.ResolveTarget, update.Status, id)
}

// CaptureSnapshot writes the bundle only while the ticket has none. A
// second call returns ErrSnapshotAlreadyCaptured and leaves the row as is.
func (r *ticketRepository) CaptureSnapshot(ctx context.Context, id string, bundle snapshot.Bundle) error {
	args, err := bundleArgs(bundle)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET category_snapshot=$1, sla_snapshot=$2, priority_snapshot=$3, tags_snapshot=$4,
            snapshot_version=$5, snapshot_captured_at=$6
        WHERE id=$7 AND snapshot_captured_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, append(args, id)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrSnapshotAlreadyCaptured
}

// Resnapshot is the explicit administrative overwrite. The version must
// move forward so concurrent resnapshots cannot both land.
func (r *ticketRepository) Resnapshot(ctx context.Context, id string, bundle snapshot.Bundle) error {
	args, err := bundleArgs(bundle)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET category_snapshot=$1, sla_snapshot=$2, priority_snapshot=$3, tags_snapshot=$4,
            snapshot_version=$5, snapshot_captured_at=$6, updated_at=NOW()
        WHERE id=$7 AND snapshot_version < $5`
	cmd, err := r.db.Exec(ctx, query, append(args, id)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithoutSnapshot(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE snapshot_captured_at IS NULL ORDER BY created_at LIMIT $1`
	return r.list(ctx, query, limit)
}

// ListSLACandidates returns open tickets whose resolve target falls before
// the given instant and that are not yet marked breached.
func (r *ticketRepository) ListSLACandidates(ctx context.Context, before time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status NOT IN ('Solved', 'Closed') AND sla_status <> 'breached'
          AND sla_resolve_target IS NOT NULL AND sla_resolve_target <= $1
        ORDER BY sla_resolve_target LIMIT $2`
	return r.list(ctx, query, before, limit)
}

// MarkSLAStatus moves the ticket to status and reports whether it changed.
func (r *ticketRepository) MarkSLAStatus(ctx context.Context, id string, status domain.SLAStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET sla_status=$1, updated_at=NOW() WHERE id=$2 AND sla_status <> $1`, status, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) VendorHistory(ctx context.Context, vendorHandle, categoryID string, since time.Time) (domain.VendorTicketHistory, error) {
	const query = `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE category_id = $2)
        FROM tickets WHERE vendor_handle=$1 AND created_at >= $3`
	var h domain.VendorTicketHistory
	err := r.db.QueryRow(ctx, query, vendorHandle, categoryID, since).Scan(&h.TicketCount, &h.SameCategoryCount)
	return h, err
}

func (r *ticketRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func bundleArgs(b snapshot.Bundle) ([]any, error) {
	category, err := marshalJSON(b.Category)
	if err != nil {
		return nil, err
	}
	slaSnap, err := marshalJSON(b.SLA)
	if err != nil {
		return nil, err
	}
	prio, err := marshalJSON(b.Priority)
	if err != nil {
		return nil, err
	}
	tags, err := marshalJSON(b.Tags)
	if err != nil {
		return nil, err
	}
	return []any{category, slaSnap, prio, tags, b.Version, b.CapturedAt}, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	var categorySnap, slaSnap, prioSnap, tagsSnap []byte
	if err := row.Scan(
		&t.ID,
		&t.TicketNumber,
		&t.VendorHandle,
		&t.Department,
		&t.OwnerTeam,
		&t.CategoryID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.IsEscalated,
		&t.PriorityTier,
		&t.PriorityBadge,
		&t.PriorityScore,
		&t.SLAResponseTarget,
		&t.SLAResolveTarget,
		&t.SLAStatus,
		&t.AssigneeID,
		&t.CreatedByID,
		&t.Tags,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.SolvedAt,
		&categorySnap,
		&slaSnap,
		&prioSnap,
		&tagsSnap,
		&t.SnapshotVersion,
		&t.SnapshotCapturedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if t.CategorySnapshot, err = unmarshalJSON[domain.CategorySnapshot](categorySnap); err != nil {
		return nil, fmt.Errorf("decode category snapshot: %w", err)
	}
	if t.SLASnapshot, err = unmarshalJSON[domain.SLASnapshot](slaSnap); err != nil {
		return nil, fmt.Errorf("decode sla snapshot: %w", err)
	}
	if t.PrioritySnapshot, err = unmarshalJSON[domain.PrioritySnapshot](prioSnap); err != nil {
		return nil, fmt.Errorf("decode priority snapshot: %w", err)
	}
	tags, err := unmarshalJSON[[]domain.TagSnapshot](tagsSnap)
	if err != nil {
		return nil, fmt.Errorf("decode tags snapshot: %w", err)
	}
	if tags != nil {
		t.TagsSnapshot = *tags
	}
	return &t, nil
}
