package repository

import (
	"context"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	oldValue, err := marshalJSON(history.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalJSON(history.NewValue)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		history.TicketID,
		history.ChangedByID,
		history.ChangeType,
		oldValue,
		newValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var (
			history        domain.TicketHistory
			oldRaw, newRaw []byte
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ChangedByID,
			&history.ChangeType,
			&oldRaw,
			&newRaw,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		if v, err := unmarshalJSON[map[string]any](oldRaw); err != nil {
			return nil, err
		} else if v != nil {
			history.OldValue = *v
		}
		if v, err := unmarshalJSON[map[string]any](newRaw); err != nil {
			return nil, err
		} else if v != nil {
			history.NewValue = *v
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
