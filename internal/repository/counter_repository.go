package repository

import (
	"context"
	"fmt"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// CounterRepository hands out sequential ticket numbers per kind.
type CounterRepository interface {
	Next(ctx context.Context, kind domain.TicketKind) (int64, error)
}

type counterRepository struct {
	db DBTX
}

// NewCounterRepository builds repository.
func NewCounterRepository(db DBTX) CounterRepository {
	return &counterRepository{db: db}
}

// Next increments the counter atomically in a single statement.
func (r *counterRepository) Next(ctx context.Context, kind domain.TicketKind) (int64, error) {
	const query = `
        INSERT INTO ticket_counters (kind, value) VALUES ($1, 1)
        ON CONFLICT (kind) DO UPDATE SET value = ticket_counters.value + 1
        RETURNING value`
	var value int64
	if err := r.db.QueryRow(ctx, query, string(kind)).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// FormatTicketNumber renders SS00001 / CS00001 style numbers.
func FormatTicketNumber(kind domain.TicketKind, seq int64) string {
	return fmt.Sprintf("%s%05d", kind, seq)
}
