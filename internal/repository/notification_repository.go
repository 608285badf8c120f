package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// NotificationRepository stores the in-app feed.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts n. The id is assigned by the caller; a repeated id is
// ignored so redelivered events do not duplicate feed entries.
func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	metadata, err := marshalJSON(n.Metadata)
	if err != nil {
		return err
	}
	if n.Metadata == nil {
		metadata = []byte(`{}`)
	}
	const query = `
        INSERT INTO notifications (id, recipient_id, type, read, ticket_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (id) DO NOTHING`
	_, err = r.db.Exec(ctx, query, n.ID, n.RecipientID, n.Type, n.Read, n.TicketID, metadata)
	return err
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, recipient_id, type, read, ticket_id, metadata, created_at
        FROM notifications WHERE recipient_id=$1 AND (NOT $2 OR NOT read)
        ORDER BY created_at DESC LIMIT $3`
	rows, err := r.db.Query(ctx, query, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var (
			n   domain.Notification
			raw []byte
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Read, &n.TicketID, &raw, &n.CreatedAt); err != nil {
			return nil, err
		}
		meta, err := unmarshalJSON[map[string]any](raw)
		if err != nil {
			return nil, err
		}
		if meta != nil {
			n.Metadata = *meta
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read=TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read=TRUE WHERE recipient_id=$1 AND NOT read`, recipientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
