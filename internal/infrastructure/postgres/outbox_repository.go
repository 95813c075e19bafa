package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/outbox"
)

// OutboxRepository implements outbox.Repository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

const outboxColumns = `id, kind, campaign_id, body, status, retry_count, max_retries, last_error, created_at, sent_at, failed_at`

func (r *OutboxRepository) Create(ctx context.Context, m *outbox.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO outbox_messages (`+outboxColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, m.ID, m.Kind, m.CampaignID, m.Body, m.Status, m.RetryCount, m.MaxRetries, m.LastError, m.CreatedAt, m.SentAt, m.FailedAt)
	return err
}

func (r *OutboxRepository) Update(ctx context.Context, m *outbox.Message) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE outbox_messages
		SET status=$1, retry_count=$2, last_error=$3, sent_at=$4, failed_at=$5
		WHERE id=$6
	`, m.Status, m.RetryCount, m.LastError, m.SentAt, m.FailedAt, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox message %s", apperr.ErrNotFound, m.ID)
	}
	return nil
}

// ListDeliverable returns pending messages and failed ones with retries left, oldest first.
func (r *OutboxRepository) ListDeliverable(ctx context.Context, limit int) ([]*outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+outboxColumns+` FROM outbox_messages
		WHERE status='PENDING' OR (status='FAILED' AND retry_count < max_retries)
		ORDER BY created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*outbox.Message, 0)
	for rows.Next() {
		var m outbox.Message
		if err := rows.Scan(&m.ID, &m.Kind, &m.CampaignID, &m.Body, &m.Status, &m.RetryCount, &m.MaxRetries, &m.LastError, &m.CreatedAt, &m.SentAt, &m.FailedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
