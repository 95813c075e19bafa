package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
)

// DisputeRepository implements dispute.Repository. Evidence and messages are JSONB
// arrays capped at dispute.MaxLogEntries, keeping the newest entries.
type DisputeRepository struct {
	pool *pgxpool.Pool
}

func NewDisputeRepository(pool *pgxpool.Pool) *DisputeRepository {
	return &DisputeRepository{pool: pool}
}

const (
	disputeColumns = `id, campaign_id, raised_by, against, role_of_raiser, reason, description, status, evidence, messages, resolution, created_at, updated_at`
	openStatusSQL  = `('pending','needs_info','escalated')`
)

// capJSONB keeps the last dispute.MaxLogEntries elements of the array expression.
func capJSONB(expr string) string {
	return `(SELECT COALESCE(jsonb_agg(e ORDER BY ord), '[]'::jsonb) FROM (
		SELECT e, ord FROM jsonb_array_elements(` + expr + `) WITH ORDINALITY AS t(e, ord)
		ORDER BY ord DESC LIMIT ` + itoa(dispute.MaxLogEntries) + `) capped)`
}

// Create inserts a dispute. A second open dispute on the campaign violates
// uq_disputes_open_per_campaign and is reported as apperr.ErrConflict.
func (r *DisputeRepository) Create(ctx context.Context, d *dispute.Dispute) error {
	evidence, err := json.Marshal(nonNil(d.Evidence))
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	messages, err := json.Marshal(nonNil(d.Messages))
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO disputes (id, campaign_id, raised_by, against, role_of_raiser, reason, description, status, evidence, messages, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, d.ID, d.CampaignID, d.RaisedBy, d.Against, d.RoleOfRaiser, d.Reason, d.Description, d.Status, evidence, messages, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: an open dispute already exists for this campaign", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, disputeID uuid.UUID) (*dispute.Dispute, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id=$1`, disputeID)
	return scanDispute(row)
}

func (r *DisputeRepository) HasOpenForCampaign(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	var open bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM disputes WHERE campaign_id=$1 AND status IN `+openStatusSQL+`)
	`, campaignID).Scan(&open)
	return open, err
}

func (r *DisputeRepository) List(ctx context.Context, filter dispute.Filter, limit, offset int) ([]*dispute.Dispute, int, error) {
	where := ""
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		where += addWhere(where) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.CampaignID != nil {
		where += addWhere(where) + " campaign_id=$" + itoa(idx)
		args = append(args, *filter.CampaignID)
		idx++
	}
	if filter.Participant != nil {
		where += addWhere(where) + " (raised_by=$" + itoa(idx) + " OR against=$" + itoa(idx) + ")"
		args = append(args, *filter.Participant)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM disputes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + disputeColumns + ` FROM disputes` + where +
		" ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]*dispute.Dispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *DisputeRepository) AppendEvidence(ctx context.Context, disputeID uuid.UUID, evidence []dispute.Evidence) (bool, error) {
	payload, err := json.Marshal(nonNil(evidence))
	if err != nil {
		return false, fmt.Errorf("marshal evidence: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET evidence=`+capJSONB(`disputes.evidence || $1::jsonb`)+`, updated_at=NOW()
		WHERE id=$2 AND status IN `+openStatusSQL, payload, disputeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DisputeRepository) AppendMessage(ctx context.Context, disputeID uuid.UUID, message dispute.Message) (bool, error) {
	payload, err := json.Marshal([]dispute.Message{message})
	if err != nil {
		return false, fmt.Errorf("marshal message: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET messages=`+capJSONB(`disputes.messages || $1::jsonb`)+`, updated_at=NOW()
		WHERE id=$2 AND status IN `+openStatusSQL, payload, disputeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Resolve stores the decision only if none was recorded yet.
func (r *DisputeRepository) Resolve(ctx context.Context, disputeID uuid.UUID, status dispute.Status, resolution dispute.Resolution) (bool, error) {
	payload, err := json.Marshal(resolution)
	if err != nil {
		return false, fmt.Errorf("marshal resolution: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET status=$1, resolution=$2, updated_at=$3
		WHERE id=$4 AND resolution IS NULL
	`, status, payload, resolution.DecidedAt, disputeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanDispute(row pgx.Row) (*dispute.Dispute, error) {
	var d dispute.Dispute
	var evidence, messages, resolution []byte
	if err := row.Scan(&d.ID, &d.CampaignID, &d.RaisedBy, &d.Against, &d.RoleOfRaiser, &d.Reason, &d.Description, &d.Status, &evidence, &messages, &resolution, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.Evidence = []dispute.Evidence{}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &d.Evidence); err != nil {
			return nil, fmt.Errorf("decode evidence: %w", err)
		}
	}
	d.Messages = []dispute.Message{}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &d.Messages); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
	}
	if len(resolution) > 0 {
		var res dispute.Resolution
		if err := json.Unmarshal(resolution, &res); err != nil {
			return nil, fmt.Errorf("decode resolution: %w", err)
		}
		d.Resolution = &res
	}
	return &d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
