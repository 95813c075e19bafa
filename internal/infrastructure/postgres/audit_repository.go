package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/audit"
)

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Create(ctx context.Context, entry *audit.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs
		(audit_id, entity_type, entity_id, action, actor, actor_role, old_values, new_values, reason, risk_level, signature, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, entry.AuditID, entry.EntityType, entry.EntityID, entry.Action, entry.Actor, entry.ActorRole, jsonbOrNil(entry.OldValues), jsonbOrNil(entry.NewValues), entry.Reason, entry.RiskLevel, entry.Signature, entry.CreatedAt)
	return err
}

func (r *AuditRepository) GetByEntityID(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT audit_id, entity_type, entity_id, action, actor, actor_role, old_values, new_values, reason, risk_level, signature, created_at
		FROM audit_logs WHERE entity_type=$1 AND entity_id=$2 ORDER BY created_at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*audit.AuditLog, 0)
	for rows.Next() {
		log, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

func jsonbOrNil(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func scanAudit(row pgx.Row) (*audit.AuditLog, error) {
	var log audit.AuditLog
	var oldValues, newValues []byte
	if err := row.Scan(&log.AuditID, &log.EntityType, &log.EntityID, &log.Action, &log.Actor, &log.ActorRole, &oldValues, &newValues, &log.Reason, &log.RiskLevel, &log.Signature, &log.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	log.OldValues = oldValues
	log.NewValues = newValues
	return &log, nil
}
