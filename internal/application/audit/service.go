package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/collabmarket/settlement-hub/internal/domain/audit"
)

// Service records signed audit entries for admin and money-moving actions.
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
}

// NewService creates a new audit service
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log records an entry and only logs failures; audit never blocks the operation it describes.
func (s *Service) Log(ctx context.Context, entry *audit.AuditEntry) {
	if s == nil {
		return
	}
	if err := s.LogSync(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("entityType", string(entry.EntityType)).
			Str("entityId", entry.EntityID).
			Str("action", string(entry.Action)).
			Msg("failed to create audit log")
	}
}

// LogSync creates a new audit log entry and returns any error.
func (s *Service) LogSync(ctx context.Context, entry *audit.AuditEntry) error {
	auditLog, err := audit.NewAuditLog(entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.SignAuditLog(auditLog, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		auditLog.Signature = sig
	}

	if err := s.repo.Create(ctx, auditLog); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", auditLog.AuditID.String()).
		Str("entityType", string(auditLog.EntityType)).
		Str("entityId", auditLog.EntityID).
		Str("action", string(auditLog.Action)).
		Str("actor", auditLog.Actor).
		Msg("audit log created")

	if auditLog.RiskLevel == audit.RiskLevelHigh {
		s.logger.Warn().
			Str("auditId", auditLog.AuditID.String()).
			Str("action", string(auditLog.Action)).
			Str("actor", auditLog.Actor).
			Msg("high-risk operation recorded")
	}
	return nil
}

// EntityHistory is an audit record with its signature check result.
type EntityHistory struct {
	*audit.AuditLog
	Verified bool `json:"verified"`
}

// GetEntityHistory returns the audit trail of one entity, verifying signatures when a key is set.
func (s *Service) GetEntityHistory(ctx context.Context, entityType audit.EntityType, entityID string) ([]EntityHistory, error) {
	logs, err := s.repo.GetByEntityID(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity history: %w", err)
	}
	out := make([]EntityHistory, 0, len(logs))
	for _, l := range logs {
		verified := len(s.signKey) > 0 && audit.VerifyAuditLog(l, s.signKey)
		if len(s.signKey) > 0 && !verified {
			s.logger.Warn().Str("auditId", l.AuditID.String()).Msg("audit log signature verification failed")
		}
		out = append(out, EntityHistory{AuditLog: l, Verified: verified})
	}
	return out, nil
}
