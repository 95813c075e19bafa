package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityCampaign EntityType = "campaign"
	EntityProposal EntityType = "proposal"
	EntityDispute  EntityType = "dispute"
)

type Action string

const (
	ActionCampaignStatusChanged Action = "campaign.status_changed"
	ActionManualPayout          Action = "payout.manual"
	ActionDisputeDecided        Action = "dispute.decided"
	ActionPaymentConfirmed      Action = "payment.confirmed"
)

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// AuditEntry is the input for recording an admin or money-moving action.
type AuditEntry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	ActorRole  string
	OldValues  any
	NewValues  any
	Reason     string
	RiskLevel  RiskLevel
}

// AuditLog is a persisted, optionally signed audit record.
type AuditLog struct {
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	ActorRole  string          `json:"actorRole,omitempty"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RiskLevel  RiskLevel       `json:"riskLevel"`
	Signature  []byte          `json:"signature,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewAuditLog builds a log record from an entry.
func NewAuditLog(entry *AuditEntry) (*AuditLog, error) {
	log := &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      entry.Actor,
		ActorRole:  entry.ActorRole,
		Reason:     entry.Reason,
		RiskLevel:  entry.RiskLevel,
		CreatedAt:  time.Now().UTC(),
	}
	if log.RiskLevel == "" {
		log.RiskLevel = RiskLevelLow
	}
	var err error
	if log.OldValues, err = marshalValues(entry.OldValues); err != nil {
		return nil, fmt.Errorf("old values: %w", err)
	}
	if log.NewValues, err = marshalValues(entry.NewValues); err != nil {
		return nil, fmt.Errorf("new values: %w", err)
	}
	return log, nil
}

func marshalValues(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	GetByEntityID(ctx context.Context, entityType EntityType, entityID string) ([]*AuditLog, error)
}
