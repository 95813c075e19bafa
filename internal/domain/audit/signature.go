package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"
)

type signaturePayload struct {
	AuditID    string `json:"auditId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	ActorRole  string `json:"actorRole,omitempty"`
	OldValues  string `json:"oldValues,omitempty"`
	NewValues  string `json:"newValues,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RiskLevel  string `json:"riskLevel"`
	CreatedAt  string `json:"createdAt"`
}

func buildSignaturePayload(log *AuditLog) signaturePayload {
	payload := signaturePayload{
		AuditID:    log.AuditID.String(),
		EntityType: string(log.EntityType),
		EntityID:   log.EntityID,
		Action:     string(log.Action),
		Actor:      log.Actor,
		ActorRole:  log.ActorRole,
		Reason:     log.Reason,
		RiskLevel:  string(log.RiskLevel),
		CreatedAt:  log.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(log.OldValues) > 0 {
		payload.OldValues = base64.StdEncoding.EncodeToString(log.OldValues)
	}
	if len(log.NewValues) > 0 {
		payload.NewValues = base64.StdEncoding.EncodeToString(log.NewValues)
	}
	return payload
}

// SignAuditLog generates an HMAC signature for the audit log.
func SignAuditLog(log *AuditLog, key []byte) ([]byte, error) {
	data, err := json.Marshal(buildSignaturePayload(log))
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyAuditLog reports whether the stored signature matches the record.
func VerifyAuditLog(log *AuditLog, key []byte) bool {
	if len(log.Signature) == 0 {
		return false
	}
	expected, err := SignAuditLog(log, key)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, log.Signature)
}
