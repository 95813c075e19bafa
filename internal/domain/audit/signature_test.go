package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyAuditLog(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	log, err := NewAuditLog(&AuditEntry{
		EntityType: EntityCampaign,
		EntityID:   "c-1",
		Action:     ActionCampaignStatusChanged,
		Actor:      "admin:1",
		OldValues:  map[string]string{"status": "active"},
		NewValues:  map[string]string{"status": "completed"},
	})
	require.NoError(t, err)
	assert.Equal(t, RiskLevelLow, log.RiskLevel)
	assert.JSONEq(t, `{"status":"active"}`, string(log.OldValues))

	sig, err := SignAuditLog(log, key)
	require.NoError(t, err)
	log.Signature = sig
	assert.True(t, VerifyAuditLog(log, key))

	log.NewValues = []byte(`{"status":"cancelled"}`)
	assert.False(t, VerifyAuditLog(log, key))
	assert.False(t, VerifyAuditLog(&AuditLog{}, key))
}
