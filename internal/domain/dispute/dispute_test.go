package dispute

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
)

func TestStatus_IsOpen(t *testing.T) {
	assert.True(t, StatusPending.IsOpen())
	assert.True(t, StatusNeedsInfo.IsOpen())
	assert.True(t, StatusEscalated.IsOpen())
	assert.False(t, StatusResolved.IsOpen())
	assert.False(t, StatusRejected.IsOpen())
}

func TestDecisionMapping(t *testing.T) {
	tests := []struct {
		decision Decision
		status   Status
		campaign campaign.Status
		amount   bool
	}{
		{DecisionRefundFull, StatusResolved, campaign.StatusCancelled, false},
		{DecisionRefundPartial, StatusResolved, campaign.StatusCancelled, true},
		{DecisionReject, StatusRejected, campaign.StatusCancelled, false},
		{DecisionRedoWork, StatusResolved, campaign.StatusActive, false},
		{DecisionReleaseFunds, StatusResolved, campaign.StatusCompleted, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.decision), func(t *testing.T) {
			assert.True(t, tc.decision.Valid())
			assert.Equal(t, tc.status, tc.decision.ResultingStatus())
			assert.Equal(t, tc.campaign, tc.decision.CampaignStatus())
			assert.Equal(t, tc.amount, tc.decision.RequiresAmount())
		})
	}
	assert.False(t, Decision("escalate").Valid())
}

func TestNormalizeReason(t *testing.T) {
	assert.Equal(t, ReasonQuality, NormalizeReason("Quality"))
	assert.Equal(t, ReasonOther, NormalizeReason(""))
	assert.Equal(t, ReasonOther, NormalizeReason("weather"))
}

func TestNormalizeEvidence(t *testing.T) {
	by := uuid.New()
	now := time.Now().UTC()

	out := NormalizeEvidence([]Evidence{
		{URL: "https://cdn.example/a.png"},
		{Text: "  missed deadline "},
		{Caption: "no content"},
		{Type: EvidenceVideo, URL: "https://cdn.example/v.mp4"},
	}, by, now)

	require.Len(t, out, 3)
	assert.Equal(t, EvidenceFile, out[0].Type)
	assert.Equal(t, EvidenceText, out[1].Type)
	assert.Equal(t, "missed deadline", out[1].Text)
	assert.Equal(t, EvidenceVideo, out[2].Type)
	for _, e := range out {
		assert.Equal(t, by, e.UploadedBy)
		assert.Equal(t, now, e.CreatedAt)
	}
}

func TestDispute_Participants(t *testing.T) {
	raiser, other := uuid.New(), uuid.New()
	d := &Dispute{RaisedBy: raiser, Against: &other}

	assert.True(t, d.IsParticipant(raiser))
	assert.True(t, d.IsParticipant(other))
	assert.False(t, d.IsParticipant(uuid.New()))
	assert.Equal(t, []uuid.UUID{raiser, other}, d.Parties())

	lone := &Dispute{RaisedBy: raiser}
	assert.Equal(t, []uuid.UUID{raiser}, lone.Parties())
}
