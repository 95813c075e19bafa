package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatMessage(t *testing.T) {
	campaignID := uuid.New()

	msg := NewChatMessage(campaignID, "Campaign completed by: Ada")

	require.NotNil(t, msg)
	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.Equal(t, KindChatSystemMessage, msg.Kind)
	assert.Equal(t, campaignID, msg.CampaignID)
	assert.Equal(t, StatusPending, msg.Status)
	assert.Equal(t, DefaultMaxRetries, msg.MaxRetries)
	assert.False(t, msg.IsTerminal())
}

func TestMessage_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		expected bool
	}{
		{StatusPending, StatusSent, true},
		{StatusPending, StatusFailed, true},
		{StatusSent, StatusPending, false},
		{StatusSent, StatusFailed, false},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusSent, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			msg := &Message{Status: tc.from}
			assert.Equal(t, tc.expected, msg.CanTransitionTo(tc.to))
		})
	}
}

func TestMessage_RetryLifecycle(t *testing.T) {
	msg := NewChatMessage(uuid.New(), "hello")
	now := time.Now().UTC()

	for i := 1; i <= DefaultMaxRetries; i++ {
		require.NoError(t, msg.MarkFailed("broker down", now))
		assert.Equal(t, i, msg.RetryCount)
		require.NotNil(t, msg.LastError)
		if i < DefaultMaxRetries {
			require.NoError(t, msg.ResetForRetry())
			assert.Equal(t, StatusPending, msg.Status)
			assert.Nil(t, msg.FailedAt)
		}
	}

	assert.False(t, msg.CanRetry())
	assert.True(t, msg.IsTerminal())
	assert.ErrorIs(t, msg.ResetForRetry(), ErrCannotRetry)
}

func TestMessage_MarkSent(t *testing.T) {
	msg := NewChatMessage(uuid.New(), "hello")
	now := time.Now().UTC()

	require.NoError(t, msg.MarkSent(now))
	assert.Equal(t, StatusSent, msg.Status)
	require.NotNil(t, msg.SentAt)
	assert.True(t, msg.IsTerminal())

	assert.ErrorIs(t, msg.MarkSent(now), ErrInvalidTransition)
	assert.ErrorIs(t, msg.MarkFailed("late", now), ErrInvalidTransition)
}
