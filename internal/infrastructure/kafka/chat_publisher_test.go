package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestChatPublisher_PostSystemMessage(t *testing.T) {
	w := &recordingWriter{}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &ChatPublisher{writer: w, topic: "campaign-chat", now: func() time.Time { return fixed }}
	campaignID := uuid.New()

	require.NoError(t, p.PostSystemMessage(context.Background(), campaignID, "Campaign completed by: Ada"))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "campaign-chat", msg.Topic)
	assert.Equal(t, campaignID.String(), string(msg.Key))

	var got SystemMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, campaignID, got.CampaignID)
	assert.Equal(t, "Campaign completed by: Ada", got.Text)
	assert.True(t, got.IsSystem)
	assert.True(t, fixed.Equal(got.SentAt))
}

func TestNewChatPublisher_Validation(t *testing.T) {
	_, err := NewChatPublisher(nil, "t")
	assert.Error(t, err)
	_, err = NewChatPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
