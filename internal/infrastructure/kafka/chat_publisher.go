// Package kafka publishes campaign chat system messages to the chat service topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/collabmarket/settlement-hub/internal/domain/chat"
)

// SystemMessage is the event consumed by the chat service.
type SystemMessage struct {
	CampaignID uuid.UUID `json:"campaignId"`
	Text       string    `json:"text"`
	IsSystem   bool      `json:"isSystem"`
	SentAt     time.Time `json:"sentAt"`
}

// messageWriter is the subset of *kafka.Writer used by ChatPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ChatPublisher implements chat.Poster on a Kafka topic keyed by campaign id.
type ChatPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

func NewChatPublisher(brokers []string, topic string) (*ChatPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &ChatPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *ChatPublisher) PostSystemMessage(ctx context.Context, campaignID uuid.UUID, text string) error {
	payload, err := json.Marshal(SystemMessage{
		CampaignID: campaignID,
		Text:       text,
		IsSystem:   true,
		SentAt:     p.now(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(campaignID.String()),
		Value: payload,
		Time:  p.now(),
	})
}

func (p *ChatPublisher) Close() error {
	return p.writer.Close()
}

var _ chat.Poster = (*ChatPublisher)(nil)
