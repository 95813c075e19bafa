package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabmarket/settlement-hub/internal/domain/chat"
	"github.com/collabmarket/settlement-hub/internal/domain/outbox"
)

const flushBatchSize = 50

// Dispatcher stores side effects after the owning write committed and delivers them inline.
type Dispatcher struct {
	repo   outbox.Repository
	poster chat.Poster
	logger zerolog.Logger
	now    func() time.Time
}

// NewDispatcher creates an outbox dispatcher. A nil poster discards chat messages.
func NewDispatcher(repo outbox.Repository, poster chat.Poster, logger zerolog.Logger) *Dispatcher {
	if poster == nil {
		poster = chat.Discard
	}
	return &Dispatcher{
		repo:   repo,
		poster: poster,
		logger: logger.With().Str("service", "outbox").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueChatMessage records a system message for the campaign chat.
func (d *Dispatcher) EnqueueChatMessage(ctx context.Context, campaignID uuid.UUID, text string) (*outbox.Message, error) {
	msg := outbox.NewChatMessage(campaignID, text)
	if err := d.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("enqueue chat message: %w", err)
	}
	return msg, nil
}

// Flush attempts delivery of every deliverable message and returns how many were sent.
// Failures are recorded on the message and logged, never returned.
func (d *Dispatcher) Flush(ctx context.Context) int {
	msgs, err := d.repo.ListDeliverable(ctx, flushBatchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to list outbox messages")
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if msg.Status == outbox.StatusFailed {
			if err := msg.ResetForRetry(); err != nil {
				continue
			}
		}
		if d.deliver(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (d *Dispatcher) deliver(ctx context.Context, msg *outbox.Message) bool {
	var deliverErr error
	switch msg.Kind {
	case outbox.KindChatSystemMessage:
		deliverErr = d.poster.PostSystemMessage(ctx, msg.CampaignID, msg.Body)
	default:
		deliverErr = fmt.Errorf("unknown outbox kind %q", msg.Kind)
	}

	now := d.now()
	if deliverErr != nil {
		_ = msg.MarkFailed(deliverErr.Error(), now)
		d.logger.Warn().Err(deliverErr).
			Str("messageId", msg.ID.String()).
			Str("campaignId", msg.CampaignID.String()).
			Int("retryCount", msg.RetryCount).
			Msg("outbox delivery failed")
	} else {
		_ = msg.MarkSent(now)
	}
	if err := d.repo.Update(ctx, msg); err != nil {
		d.logger.Error().Err(err).Str("messageId", msg.ID.String()).Msg("failed to update outbox message")
	}
	return deliverErr == nil
}
