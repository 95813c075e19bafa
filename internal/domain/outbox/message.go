package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery status of an outbox message.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Kind identifies the side effect a message carries.
type Kind string

const (
	KindChatSystemMessage Kind = "CHAT_SYSTEM_MESSAGE"
)

const DefaultMaxRetries = 3

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCannotRetry       = errors.New("cannot retry outbox message")
)

// Message is a post-commit side effect waiting to be delivered.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	Kind       Kind       `json:"kind"`
	CampaignID uuid.UUID  `json:"campaignId"`
	Body       string     `json:"body"`
	Status     Status     `json:"status"`
	RetryCount int        `json:"retryCount"`
	MaxRetries int        `json:"maxRetries"`
	LastError  *string    `json:"lastError,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
	FailedAt   *time.Time `json:"failedAt,omitempty"`
}

// NewChatMessage creates a pending chat system message for a campaign.
func NewChatMessage(campaignID uuid.UUID, body string) *Message {
	return &Message{
		ID:         uuid.New(),
		Kind:       KindChatSystemMessage,
		CampaignID: campaignID,
		Body:       body,
		Status:     StatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now().UTC(),
	}
}

// CanTransitionTo checks if a transition to the target status is valid
func (m *Message) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {StatusSent, StatusFailed},
		StatusSent:    {},
		StatusFailed:  {StatusPending},
	}
	for _, s := range transitions[m.Status] {
		if s == target {
			return true
		}
	}
	return false
}

func (m *Message) MarkSent(now time.Time) error {
	if !m.CanTransitionTo(StatusSent) {
		return ErrInvalidTransition
	}
	m.Status = StatusSent
	m.SentAt = &now
	return nil
}

func (m *Message) MarkFailed(errMsg string, now time.Time) error {
	if !m.CanTransitionTo(StatusFailed) {
		return ErrInvalidTransition
	}
	m.Status = StatusFailed
	m.FailedAt = &now
	m.LastError = &errMsg
	m.RetryCount++
	return nil
}

func (m *Message) CanRetry() bool {
	return m.Status == StatusFailed && m.RetryCount < m.MaxRetries
}

// ResetForRetry moves a failed message back to pending.
func (m *Message) ResetForRetry() error {
	if !m.CanRetry() {
		return ErrCannotRetry
	}
	m.Status = StatusPending
	m.FailedAt = nil
	return nil
}

// IsTerminal returns true once the message is sent or out of retries.
func (m *Message) IsTerminal() bool {
	return m.Status == StatusSent || (m.Status == StatusFailed && !m.CanRetry())
}
