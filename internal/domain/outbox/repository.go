package outbox

import "context"

// Repository defines persistence for outbox messages.
type Repository interface {
	Create(ctx context.Context, msg *Message) error
	Update(ctx context.Context, msg *Message) error
	// ListDeliverable returns pending messages and failed ones that still have retries left, oldest first.
	ListDeliverable(ctx context.Context, limit int) ([]*Message, error)
}
