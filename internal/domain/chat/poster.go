package chat

import (
	"context"

	"github.com/google/uuid"
)

// Poster delivers system messages into a campaign's chat room.
type Poster interface {
	PostSystemMessage(ctx context.Context, campaignID uuid.UUID, text string) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(ctx context.Context, campaignID uuid.UUID, text string) error

func (f PosterFunc) PostSystemMessage(ctx context.Context, campaignID uuid.UUID, text string) error {
	return f(ctx, campaignID, text)
}

// Discard drops every message; used when no chat transport is configured.
var Discard Poster = PosterFunc(func(context.Context, uuid.UUID, string) error { return nil })
