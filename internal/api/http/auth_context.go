package httpapi

import (
	"context"

	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

type authContextKey string

const authActorKey authContextKey = "authActor"

func withActor(ctx context.Context, a user.Actor) context.Context {
	return context.WithValue(ctx, authActorKey, a)
}

// actorFromContext returns the zero Actor when the request is unauthenticated.
func actorFromContext(ctx context.Context) user.Actor {
	if v, ok := ctx.Value(authActorKey).(user.Actor); ok {
		return v
	}
	return user.Actor{}
}
