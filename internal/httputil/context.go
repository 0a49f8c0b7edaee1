package httputil

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	actorIDContextKey       contextKey = "actor_id"
	actorUsernameContextKey contextKey = "actor_username"
)

// WithActor attaches the authenticated actor's identity to the context. The
// auth middleware calls this after verifying the access token.
func WithActor(ctx context.Context, userID uuid.UUID, username string) context.Context {
	ctx = context.WithValue(ctx, actorIDContextKey, userID)
	return context.WithValue(ctx, actorUsernameContextKey, username)
}

// ActorID extracts the authenticated user id from the context.
func ActorID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(actorIDContextKey).(uuid.UUID)
	return userID, ok
}

// ActorUsername extracts the authenticated username from the context.
func ActorUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(actorUsernameContextKey).(string)
	return username, ok
}
