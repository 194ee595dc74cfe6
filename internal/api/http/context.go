package http

import (
	"context"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
)

type contextKey string

const actorKey contextKey = "actor"

// ContextWithActor stores the authenticated tenant user for handlers and
// for request-scoped logging.
func ContextWithActor(ctx context.Context, actor domain.Actor) context.Context {
	ctx = logger.ContextWithActor(ctx, actor.TenantID, actor.UserID)
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor injected by the auth middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
