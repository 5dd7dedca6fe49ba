package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

type contextKey string

const (
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserRole contextKey = "role"
)

// WithActor stores actor in ctx the way Auth does.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, actor.ID)
	ctx = context.WithValue(ctx, ContextKeyUserRole, actor.Role)
	return ctx
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(domain.Role)
	return v, ok
}

// ActorFromContext returns the authenticated actor, or false when Auth did
// not run or the context lacks either value.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	id, ok := UserIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return domain.Actor{}, false
	}
	role, ok := RoleFromContext(ctx)
	if !ok || role == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: id, Role: role}, true
}
