package middleware

import (
	"context"

	"github.com/recordbase/recordbase/internal/auth"
)

type contextKey string

const ContextKeyIdentity contextKey = "identity"

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(ContextKeyIdentity).(auth.Identity)
	return v, ok
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}
