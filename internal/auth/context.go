package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

type userKey struct{}

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, user uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the authenticated user stored by WithUser.
func UserFrom(ctx context.Context) (uuid.UUID, error) {
	user, ok := ctx.Value(userKey{}).(uuid.UUID)
	if !ok || user == uuid.Nil {
		return uuid.Nil, svcErr.ErrUnauthenticated
	}
	return user, nil
}

// TokenFromHeader extracts the raw token from an Authorization value,
// accepting both "<token>" and "Bearer <token>".
func TokenFromHeader(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
