package http

import (
	"context"
	"errors"

	"rentsnap/internal/domain"
)

type userKey struct{}

var errNoUser = errors.New("no authenticated user in context")

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user the auth middleware resolved for the request.
func UserFromContext(ctx context.Context) (*domain.User, error) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	if !ok || u == nil {
		return nil, errNoUser
	}
	return u, nil
}

// viewerID is 0 for anonymous callers of public routes.
func viewerID(ctx context.Context) int32 {
	if u, err := UserFromContext(ctx); err == nil {
		return u.ID
	}
	return 0
}
