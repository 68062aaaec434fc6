package auth

import (
	"context"

	"github.com/goliatone/go-storefront/models"
)

type userCtxKey struct{}

// WithContext stores the resolved user in ctx
func WithContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// FromContext returns the user stored by WithContext
func FromContext(ctx context.Context) (*models.User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(userCtxKey{}).(*models.User)
	return user, ok && user != nil
}
