package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-storefront/models"
)

// Logger is the structured logger used across the package.
// Args are key/value pairs. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the token settings consumed by the auth components
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetAccessTokenExpiration() time.Duration
	GetRefreshTokenExpiration() time.Duration
}

// PasswordAuthenticator hashes and verifies passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// IdentityLookup finds a user by id. Implementations return
// ErrIdentityNotFound when no user matches.
type IdentityLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AccountFinder is what the session issuer needs from the account store
type AccountFinder interface {
	IdentityLookup
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

func defLogger() Logger {
	return slog.Default().With("component", "auth")
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger()
	}
	return l
}
