package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

var (
	errMissingSubject   = errors.New("token subject missing")
	errMalformedSubject = errors.New("token subject is not a numeric id")
)

// TokenClaims is the JWT payload. Type is empty for access tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

// Kind returns the token kind, access when the type claim is absent
func (c *TokenClaims) Kind() TokenKind {
	if c.Type == "" {
		return TokenAccess
	}
	return TokenKind(c.Type)
}

// SubjectID parses sub as the user id
func (c *TokenClaims) SubjectID() (int64, error) {
	if c.Subject == "" {
		return 0, errMissingSubject
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, errMalformedSubject
	}
	return id, nil
}

func (c *TokenClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil || claims.ID != "" {
		return
	}
	claims.ID = uuid.NewString()
}
