package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService signs and verifies bearer tokens
type TokenService interface {
	Issue(subjectID int64, kind TokenKind, ttl time.Duration) (string, error)
	Decode(token string) (*TokenClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	method     jwt.SigningMethod
	now        func() time.Time
	logger     Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithClock replaces the time source used for iat, exp and validation
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance.
// algorithm must be one of HS256, HS384 or HS512.
func NewTokenService(signingKey []byte, algorithm string, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if len(signingKey) == 0 {
		return nil, goerrors.New("token signing key must not be empty", goerrors.CategoryBadInput)
	}

	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}

	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok || method == nil {
		return nil, goerrors.New(fmt.Sprintf("unsupported signing method %q", algorithm), goerrors.CategoryBadInput).
			WithMetadata(map[string]any{
				"supported": []string{"HS256", "HS384", "HS512"},
			})
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenServiceImpl{
		signingKey: key,
		method:     method,
		now:        time.Now,
		logger:     defLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// NewTokenServiceFromConfig builds the codec from the config getters
func NewTokenServiceFromConfig(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	return NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetSigningMethod(), opts...)
}

// Issue mints a signed token for subjectID that expires after ttl
func (ts *TokenServiceImpl) Issue(subjectID int64, kind TokenKind, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", goerrors.New("token ttl must be positive", goerrors.CategoryBadInput)
	}

	if !kind.Valid() {
		return "", goerrors.New(fmt.Sprintf("unknown token kind %q", kind), goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	if kind == TokenRefresh {
		claims.Type = string(TokenRefresh)
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(ts.method, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Decode verifies signature, algorithm and expiry and returns the claims.
// Every failure is reported as ErrInvalidToken.
func (ts *TokenServiceImpl) Decode(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		ts.logger.Debug("token decode failed", "error", err)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Debug("token decode produced invalid claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}
