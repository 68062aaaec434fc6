package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/models"
)

const TokenTypeBearer = "bearer"

// missPassword is hashed once to give unknown identifiers a real
// comparison at the configured cost
const missPassword = "storefront-unknown-identifier"

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Auther is the session issuer
type Auther struct {
	accounts     AccountFinder
	hasher       PasswordAuthenticator
	tokens       TokenService
	resolver     *Resolver
	accessTTL    time.Duration
	refreshTTL   time.Duration
	logger       Logger
	activitySink ActivitySink

	missOnce sync.Once
	missHash string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(accounts AccountFinder, hasher PasswordAuthenticator, tokens TokenService, opts Config) *Auther {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Auther{
		accounts:   accounts,
		hasher:     hasher,
		tokens:     tokens,
		resolver:   NewResolver(tokens, accounts),
		accessTTL:  opts.GetAccessTokenExpiration(),
		refreshTTL: opts.GetRefreshTokenExpiration(),
		logger:     defLogger(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	s.resolver.WithLogger(s.logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = sink
	s.resolver.WithActivitySink(sink)
	return s
}

// Resolver returns the identity resolver sharing this issuer's codec
func (s *Auther) Resolver() *Resolver {
	return s.resolver
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies identifier (email or username) and secret. Unknown
// identifiers and wrong secrets fail with the same error.
func (s *Auther) Login(ctx context.Context, identifier, secret string) (TokenPair, error) {
	user, err := s.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			s.logger.Error("Login account lookup error", "error", err)
			return TokenPair{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
		}
		s.compareMiss(secret)
		s.loginFailed(ctx, 0, identifier, "unknown identifier")
		return TokenPair{}, NewUnauthorized(MsgIncorrectLogin)
	}

	if err := s.hasher.ComparePasswordAndHash(secret, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Error("Login password compare error", "user_id", user.ID, "error", err)
		}
		s.loginFailed(ctx, user.ID, identifier, "password mismatch")
		return TokenPair{}, NewUnauthorized(MsgIncorrectLogin)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.accounts.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Login failed to track last login", "user_id", user.ID, "error", err)
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID,
	})

	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token
// stays valid until it expires.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	user, err := s.resolver.ResolveRefresh(ctx, refreshToken)
	if err != nil {
		s.logger.Debug("Refresh rejected", "error", err)
		recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
			EventType: ActivityEventRefreshFailure,
		})
		return TokenPair{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, err
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventRefreshSuccess,
		UserID:    user.ID,
	})

	return pair, nil
}

// Logout acknowledges the request. Issued tokens remain valid until expiry.
func (s *Auther) Logout(ctx context.Context, user *models.User) error {
	if user == nil {
		return NewUnauthorized(MsgCouldNotValidate)
	}
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    user.ID,
	})
	return nil
}

func (s *Auther) issuePair(user *models.User) (TokenPair, error) {
	access, err := s.tokens.Issue(user.ID, TokenAccess, s.accessTTL)
	if err != nil {
		s.logger.Error("failed to issue access token", "user_id", user.ID, "error", err)
		return TokenPair{}, err
	}

	refresh, err := s.tokens.Issue(user.ID, TokenRefresh, s.refreshTTL)
	if err != nil {
		s.logger.Error("failed to issue refresh token", "user_id", user.ID, "error", err)
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

// compareMiss spends the same hashing work as a wrong password
func (s *Auther) compareMiss(secret string) {
	s.missOnce.Do(func() {
		hash, err := s.hasher.HashPassword(missPassword)
		if err != nil {
			s.logger.Error("failed to prepare login miss hash", "error", err)
			return
		}
		s.missHash = hash
	})
	_ = s.hasher.ComparePasswordAndHash(secret, s.missHash)
}

func (s *Auther) loginFailed(ctx context.Context, userID int64, identifier, cause string) {
	s.logger.Info("Login rejected", "identifier", identifier, "cause", cause)
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		UserID:    userID,
		Metadata: map[string]any{
			"identifier": identifier,
		},
	})
}
