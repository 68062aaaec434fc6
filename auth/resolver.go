package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/models"
)

var (
	errNoToken     = errors.New("no bearer token")
	errWrongKind   = errors.New("unexpected token kind")
	errLookupPanic = errors.New("identity lookup panicked")
)

// AnonymousReason records why an optional resolution fell back to anonymous
type AnonymousReason string

const (
	ReasonNone             AnonymousReason = ""
	ReasonNoToken          AnonymousReason = "no_token"
	ReasonInvalidToken     AnonymousReason = "invalid_token"
	ReasonWrongKind        AnonymousReason = "wrong_kind"
	ReasonMissingSubject   AnonymousReason = "missing_subject"
	ReasonMalformedSubject AnonymousReason = "malformed_subject"
	ReasonUnknownSubject   AnonymousReason = "unknown_subject"
	ReasonLookupFailed     AnonymousReason = "lookup_failed"
)

// OptionalIdentity is the result of ResolveOptional. When the user is nil
// the request proceeds as anonymous and Reason says why.
type OptionalIdentity struct {
	user   *models.User
	reason AnonymousReason
}

func (o OptionalIdentity) Get() (*models.User, bool) {
	return o.user, o.user != nil
}

func (o OptionalIdentity) User() *models.User {
	return o.user
}

func (o OptionalIdentity) Anonymous() bool {
	return o.user == nil
}

func (o OptionalIdentity) Reason() AnonymousReason {
	return o.reason
}

// Resolver maps bearer tokens to users
type Resolver struct {
	tokens       TokenService
	users        IdentityLookup
	logger       Logger
	activitySink ActivitySink
}

func NewResolver(tokens TokenService, users IdentityLookup) *Resolver {
	return &Resolver{
		tokens: tokens,
		users:  users,
		logger: defLogger(),
	}
}

func (r *Resolver) WithLogger(logger Logger) *Resolver {
	r.logger = normalizeLogger(logger)
	return r
}

// WithActivitySink records optional fallbacks caused by a presented token
func (r *Resolver) WithActivitySink(sink ActivitySink) *Resolver {
	r.activitySink = sink
	return r
}

// ResolveRequired returns the user for an access token or an Unauthorized error
func (r *Resolver) ResolveRequired(ctx context.Context, token string) (*models.User, error) {
	user, err := r.resolve(ctx, token, TokenAccess)
	if err != nil {
		return nil, r.requiredError(err)
	}
	return user, nil
}

// ResolveOptional never fails. Any problem yields an anonymous identity.
func (r *Resolver) ResolveOptional(ctx context.Context, token string) OptionalIdentity {
	user, err := r.resolve(ctx, token, TokenAccess)
	if err == nil {
		return OptionalIdentity{user: user}
	}

	reason := anonymousReason(err)
	if reason != ReasonNoToken {
		r.logger.Debug("optional identity resolved as anonymous", "reason", string(reason), "error", err)
		recordActivity(ctx, r.activitySink, r.logger, ActivityEvent{
			EventType: ActivityEventAnonymousFallback,
			Metadata: map[string]any{
				"reason": string(reason),
			},
		})
	}

	return OptionalIdentity{reason: reason}
}

// ResolveActive is ResolveRequired plus the is_active gate
func (r *Resolver) ResolveActive(ctx context.Context, token string) (*models.User, error) {
	user, err := r.ResolveRequired(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, NewInactiveAccount()
	}
	return user, nil
}

// ResolveRefresh is the required policy applied to refresh tokens
func (r *Resolver) ResolveRefresh(ctx context.Context, token string) (*models.User, error) {
	user, err := r.resolve(ctx, token, TokenRefresh)
	if err != nil {
		return nil, r.requiredError(err)
	}
	return user, nil
}

func (r *Resolver) resolve(ctx context.Context, token string, kind TokenKind) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errNoToken
	}

	claims, err := r.tokens.Decode(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.Kind() != kind {
		return nil, errWrongKind
	}

	id, err := claims.SubjectID()
	if err != nil {
		return nil, err
	}

	user, err := r.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return user, nil
}

// lookup turns a panicking IdentityLookup into an error
func (r *Resolver) lookup(ctx context.Context, id int64) (user *models.User, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("identity lookup panicked", "user_id", id, "panic", rec)
			user, err = nil, fmt.Errorf("%w: %v", errLookupPanic, rec)
		}
	}()
	return r.users.GetByID(ctx, id)
}

func (r *Resolver) requiredError(err error) error {
	switch {
	case errors.Is(err, ErrIdentityNotFound):
		return NewUnauthorized(MsgUserNotFound)
	case isCredentialFailure(err):
		return NewUnauthorized(MsgCouldNotValidate)
	default:
		r.logger.Error("identity lookup failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve identity")
	}
}

func isCredentialFailure(err error) bool {
	return errors.Is(err, errNoToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, errWrongKind) ||
		errors.Is(err, errMissingSubject) ||
		errors.Is(err, errMalformedSubject)
}

func anonymousReason(err error) AnonymousReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, errNoToken):
		return ReasonNoToken
	case errors.Is(err, ErrInvalidToken):
		return ReasonInvalidToken
	case errors.Is(err, errWrongKind):
		return ReasonWrongKind
	case errors.Is(err, errMissingSubject):
		return ReasonMissingSubject
	case errors.Is(err, errMalformedSubject):
		return ReasonMalformedSubject
	case errors.Is(err, ErrIdentityNotFound):
		return ReasonUnknownSubject
	default:
		return ReasonLookupFailed
	}
}
