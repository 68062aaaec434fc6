package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/models"
)

var (
	defaultTokenLookup       = "header:" + fiber.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

const (
	DefaultContextKey  = "user"
	DefaultIdentityKey = "identity"
)

// Policy selects how a request's bearer token is resolved
type Policy int

const (
	// PolicyRequired rejects requests without a valid access token
	PolicyRequired Policy = iota
	// PolicyOptional lets every request through, anonymous on failure
	PolicyOptional
	// PolicyActive is PolicyRequired plus the is_active gate
	PolicyActive
)

func (p Policy) String() string {
	switch p {
	case PolicyRequired:
		return "required"
	case PolicyOptional:
		return "optional"
	case PolicyActive:
		return "active"
	default:
		return "unknown"
	}
}

// IdentityResolver mirrors the resolution policies of auth.Resolver
type IdentityResolver interface {
	ResolveRequired(ctx context.Context, token string) (*models.User, error)
	ResolveOptional(ctx context.Context, token string) auth.OptionalIdentity
	ResolveActive(ctx context.Context, token string) (*models.User, error)
}

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	Resolver       IdentityResolver
	Policy         Policy
	// ContextKey holds the resolved *models.User in Locals
	ContextKey string
	// IdentityKey holds the auth.OptionalIdentity under PolicyOptional
	IdentityKey string
	TokenLookup string
	AuthScheme  string
	// Authorize runs after resolution for required and active policies
	Authorize func(*models.User) error
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, _ := ExtractRawTokenFromContext(c, extractors)
		ctx := c.UserContext()

		if cfg.Policy == PolicyOptional {
			identity := cfg.Resolver.ResolveOptional(ctx, raw)
			c.Locals(cfg.IdentityKey, identity)
			if user, ok := identity.Get(); ok {
				c.Locals(cfg.ContextKey, user)
				c.SetUserContext(auth.WithContext(ctx, user))
			}
			return cfg.SuccessHandler(c)
		}

		var (
			user *models.User
			err  error
		)
		if cfg.Policy == PolicyActive {
			user, err = cfg.Resolver.ResolveActive(ctx, raw)
		} else {
			user, err = cfg.Resolver.ResolveRequired(ctx, raw)
		}
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.Authorize != nil {
			if err := cfg.Authorize(user); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, user)
		c.SetUserContext(auth.WithContext(ctx, user))

		return cfg.SuccessHandler(c)
	}
}

// RequireSuperuser is an Authorize hook for admin routes
func RequireSuperuser(user *models.User) error {
	if user == nil || !user.Superuser {
		return auth.NewForbidden("the user doesn't have enough privileges")
	}
	return nil
}

// UserFromLocals returns the user stored by the middleware
func UserFromLocals(c *fiber.Ctx, key ...string) (*models.User, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	user, ok := c.Locals(k).(*models.User)
	return user, ok && user != nil
}

// IdentityFromLocals returns the optional identity stored under PolicyOptional
func IdentityFromLocals(c *fiber.Ctx, key ...string) auth.OptionalIdentity {
	k := DefaultIdentityKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	identity, _ := c.Locals(k).(auth.OptionalIdentity)
	return identity
}

// ExtractRawTokenFromContext returns the first token any extractor finds
func ExtractRawTokenFromContext(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	err := ErrJWTMissingOrMalformed

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.Resolver == nil {
		panic("AUTH: JWT middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.IdentityKey == "" {
		cfg.IdentityKey = DefaultIdentityKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	if challenge, ok := auth.Challenge(err); ok {
		c.Set(fiber.HeaderWWWAuthenticate, challenge)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": auth.MsgCouldNotValidate})
	}
	if auth.IsInactiveAccount(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "inactive user"})
	}
	if auth.IsForbidden(err) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "forbidden"})
	}
	return err
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l:]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
