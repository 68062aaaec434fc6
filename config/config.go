// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-storefront/auth"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "STOREFRONT_"

// Config holds every runtime setting. It implements auth.Config.
type Config struct {
	Addr            string        `env:"ADDR"             envDefault:":8000"`
	DatabaseDSN     string        `env:"DATABASE_DSN"     envDefault:"file:storefront.db?cache=shared"`
	SecretKey       string        `env:"SECRET_KEY"`
	Algorithm       string        `env:"ALGORITHM"        envDefault:"HS256"`
	AccessMinutes   int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshDays     int           `env:"REFRESH_TOKEN_EXPIRE_DAYS"   envDefault:"7"`
	BcryptCost      int           `env:"BCRYPT_COST"      envDefault:"12"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"     envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	Debug           bool          `env:"DEBUG"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// FirstSuperuser* bootstraps an admin account when both are set
	FirstSuperuserEmail    string `env:"FIRST_SUPERUSER_EMAIL"`
	FirstSuperuserPassword string `env:"FIRST_SUPERUSER_PASSWORD"`
}

var _ auth.Config = Config{}

// Load parses the process environment
func Load() (Config, error) {
	return load(env.Options{Prefix: EnvPrefix})
}

// LoadFrom parses vars instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Algorithm = strings.ToUpper(strings.TrimSpace(cfg.Algorithm))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	superuserPassword := []validation.Rule{}
	if c.FirstSuperuserEmail != "" {
		superuserPassword = append(superuserPassword, validation.Required, validation.Length(6, 128))
	}

	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.SecretKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Algorithm, validation.Required, validation.In("HS256", "HS384", "HS512")),
		validation.Field(&c.AccessMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.RefreshDays, validation.Required, validation.Min(1)),
		validation.Field(&c.BcryptCost, validation.Min(4), validation.Max(31)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.FirstSuperuserEmail, is.Email),
		validation.Field(&c.FirstSuperuserPassword, superuserPassword...),
	)
}

func (c Config) GetSigningKey() string {
	return c.SecretKey
}

func (c Config) GetSigningMethod() string {
	return c.Algorithm
}

func (c Config) GetAccessTokenExpiration() time.Duration {
	return time.Duration(c.AccessMinutes) * time.Minute
}

func (c Config) GetRefreshTokenExpiration() time.Duration {
	return time.Duration(c.RefreshDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel, with Debug forcing debug output
func (c Config) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BootstrapSuperuser reports whether an admin account should be ensured
func (c Config) BootstrapSuperuser() bool {
	return c.FirstSuperuserEmail != "" && c.FirstSuperuserPassword != ""
}
