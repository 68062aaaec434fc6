package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

type testConfig struct {
	key     string
	method  string
	access  time.Duration
	refresh time.Duration
}

func (c testConfig) GetSigningKey() string                    { return c.key }
func (c testConfig) GetSigningMethod() string                 { return c.method }
func (c testConfig) GetAccessTokenExpiration() time.Duration  { return c.access }
func (c testConfig) GetRefreshTokenExpiration() time.Duration { return c.refresh }

func defaultTestConfig() testConfig {
	return testConfig{
		key:     testSecret,
		method:  "HS256",
		access:  30 * time.Minute,
		refresh: 7 * 24 * time.Hour,
	}
}

func quietLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T, opts ...TokenServiceOption) *TokenServiceImpl {
	t.Helper()
	opts = append([]TokenServiceOption{WithTokenLogger(quietLogger())}, opts...)
	ts, err := NewTokenService([]byte(testSecret), "HS256", opts...)
	require.NoError(t, err)
	return ts
}

func setupManager(t *testing.T) repository.Manager {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, repository.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return repository.NewManager(db)
}

func fastHasher() BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

func richError(t *testing.T, err error) *goerrors.Error {
	t.Helper()
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected *goerrors.Error, got %T", err)
	return richErr
}

// MockAccounts is an AccountFinder backed by testify/mock
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAccounts) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAccounts) TouchLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type recordingSink struct {
	events []ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []ActivityEventType {
	out := make([]ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// countingHasher records every comparison made through it
type countingHasher struct {
	PasswordAuthenticator
	compared []string
}

func (h *countingHasher) ComparePasswordAndHash(password, hash string) error {
	h.compared = append(h.compared, hash)
	return h.PasswordAuthenticator.ComparePasswordAndHash(password, hash)
}
