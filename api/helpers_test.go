package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string                    { return "api-test-secret-key" }
func (testConfig) GetSigningMethod() string                 { return "HS256" }
func (testConfig) GetAccessTokenExpiration() time.Duration  { return 30 * time.Minute }
func (testConfig) GetRefreshTokenExpiration() time.Duration { return 7 * 24 * time.Hour }

type testServer struct {
	app      *fiber.App
	repo     repository.Manager
	accounts *auth.Accounts
	auther   *auth.Auther
	tokens   *auth.TokenServiceImpl
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, repository.CreateSchema(ctx, db))
	t.Cleanup(func() {
		_ = db.Close()
	})

	repo := repository.NewManager(db)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	tokens, err := auth.NewTokenServiceFromConfig(testConfig{}, auth.WithTokenLogger(logger))
	require.NoError(t, err)

	accounts := auth.NewAccounts(repo, hasher).WithLogger(logger)
	auther := auth.NewAuthenticator(accounts, hasher, tokens, testConfig{}).WithLogger(logger)

	app := NewApp(Dependencies{
		Sessions:   auther,
		Accounts:   accounts,
		Resolver:   auther.Resolver(),
		Categories: repo.Categories(),
		Products:   repo.Products(),
		Orders:     repo.Orders(),
		Logger:     logger,
	})

	return &testServer{
		app:      app,
		repo:     repo,
		accounts: accounts,
		auther:   auther,
		tokens:   tokens,
	}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    []byte
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	return s.send(t, req)
}

func (s *testServer) form(t *testing.T, path string, values map[string]string) response {
	t.Helper()

	parts := make([]string, 0, len(values))
	for k, v := range values {
		parts = append(parts, k+"="+v)
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(strings.Join(parts, "&")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) response {
	t.Helper()

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, header: resp.Header, raw: raw, body: map[string]any{}}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (s *testServer) register(t *testing.T, email, username, password string) *models.User {
	t.Helper()
	user, err := s.accounts.Register(context.Background(), auth.RegisterUserMessage{
		Email:    email,
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func (s *testServer) login(t *testing.T, identifier, password string) auth.TokenPair {
	t.Helper()
	pair, err := s.auther.Login(context.Background(), identifier, password)
	require.NoError(t, err)
	return pair
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, _, err := s.accounts.EnsureSuperuser(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	return s.login(t, "admin", "admin123").AccessToken
}

func (s *testServer) product(t *testing.T, slug string, published bool) *models.Product {
	t.Helper()
	product, err := s.repo.Products().Create(context.Background(), &models.Product{
		Name:       strings.ToUpper(slug),
		Slug:       slug,
		PriceCents: 1999,
		Published:  published,
	})
	require.NoError(t, err)
	return product
}
