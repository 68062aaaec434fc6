package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-storefront/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type issuerFixture struct {
	accounts *Accounts
	tokens   *TokenServiceImpl
	auther   *Auther
	sink     *recordingSink
	alice    *models.User
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()
	accounts, _ := newTestAccounts(t)
	tokens := newTestTokens(t)
	sink := &recordingSink{}

	auther := NewAuthenticator(accounts, fastHasher(), tokens, defaultTestConfig()).
		WithLogger(quietLogger()).
		WithActivitySink(sink)

	alice, err := accounts.Register(context.Background(), aliceMessage())
	require.NoError(t, err)

	return &issuerFixture{
		accounts: accounts,
		tokens:   tokens,
		auther:   auther,
		sink:     sink,
		alice:    alice,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newIssuerFixture(t)

	for _, identifier := range []string{"alice", "alice@example.com"} {
		t.Run(identifier, func(t *testing.T) {
			pair, err := f.auther.Login(ctx, identifier, "wonderland")
			require.NoError(t, err)
			assert.Equal(t, "bearer", pair.TokenType)

			access, err := f.tokens.Decode(pair.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, TokenAccess, access.Kind())
			assert.Equal(t, f.alice.Subject(), access.Subject)
			assert.WithinDuration(t, time.Now().Add(30*time.Minute), access.Expires(), 5*time.Second)

			refresh, err := f.tokens.Decode(pair.RefreshToken)
			require.NoError(t, err)
			assert.Equal(t, TokenRefresh, refresh.Kind())
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refresh.Expires(), 5*time.Second)
		})
	}

	user, err := f.accounts.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newIssuerFixture(t)

	_, wrongSecret := f.auther.Login(ctx, "alice", "nope")
	_, unknownUser := f.auther.Login(ctx, "mallory", "wonderland")

	for _, err := range []error{wrongSecret, unknownUser} {
		require.True(t, IsUnauthorized(err))
		assert.Equal(t, MsgIncorrectLogin, richError(t, err).Message)
	}

	assert.Equal(t, richError(t, wrongSecret).Message, richError(t, unknownUser).Message)
	assert.Equal(t, []ActivityEventType{ActivityEventLoginFailure, ActivityEventLoginFailure}, f.sink.types())
}

func TestLoginUnknownIdentifierSpendsHashWork(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newTestAccounts(t)
	_, err := accounts.Register(ctx, aliceMessage())
	require.NoError(t, err)

	hasher := &countingHasher{PasswordAuthenticator: fastHasher()}
	auther := NewAuthenticator(accounts, hasher, newTestTokens(t), defaultTestConfig()).
		WithLogger(quietLogger())

	_, err = auther.Login(ctx, "alice", "nope")
	require.True(t, IsUnauthorized(err))
	require.Len(t, hasher.compared, 1)

	for _, identifier := range []string{"mallory", "mallory@example.com"} {
		_, err = auther.Login(ctx, identifier, "wonderland")
		require.True(t, IsUnauthorized(err))
	}
	require.Len(t, hasher.compared, 3)

	for _, hash := range hasher.compared[1:] {
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	}
	assert.Equal(t, hasher.compared[1], hasher.compared[2])
}

func TestLoginLookupFailureIsInternal(t *testing.T) {
	accounts := &MockAccounts{}
	accounts.On("FindByIdentifier", mock.Anything, "alice").Return(nil, errors.New("db down"))

	auther := NewAuthenticator(accounts, fastHasher(), newTestTokens(t), defaultTestConfig()).
		WithLogger(quietLogger())

	_, err := auther.Login(context.Background(), "alice", "wonderland")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
}

func TestLoginLastLoginFailureIsBestEffort(t *testing.T) {
	hash, err := fastHasher().HashPassword("wonderland")
	require.NoError(t, err)

	accounts := &MockAccounts{}
	accounts.On("FindByIdentifier", mock.Anything, "alice").
		Return(&models.User{ID: 1, Username: "alice", PasswordHash: hash, Active: true}, nil)
	accounts.On("TouchLastLogin", mock.Anything, int64(1)).Return(errors.New("read only"))

	auther := NewAuthenticator(accounts, fastHasher(), newTestTokens(t), defaultTestConfig()).
		WithLogger(quietLogger())

	pair, err := auther.Login(context.Background(), "alice", "wonderland")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	accounts.AssertExpectations(t)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newIssuerFixture(t)

	pair, err := f.auther.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)

	rotated, err := f.auther.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	user, err := f.auther.Resolver().ResolveRequired(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, user.ID)

	t.Run("old refresh token stays valid", func(t *testing.T) {
		again, err := f.auther.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, again.AccessToken)
	})

	t.Run("access token rejected", func(t *testing.T) {
		_, err := f.auther.Refresh(ctx, pair.AccessToken)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("refresh token rejected as access", func(t *testing.T) {
		_, err := f.auther.Resolver().ResolveRequired(ctx, pair.RefreshToken)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := f.auther.Refresh(ctx, "garbage")
		assert.True(t, IsUnauthorized(err))
	})
}

func TestRefreshUnknownSubject(t *testing.T) {
	accounts := &MockAccounts{}
	accounts.On("GetByID", mock.Anything, int64(77)).Return(nil, ErrIdentityNotFound)

	tokens := newTestTokens(t)
	auther := NewAuthenticator(accounts, fastHasher(), tokens, defaultTestConfig()).
		WithLogger(quietLogger())

	refresh, err := tokens.Issue(77, TokenRefresh, time.Hour)
	require.NoError(t, err)

	_, err = auther.Refresh(context.Background(), refresh)
	require.True(t, IsUnauthorized(err))
	assert.Equal(t, MsgUserNotFound, richError(t, err).Message)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newIssuerFixture(t)

	pair, err := f.auther.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)

	require.NoError(t, f.auther.Logout(ctx, f.alice))
	assert.True(t, IsUnauthorized(f.auther.Logout(ctx, nil)))

	_, err = f.auther.Resolver().ResolveRequired(ctx, pair.AccessToken)
	assert.NoError(t, err)
}

func TestLoginDoesNotRequireActiveAccount(t *testing.T) {
	ctx := context.Background()
	f := newIssuerFixture(t)

	_, err := f.accounts.SetActive(ctx, f.alice.ID, false)
	require.NoError(t, err)

	pair, err := f.auther.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)

	_, err = f.auther.Resolver().ResolveRequired(ctx, pair.AccessToken)
	require.NoError(t, err)

	_, err = f.auther.Resolver().ResolveActive(ctx, pair.AccessToken)
	assert.True(t, IsInactiveAccount(err))
}
