package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-storefront/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher(t *testing.T) {
	h := fastHasher()

	_, err := h.HashPassword("")
	assert.ErrorIs(t, err, ErrNoEmptyString)

	hash, err := h.HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, h.ComparePasswordAndHash("secret", hash))
	assert.ErrorIs(t, h.ComparePasswordAndHash("other", hash), ErrMismatchedHashAndPassword)
	assert.Error(t, h.ComparePasswordAndHash("secret", "not-a-hash"))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsUnauthorized(NewUnauthorized(MsgCouldNotValidate)))
	assert.True(t, IsInactiveAccount(NewInactiveAccount()))
	assert.True(t, IsDuplicateEmail(NewDuplicateEmail()))
	assert.True(t, IsDuplicateUsername(NewDuplicateUsername()))
	assert.True(t, IsForbidden(NewForbidden("nope")))

	assert.False(t, IsUnauthorized(nil))
	assert.False(t, IsUnauthorized(errors.New("plain")))
	assert.False(t, IsUnauthorized(NewForbidden("nope")))

	_, ok := Challenge(NewInactiveAccount())
	assert.False(t, ok)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	user := &models.User{ID: 3}
	got, ok := FromContext(WithContext(context.Background(), user))
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NormalizePhone("650-253-0000")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	_, err = NormalizePhone("call me")
	assert.Error(t, err)
}

func TestActivitySinkErrorsAreSwallowed(t *testing.T) {
	sink := ActivitySinkFunc(func(context.Context, ActivityEvent) error {
		return errors.New("sink down")
	})
	recordActivity(context.Background(), sink, quietLogger(), ActivityEvent{EventType: ActivityEventLogout})
	recordActivity(context.Background(), nil, quietLogger(), ActivityEvent{EventType: ActivityEventLogout})
	assert.NoError(t, LoggingActivitySink{Logger: quietLogger()}.Record(context.Background(), ActivityEvent{
		EventType: ActivityEventLogout,
		Metadata:  map[string]any{"k": "v"},
	}))
}
