package redisreset

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("set REDIS_TEST_ADDR to run redis tests")
	}

	client, err := NewClient(context.Background(), addr, os.Getenv("REDIS_TEST_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := &models.PasswordReset{
		Token:     uuid.New(),
		Email:     "a@example.com",
		Kind:      models.KindAdmin,
		ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, s.Create(ctx, rec))

	ttl, err := s.client.TTL(ctx, key(rec.Token)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	got, err := s.FindByToken(ctx, rec.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Email, got.Email)
	assert.Equal(t, rec.Kind, got.Kind)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.Consume(ctx, got.Token))
	assert.ErrorIs(t, s.Consume(ctx, got.Token), service.ErrInvalidToken)
	gone, err := s.FindByToken(ctx, rec.Token)
	require.NoError(t, err)
	assert.Nil(t, gone)

	n, err := s.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ExpiredRecordIsNotStored(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := &models.PasswordReset{
		Token:     uuid.New(),
		Email:     "a@example.com",
		Kind:      models.KindUser,
		ExpiresAt: time.Now().Add(-time.Second),
	}
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.FindByToken(ctx, rec.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}
