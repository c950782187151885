package hash

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNew_RejectsOutOfRangeCost(t *testing.T) {
	_, err := New(bcrypt.MinCost-1, 1)
	require.Error(t, err)

	_, err = New(bcrypt.MaxCost+1, 1)
	require.Error(t, err)
}

func TestHasher_HashAndCheck(t *testing.T) {
	h, err := New(bcrypt.MinCost, 2)
	require.NoError(t, err)
	ctx := context.Background()

	hashed, err := h.HashPassword(ctx, "Passw0rd1")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd1", hashed)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.CheckPassword(ctx, hashed, "Passw0rd1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.CheckPassword(ctx, hashed, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsEveryHash(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	a, err := h.HashPassword(context.Background(), "same")
	require.NoError(t, err)
	b, err := h.HashPassword(context.Background(), "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_EmptyHashNeverMatches(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	ok, err := h.CheckPassword(context.Background(), "", "not-a-real-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_MalformedHash(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	ok, err := h.CheckPassword(context.Background(), "garbage", "x")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestHasher_CancelledContext(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)

	// hold the only slot so the next caller has to wait
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.HashPassword(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHasher_PasswordTooLong(t *testing.T) {
	h, err := New(bcrypt.MinCost, 1)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = h.HashPassword(ctx, strings.Repeat("p", MaxPasswordBytes+1))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.HashPassword(ctx, strings.Repeat("p", MaxPasswordBytes))
	require.NoError(t, err)

	hashed, err := h.HashPassword(ctx, "Passw0rd1")
	require.NoError(t, err)
	ok, err := h.CheckPassword(ctx, hashed, strings.Repeat("p", 80))
	require.NoError(t, err)
	assert.False(t, ok)
}
