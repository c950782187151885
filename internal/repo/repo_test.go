package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/testutil"
)

var (
	_ service.UserStore          = (*UserRepo)(nil)
	_ service.AdminStore         = (*AdminRepo)(nil)
	_ service.RefreshTokenStore  = (*RefreshTokenRepo)(nil)
	_ service.PasswordResetStore = (*PasswordResetRepo)(nil)
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	r := &UserRepo{DB: testutil.InitTestDB(t)}

	missing, err := r.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	u := &models.User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", PasswordHash: "h1", Role: models.RoleUser}
	require.NoError(t, r.Create(ctx, u))
	require.NotZero(t, u.ID)

	exists, err := r.Exists(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ann@example.com", byID.Email)

	byID.PasswordHash = "h2"
	require.NoError(t, r.Update(ctx, byID))

	reloaded, err := r.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "h2", reloaded.PasswordHash)

	dup := &models.User{FirstName: "A", LastName: "B", Email: "ann@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.Error(t, r.Create(ctx, dup))

	none, err := r.FindByID(ctx, u.ID+100)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, r.Create(ctx, &models.User{Email: "bob@example.com", PasswordHash: "h", Role: models.RoleUser}))
	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ann@example.com", all[0].Email)
}

func TestAdminRepo(t *testing.T) {
	ctx := context.Background()
	r := &AdminRepo{DB: testutil.InitTestDB(t)}

	a := &models.Admin{
		ExternalID: "ext-1", FirstName: "Root", LastName: "Admin",
		Email: "root@example.com", PasswordHash: "h", SecretKey: "d", Role: models.RoleAdmin,
	}
	require.NoError(t, r.Create(ctx, a))
	require.NotZero(t, a.ID)

	byExt, err := r.FindByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	require.NotNil(t, byExt)
	assert.Equal(t, a.ID, byExt.ID)

	noExt, err := r.FindByExternalID(ctx, "ext-2")
	require.NoError(t, err)
	assert.Nil(t, noExt)

	exists, err := r.Exists(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.Exists(ctx, "other@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, r.Delete(ctx, a.ID))
	gone, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	require.NoError(t, r.Delete(ctx, a.ID))
}

func newRefresh(owner uint, kind models.Kind, digest string) *models.RefreshToken {
	return &models.RefreshToken{
		Token:     digest,
		OwnerID:   owner,
		OwnerKind: kind,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

func TestRefreshTokenRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := &RefreshTokenRepo{DB: testutil.InitTestDB(t)}

	require.NoError(t, r.Create(ctx, newRefresh(1, models.KindUser, "d1")))
	require.NoError(t, r.Create(ctx, newRefresh(1, models.KindUser, "d2")))
	require.NoError(t, r.Create(ctx, newRefresh(1, models.KindAdmin, "d3")))

	found, err := r.FindByValue(ctx, "d2")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, uint(1), found.OwnerID)
	assert.Equal(t, models.KindUser, found.OwnerKind)

	all, err := r.FindAllByOwner(ctx, 1, models.KindUser)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, r.DeleteByID(ctx, found.ID))
	gone, err := r.FindByValue(ctx, "d2")
	require.NoError(t, err)
	assert.Nil(t, gone)

	admins, err := r.FindAllByOwner(ctx, 1, models.KindAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestRefreshTokenRepo_RotateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	r := &RefreshTokenRepo{DB: testutil.InitTestDB(t)}

	old := newRefresh(7, models.KindUser, "old")
	require.NoError(t, r.Create(ctx, old))

	require.NoError(t, r.Rotate(ctx, old.ID, newRefresh(7, models.KindUser, "next-1")))

	err := r.Rotate(ctx, old.ID, newRefresh(7, models.KindUser, "next-2"))
	require.ErrorIs(t, err, service.ErrInvalidToken)

	stale, err := r.FindByValue(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, stale)

	winner, err := r.FindByValue(ctx, "next-1")
	require.NoError(t, err)
	assert.NotNil(t, winner)

	// the losing rotation must not leave its successor behind
	second, err := r.FindByValue(ctx, "next-2")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestPasswordResetRepo(t *testing.T) {
	ctx := context.Background()
	r := &PasswordResetRepo{DB: testutil.InitTestDB(t)}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	live := &models.PasswordReset{Token: uuid.New(), Email: "a@example.com", Kind: models.KindUser, ExpiresAt: now.Add(time.Hour)}
	stale := &models.PasswordReset{Token: uuid.New(), Email: "b@example.com", Kind: models.KindAdmin, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, r.Create(ctx, live))
	require.NoError(t, r.Create(ctx, stale))

	got, err := r.FindByToken(ctx, live.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, models.KindUser, got.Kind)

	n, err := r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	purged, err := r.FindByToken(ctx, stale.Token)
	require.NoError(t, err)
	assert.Nil(t, purged)

	require.NoError(t, r.Consume(ctx, got.Token))
	assert.ErrorIs(t, r.Consume(ctx, got.Token), service.ErrInvalidToken)
	deleted, err := r.FindByToken(ctx, live.Token)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	unknown, err := r.FindByToken(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, unknown)
}
