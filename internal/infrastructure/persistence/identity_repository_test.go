package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createdGroup(t *testing.T, repo *GormAccessGroupRepository, tenantID uuid.UUID, code string, features ...string) *identity.AccessGroup {
	t.Helper()
	g, err := identity.NewAccessGroup(tenantID, code, code, "admin")
	require.NoError(t, err)
	g.SetFeatures(features, "admin")
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

func TestGormAccessGroupRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccessGroupRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("round trips features and permissions", func(t *testing.T) {
		g := createdGroup(t, repo, tenantID, "kitchen", "comandas", "mesas")
		require.NoError(t, g.SetPermissions(json.RawMessage(`{"comandas":{"write":true}}`), "admin"))
		require.NoError(t, repo.Update(ctx, g))

		found, err := repo.FindByID(ctx, tenantID, g.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"comandas", "mesas"}, found.Features)
		assert.JSONEq(t, `{"comandas":{"write":true}}`, string(found.Permissions))
	})

	t.Run("code is unique per tenant", func(t *testing.T) {
		createdGroup(t, repo, tenantID, "cashiers")
		dup, err := identity.NewAccessGroup(tenantID, "cashiers", "Other", "admin")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), identity.ErrDuplicateGroupCode)
	})

	t.Run("find by ids stays inside the tenant", func(t *testing.T) {
		mine := createdGroup(t, repo, tenantID, "waiters")
		foreign := createdGroup(t, repo, uuid.New(), "waiters")

		groups, err := repo.FindByIDs(ctx, tenantID, []uuid.UUID{mine.ID, foreign.ID})
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, mine.ID, groups[0].ID)

		empty, err := repo.FindByIDs(ctx, tenantID, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		g := createdGroup(t, repo, tenantID, "temp")
		require.NoError(t, repo.Delete(ctx, tenantID, g.ID))
		_, err := repo.FindByID(ctx, tenantID, g.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.True(t, errors.Is(repo.Delete(ctx, tenantID, g.ID), shared.ErrNotFound))
	})
}

func TestGormUserRepository(t *testing.T) {
	db := setupTestDB(t)
	users := NewGormUserRepository(db)
	groups := NewGormAccessGroupRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	kitchen := createdGroup(t, groups, tenantID, "kitchen", "comandas")
	user, err := identity.NewUser(tenantID, "Joao", "Joao@Example.com", "s3cret-Pass", "admin")
	require.NoError(t, err)
	personID := uuid.New()
	user.PersonID = &personID
	user.SetAccess([]uuid.UUID{kitchen.ID}, []string{"mesas"}, nil, "admin")
	require.NoError(t, users.Create(ctx, user))

	t.Run("login or e-mail lookup ignores case", func(t *testing.T) {
		for _, key := range []string{"JOAO", "joao@example.com"} {
			found, err := users.FindByLoginOrEmail(ctx, key)
			require.NoError(t, err, key)
			assert.Equal(t, user.ID, found.ID)
			assert.Equal(t, []uuid.UUID{kitchen.ID}, found.GroupIDs)
			assert.Equal(t, []string{"mesas"}, found.AllowFeatures)
			assert.True(t, found.VerifyPassword("s3cret-Pass"))
		}
		_, err := users.FindByLoginOrEmail(ctx, "  ")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("duplicate login", func(t *testing.T) {
		dup, err := identity.NewUser(uuid.New(), "joao", "other@example.com", "s3cret-Pass", "admin")
		require.NoError(t, err)
		assert.True(t, errors.Is(users.Create(ctx, dup), shared.ErrDuplicateKey))
	})

	t.Run("save access replaces memberships and overrides", func(t *testing.T) {
		bar := createdGroup(t, groups, tenantID, "bar", "cardapio")
		user.SetAccess([]uuid.UUID{bar.ID}, nil, []string{"comandas"}, "manager")
		require.NoError(t, users.SaveAccess(ctx, user))

		found, err := users.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{bar.ID}, found.GroupIDs)
		assert.Empty(t, found.AllowFeatures)
		assert.Equal(t, []string{"comandas"}, found.DeniedFeatures)
		assert.Equal(t, "manager", found.UpdatedBy)
	})

	t.Run("person lookup and last login", func(t *testing.T) {
		found, err := users.FindByPersonID(ctx, tenantID, personID)
		require.NoError(t, err)
		found.RecordLogin(found.UpdatedAt)
		require.NoError(t, users.UpdateLastLogin(ctx, found))

		again, err := users.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, again.LastLoginAt)

		_, err = users.FindByPersonID(ctx, tenantID, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("verification round trip", func(t *testing.T) {
		found, err := users.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		found.RequestVerification("mail-token", time.Now().Add(time.Hour))
		require.NoError(t, users.UpdateVerification(ctx, found))

		pending, err := users.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		assert.True(t, pending.IsPendingVerification())
		require.NotNil(t, pending.EmailVerificationExpiresAt)

		byToken, err := users.FindByVerificationToken(ctx, "mail-token")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byToken.ID)
		_, err = users.FindByVerificationToken(ctx, "other-token")
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		require.NoError(t, pending.ConfirmEmail("mail-token", time.Now()))
		require.NoError(t, users.UpdateVerification(ctx, pending))

		verified, err := users.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		assert.True(t, verified.IsEmailVerified())
		assert.Empty(t, verified.EmailVerificationToken)
		assert.Nil(t, verified.EmailVerificationExpiresAt)

		_, err = users.FindByVerificationToken(ctx, "mail-token")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("person link", func(t *testing.T) {
		found, err := users.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		linked := uuid.New()
		found.LinkPerson(linked)
		require.NoError(t, users.UpdatePerson(ctx, found))

		again, err := users.FindByPersonID(ctx, tenantID, linked)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("verification of an unknown user", func(t *testing.T) {
		ghost, err := identity.NewUser(tenantID, "ghost", "ghost@example.com", "senha-forte-1", "admin")
		require.NoError(t, err)
		assert.True(t, errors.Is(users.UpdateVerification(ctx, ghost), shared.ErrNotFound))
	})
}
